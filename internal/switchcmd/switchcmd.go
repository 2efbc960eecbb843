// Package switchcmd talks to the switch's event socket. The only caller
// today is the call flow toggle, which broadcasts a PRESENCE_IN event so
// BLF lamps subscribed to the flow's feature code follow the day/night
// state.
package switchcmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/pbxgate/pbxgate/internal/httapi"
)

const socketTimeout = 5 * time.Second

// Client is a minimal event socket client. A fresh connection is opened
// per command; the broadcast volume here does not justify pooling.
type Client struct {
	addr     string
	password string
	logger   *slog.Logger
	// dialFunc allows injecting a pipe connection for testing.
	dialFunc func(ctx context.Context, addr string) (net.Conn, error)
}

// NewClient creates a Client for the event socket at addr.
func NewClient(addr, password string, logger *slog.Logger) *Client {
	return &Client{
		addr:     addr,
		password: password,
		logger:   logger.With("component", "switchcmd"),
		dialFunc: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

var _ httapi.PresenceNotifier = (*Client)(nil)

// CallFlowStatus broadcasts the flow's new mode as a PRESENCE_IN event.
// Day mode (status true) extinguishes the feature code's lamp, night mode
// lights it.
func (c *Client) CallFlowStatus(ctx context.Context, flowID string, status bool, featureCode, domainName string) error {
	answerState := "terminated"
	if !status {
		answerState = "confirmed"
	}
	user := featureCode + "@" + domainName

	headers := []string{
		"proto: sip",
		"event_type: presence",
		"alt_event_type: dialog",
		"Presence-Call-Direction: outbound",
		"state: Active",
		"login: " + user,
		"from: " + user,
		"unique-id: " + flowID,
		"status: Active",
		"answer-state: " + answerState,
		"rpid: unknown",
		"event_count: 1",
	}
	cmd := "sendevent PRESENCE_IN\n" + strings.Join(headers, "\n") + "\n\n"

	if err := c.roundTrip(ctx, cmd); err != nil {
		return fmt.Errorf("presence broadcast for %s: %w", user, err)
	}
	c.logger.Debug("presence broadcast sent", "user", user, "answer_state", answerState)
	return nil
}

// roundTrip authenticates, sends one command and checks the reply.
func (c *Client) roundTrip(ctx context.Context, cmd string) error {
	ctx, cancel := context.WithTimeout(ctx, socketTimeout)
	defer cancel()

	conn, err := c.dialFunc(ctx, c.addr)
	if err != nil {
		return fmt.Errorf("dialing event socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	r := bufio.NewReader(conn)
	if _, err := readMessage(r); err != nil {
		return fmt.Errorf("reading auth request: %w", err)
	}
	if _, err := fmt.Fprintf(conn, "auth %s\n\n", c.password); err != nil {
		return fmt.Errorf("sending auth: %w", err)
	}
	reply, err := readMessage(r)
	if err != nil {
		return fmt.Errorf("reading auth reply: %w", err)
	}
	if !strings.Contains(reply, "+OK") {
		return fmt.Errorf("auth rejected: %s", strings.TrimSpace(reply))
	}

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	reply, err = readMessage(r)
	if err != nil {
		return fmt.Errorf("reading command reply: %w", err)
	}
	if !strings.Contains(reply, "+OK") {
		return fmt.Errorf("command rejected: %s", strings.TrimSpace(reply))
	}
	return nil
}

// readMessage reads one event socket message: header lines up to the
// blank line terminator.
func readMessage(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		if line == "\n" || line == "\r\n" {
			return sb.String(), nil
		}
		sb.WriteString(line)
	}
}
