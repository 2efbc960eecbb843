// Package firewall shells out to the host's allow-list scripts when a
// device address is seen for the first time. The scripts are fixed paths
// from configuration; the address is the only argument.
package firewall

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/pbxgate/pbxgate/internal/httapi"
)

const scriptTimeout = 10 * time.Second

// ScriptRunner invokes the IPv4 or IPv6 allow-list script, chosen by the
// address family.
type ScriptRunner struct {
	ipv4Script string
	ipv6Script string
	logger     *slog.Logger
	// runFunc allows injecting a fake runner for testing.
	runFunc func(ctx context.Context, script, address string) error
}

// NewScriptRunner creates a ScriptRunner for the configured script paths.
func NewScriptRunner(ipv4Script, ipv6Script string, logger *slog.Logger) *ScriptRunner {
	return &ScriptRunner{
		ipv4Script: ipv4Script,
		ipv6Script: ipv6Script,
		logger:     logger.With("component", "firewall"),
		runFunc:    runScript,
	}
}

var _ httapi.FirewallAllower = (*ScriptRunner)(nil)

// AddAllowed runs the matching allow-list script for the address.
func (r *ScriptRunner) AddAllowed(ctx context.Context, address string) error {
	script := r.ipv4Script
	if strings.Contains(address, ":") {
		script = r.ipv6Script
	}
	if script == "" {
		r.logger.Debug("no allow-list script configured", "address", address)
		return nil
	}
	if err := r.runFunc(ctx, script, address); err != nil {
		return fmt.Errorf("running %s for %s: %w", script, address, err)
	}
	r.logger.Info("address allowed", "address", address, "script", script)
	return nil
}

func runScript(ctx context.Context, script, address string) error {
	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, script, address).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
