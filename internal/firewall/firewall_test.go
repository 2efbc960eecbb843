package firewall

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddAllowedPicksScriptByFamily(t *testing.T) {
	var gotScript, gotAddress string
	r := NewScriptRunner("/opt/fw/allow4.sh", "/opt/fw/allow6.sh", discardLogger())
	r.runFunc = func(ctx context.Context, script, address string) error {
		gotScript, gotAddress = script, address
		return nil
	}

	if err := r.AddAllowed(context.Background(), "203.0.113.7"); err != nil {
		t.Fatal(err)
	}
	if gotScript != "/opt/fw/allow4.sh" || gotAddress != "203.0.113.7" {
		t.Errorf("ran %s %s", gotScript, gotAddress)
	}

	if err := r.AddAllowed(context.Background(), "2001:db8::7"); err != nil {
		t.Fatal(err)
	}
	if gotScript != "/opt/fw/allow6.sh" || gotAddress != "2001:db8::7" {
		t.Errorf("ran %s %s", gotScript, gotAddress)
	}
}

func TestAddAllowedNoScriptConfigured(t *testing.T) {
	r := NewScriptRunner("", "", discardLogger())
	r.runFunc = func(ctx context.Context, script, address string) error {
		t.Fatal("runFunc must not be called")
		return nil
	}

	if err := r.AddAllowed(context.Background(), "203.0.113.8"); err != nil {
		t.Fatal(err)
	}
}

func TestAddAllowedScriptFailure(t *testing.T) {
	r := NewScriptRunner("/opt/fw/allow4.sh", "", discardLogger())
	r.runFunc = func(ctx context.Context, script, address string) error {
		return errors.New("exit status 1: iptables: chain missing")
	}

	err := r.AddAllowed(context.Background(), "203.0.113.9")
	if err == nil {
		t.Fatal("expected script failure to propagate")
	}
	for _, want := range []string{"/opt/fw/allow4.sh", "203.0.113.9", "chain missing"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
