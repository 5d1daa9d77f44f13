package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunRejectsMalformedTarget(t *testing.T) {
	_, err := Run(context.Background(), "postgres://u:p@localhost:notaport/db", time.Second)
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}

func TestRunUnreachableHost(t *testing.T) {
	// Port 1 on loopback is expected to refuse immediately.
	start := time.Now()
	_, err := Run(context.Background(), "postgres://u:p@127.0.0.1:1/db?sslmode=disable", 2*time.Second)
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("probe did not respect its timeout: took %s", elapsed)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, "postgres://u:p@127.0.0.1:1/db?sslmode=disable", time.Second)
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}
