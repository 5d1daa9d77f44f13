// Package probe checks reachability of an external Postgres target with a
// short-lived connection and a trivial liveness query.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultTimeout bounds connect plus query so that an unreachable host
// cannot block a request forever.
const DefaultTimeout = 10 * time.Second

// ErrConnect wraps every connect or query failure, carrying the upstream
// error message.
var ErrConnect = errors.New("cannot connect to database")

// Result reports a successful probe with its wall-clock latency from
// connect-start to query-completion.
type Result struct {
	OK        bool  `json:"ok"`
	LatencyMs int64 `json:"latencyMs"`
}

// Run connects to the target described by connString, issues SELECT 1 and
// measures latency.  The connection is released on every exit path.  TLS
// certificates of the target are accepted without strict verification:
// customer databases routinely present self-signed certificates and the
// probe only validates reachability, not identity.
func Run(ctx context.Context, connString string, timeout time.Duration) (Result, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if cfg.TLSConfig != nil {
		cfg.TLSConfig.InsecureSkipVerify = true
	}
	for _, fb := range cfg.Fallbacks {
		if fb.TLSConfig != nil {
			fb.TLSConfig.InsecureSkipVerify = true
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	// Close with a fresh context: the probe context may already be
	// expired when the query fails, and the handle must be released
	// on every path regardless.
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer closeCancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "SELECT 1"); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	return Result{OK: true, LatencyMs: time.Since(started).Milliseconds()}, nil
}
