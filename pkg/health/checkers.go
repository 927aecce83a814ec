package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is anything with a Ping method, like a pgx pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports unhealthy when the dependency fails to answer a ping.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds the
// threshold, catching leaks before they exhaust memory.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}
