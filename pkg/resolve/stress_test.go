//go:build test

package resolve

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/pkg/option"
)

func TestSupersededSessionsDoNotLeak(t *testing.T) {
	f := FetchFunc(func(ctx context.Context, q Query, limit int, selected []string) ([]option.Option, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
			return []option.Option{option.Identity(q.Text)}, nil
		}
	})

	runtime.GC()
	before := runtime.NumGoroutine()

	for round := 0; round < 5; round++ {
		r := New(Config{Fetcher: f, Immediate: true, Logger: logger.Quiet("stress")})
		for i := 0; i < 500; i++ {
			r.Update(Params{SearchText: fmt.Sprintf("q%d", i), Open: true})
		}
		r.Close()
	}

	time.Sleep(50 * time.Millisecond)
	runtime.GC()
	after := runtime.NumGoroutine()
	t.Logf("goroutines: before=%d after=%d", before, after)
	if after > before+2 {
		t.Errorf("goroutine leak: %d before, %d after", before, after)
	}
}
