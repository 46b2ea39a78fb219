package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Join runs handlers concurrently and waits until all of them return.
//
// Behavior:
//   - Every handler receives a context derived from ctx, carrying the same logger
//   - The first error cancels the context of the remaining handlers and is returned
//   - A panic is recovered, logged with its stack, and returned as an error
func Join(ctx context.Context, handlers ...func(ctx context.Context) error) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, handler := range handlers {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					ctxlog.From(egCtx).Error("panic in async handler",
						"recover", r,
						"stack", string(stack))
					err = goerr.New("panic in async handler", goerr.V("recover", r))
				}
			}()

			return handler(egCtx)
		})
	}

	return eg.Wait()
}
