package middleware

import (
	"context"
	"log/slog"

	"pousada/internal/app/commands"
	"pousada/internal/app/outbox"
)

// OutboxFlush flushes the outbox once the handler returns, success or not,
// since a rejected action still records the resync it caused. The upstream
// write has already happened by then, so a flush failure is logged and the
// handler result is returned unchanged.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if flushErr := box.Flush(context.WithoutCancel(ctx)); flushErr != nil {
				logger.Error("outbox flush failed", "command", cmd.Key(), "error", flushErr)
			}
			return res, err
		})
	}
}
