package logging

import (
	"context"
	"log/slog"
	"os"
)

type loggerContextKey struct{}

// FromContext returns the request scoped logger, or a JSON stdout logger
// tagged as a fallback when none has been attached
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("logger", "fallback"))
	}
	return logger
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	return AddToContext(ctx, FromContext(ctx).With(args...))
}
