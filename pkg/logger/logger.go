package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/manzanit0/kantomap/pkg/middleware"
)

// InitGlobalSlog makes a JSON logger tagged with the service name the
// default one.
func InitGlobalSlog(service string) {
	SetDefault(os.Stdout, service, nil)
}

func SetDefault(w io.Writer, service string, opts *slog.HandlerOptions) {
	logger := slog.New(NewContextJSONHandler(w, opts))
	logger = logger.With("service", service)
	slog.SetDefault(logger)
}

// ContextJSONHandler adds request scoped values from the context, such as
// the trace id, to each record.
type ContextJSONHandler struct {
	jsonHandler slog.Handler
}

func NewContextJSONHandler(w io.Writer, opts *slog.HandlerOptions) *ContextJSONHandler {
	return &ContextJSONHandler{slog.NewJSONHandler(w, opts)}
}

func (h *ContextJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.jsonHandler.Enabled(ctx, level)
}

func (h *ContextJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithAttrs(attrs)}
}

func (h *ContextJSONHandler) WithGroup(name string) slog.Handler {
	return &ContextJSONHandler{jsonHandler: h.jsonHandler.WithGroup(name)}
}

func (h *ContextJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String(string(middleware.CtxKeyTraceID), id))
	}

	return h.jsonHandler.Handle(ctx, r)
}
