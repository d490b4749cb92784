package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/pbixinspect/internal/core"
	webmw "github.com/JonMunkholm/pbixinspect/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// analysis history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, webmw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
