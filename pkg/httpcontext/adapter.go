package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/citydesk/pkg/logger"
)

type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"

	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
	parent  context.Context
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
		parent:  context.Background(),
	}
}

// WithParent derives every request context from parent, so in-flight requests
// see cancellation when the service shuts down.
func (a *Adapter) WithParent(parent context.Context) *Adapter {
	if parent != nil {
		a.parent = parent
	}
	return a
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with the request id and, behind the auth middleware, the user id.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(a.parent, a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(headerRequestID, reqID)

	if userID := strings.TrimSpace(string(ctx.Request.Header.Peek(headerUserID))); userID != "" {
		stdCtx = appLogger.ContextWithActorID(stdCtx, userID)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if header == "" || len(header) > 128 {
		return uuid.NewString()
	}
	return header
}
