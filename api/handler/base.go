package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/api/transport"
	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/internal/middleware"
	"github.com/fastygo/citydesk/pkg/httpcontext"
	appLogger "github.com/fastygo/citydesk/pkg/logger"
)

// ActorResolver turns the session behind a request into an actor.
type ActorResolver interface {
	CurrentActor(ctx context.Context, sessionID string) (domain.Actor, error)
}

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func sessionID(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Peek(middleware.HeaderSessionID))
}

// resolveActor writes the error response itself and reports false when the
// request cannot be attributed to an actor.
func (h baseHandler) resolveActor(ctx *fasthttp.RequestCtx, stdCtx context.Context, resolver ActorResolver) (domain.Actor, bool) {
	actor, err := resolver.CurrentActor(stdCtx, sessionID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return nil, false
	}
	return actor, true
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, meta transport.ListMeta) {
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(data, meta))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		appLogger.WithRequestID(stdCtx, h.logger).Error("request failed", zap.Error(err))
		message = "internal error"
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func mapError(err error) (int, string) {
	switch code := domain.CodeOf(err); code {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(code)
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, string(code)
	case domain.ErrCodeInvalid:
		return http.StatusBadRequest, string(code)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case domain.ErrCodeClosed, domain.ErrCodeAlreadyClosed:
		return http.StatusConflict, string(code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return value
}

func queryInt(ctx *fasthttp.RequestCtx, name string, fallback int) int {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return fallback
	}
	value, err := strconv.Atoi(string(raw))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
