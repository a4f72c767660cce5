package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/api/transport"
	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/internal/middleware"
	"github.com/fastygo/citydesk/pkg/httpcontext"
	appLogger "github.com/fastygo/citydesk/pkg/logger"
	authUC "github.com/fastygo/citydesk/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	tokens     *middleware.TokenIssuer
	defaultTTL time.Duration
}

func NewAuthHandler(uc *authUC.UseCase, tokens *middleware.TokenIssuer, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		tokens:      tokens,
		defaultTTL:  ttl,
	}
}

// @Summary Issue a session and bearer token for a verified user id
// @Tags auth
// @Router /api/v1/auth/session [post]
func (h *AuthHandler) CreateSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.SessionRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	session, err := h.uc.CreateSession(stdCtx, req.UserID, h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSession(ctx, stdCtx, http.StatusCreated, session)
}

// @Summary Extend the current session and reissue its token
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.RefreshRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := transport.Decode(body, &req); err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
	}

	session, err := h.uc.RefreshSession(stdCtx, sessionID(ctx), h.ttlFromRequest(req.TTL))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			err = domain.WrapError(domain.ErrCodeUnauthorized, "session expired or unknown", err)
		}
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSession(ctx, stdCtx, http.StatusOK, session)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/auth/session [delete]
func (h *AuthHandler) Revoke(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RevokeSession(stdCtx, sessionID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h *AuthHandler) respondSession(ctx *fasthttp.RequestCtx, stdCtx context.Context, status int, session *domain.Session) {
	token, err := h.tokens.Issue(session)
	if err != nil {
		appLogger.WithRequestID(stdCtx, h.logger).Error("failed to sign session token", zap.Error(err))
		h.respondJSON(ctx, http.StatusInternalServerError, transport.NewError(string(domain.ErrCodeInternal), "internal error", nil))
		return
	}
	h.respondSuccess(ctx, status, transport.SessionResponse{
		Token:     token,
		SessionID: session.ID,
		UserID:    session.UserID,
		Role:      session.Metadata["role"],
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AuthHandler) ttlFromRequest(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return h.defaultTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}
