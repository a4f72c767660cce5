package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/domain"
)

const (
	HeaderSessionID = "X-Session-ID"
	HeaderUserID    = "X-User-ID"
)

// SessionClaims binds a bearer token to a server-side session. The session is
// still looked up on every request, so revoking it invalidates the token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 tokens for issued sessions.
type TokenIssuer struct {
	secret []byte
	issuer string
}

func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer}
}

func (i *TokenIssuer) Issue(session *domain.Session) (string, error) {
	if session == nil {
		return "", errors.New("nil session")
	}
	claims := SessionClaims{
		SessionID: session.ID,
		Role:      session.Metadata["role"],
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates the token signature, issuer and expiry.
func (i *TokenIssuer) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.New("token carries no session")
	}
	if i.issuer != "" && !claims.VerifyIssuer(i.issuer, true) {
		return nil, errors.New("unexpected issuer")
	}
	return claims, nil
}

// JWTAuth rejects requests without a valid bearer token and forwards the
// session id and user id to handlers through request headers.
func JWTAuth(issuer *TokenIssuer, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(HeaderSessionID)
			ctx.Request.Header.Del(HeaderUserID)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx)
				return
			}

			claims, err := issuer.Parse(tokenString)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx)
				return
			}

			ctx.Request.Header.Set(HeaderSessionID, claims.SessionID)
			ctx.Request.Header.Set(HeaderUserID, claims.Subject)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(`{"status":"error","code":"UNAUTHORIZED","error":"missing or invalid token"}`)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}

// Expiry reports when the token stops being accepted.
func (c *SessionClaims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
