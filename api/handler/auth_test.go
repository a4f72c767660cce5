package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/citydesk/api/transport"
	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/internal/middleware"
	authUC "github.com/fastygo/citydesk/usecase/auth"
)

type userTable map[string]domain.User

func (u userTable) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

type sessionTable struct {
	mu   sync.Mutex
	rows map[string]domain.Session
}

func (s *sessionTable) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *sessionTable) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[session.ID] = *session
	return nil
}

func (s *sessionTable) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *sessionTable) Extend(_ context.Context, id string, ttlSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.rows[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.ExpiresAt = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	s.rows[id] = session
	return nil
}

func newAuthHandler() (*AuthHandler, *middleware.TokenIssuer) {
	users := userTable{
		"emp-1": {ID: "emp-1", FullName: "John Employee", Role: domain.RoleEmployee, AssignedCategories: []string{"cat-1"}},
	}
	uc := authUC.New(users, &sessionTable{rows: map[string]domain.Session{}}, nil)
	tokens := middleware.NewTokenIssuer("secret", "citydesk")
	return NewAuthHandler(uc, tokens, nil, nil, time.Hour), tokens
}

func TestAuthHandler_SessionLifecycle(t *testing.T) {
	h, tokens := newAuthHandler()

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetBodyString(`{"user_id":"emp-1"}`)
	h.CreateSession(ctx)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())

	var resp struct {
		Data transport.SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Equal(t, "employee", resp.Data.Role)

	claims, err := tokens.Parse(resp.Data.Token)
	require.NoError(t, err)
	require.Equal(t, resp.Data.SessionID, claims.SessionID)

	actor, err := h.uc.CurrentActor(context.Background(), claims.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleEmployee, actor.Role())

	refresh := &fasthttp.RequestCtx{}
	refresh.Request.Header.Set(middleware.HeaderSessionID, claims.SessionID)
	refresh.Request.SetBodyString(`{"ttl_seconds":120}`)
	h.Refresh(refresh)
	require.Equal(t, http.StatusOK, refresh.Response.StatusCode())

	revoke := &fasthttp.RequestCtx{}
	revoke.Request.Header.Set(middleware.HeaderSessionID, claims.SessionID)
	h.Revoke(revoke)
	require.Equal(t, http.StatusNoContent, revoke.Response.StatusCode())

	again := &fasthttp.RequestCtx{}
	again.Request.Header.Set(middleware.HeaderSessionID, claims.SessionID)
	h.Refresh(again)
	require.Equal(t, http.StatusUnauthorized, again.Response.StatusCode())
}

func TestAuthHandler_CreateSessionRejects(t *testing.T) {
	h, _ := newAuthHandler()

	tests := map[string]struct {
		body   string
		status int
	}{
		"empty body":   {body: ``, status: http.StatusBadRequest},
		"missing user": {body: `{"ttl_seconds":60}`, status: http.StatusBadRequest},
		"ttl too long": {body: `{"user_id":"emp-1","ttl_seconds":9999999}`, status: http.StatusBadRequest},
		"unknown user": {body: `{"user_id":"ghost"}`, status: http.StatusNotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			ctx.Request.SetBodyString(tt.body)
			h.CreateSession(ctx)
			require.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}
