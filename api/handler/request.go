package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/citydesk/api/transport"
	"github.com/fastygo/citydesk/domain"
	"github.com/fastygo/citydesk/pkg/httpcontext"
	"github.com/fastygo/citydesk/usecase/lifecycle"
	requestsUC "github.com/fastygo/citydesk/usecase/requests"
	"github.com/fastygo/citydesk/usecase/visibility"
)

type RequestHandler struct {
	baseHandler
	uc     *requestsUC.UseCase
	actors ActorResolver
	now    func() time.Time
}

func NewRequestHandler(uc *requestsUC.UseCase, actors ActorResolver, adapter *httpcontext.Adapter, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		actors:      actors,
		now:         time.Now,
	}
}

func (h *RequestHandler) summaries(requests []*domain.Request) []transport.RequestSummary {
	now := h.now()
	return lo.Map(requests, func(req *domain.Request, _ int) transport.RequestSummary {
		return transport.NewRequestSummary(req, now)
	})
}

// @Summary List visible requests, newest first
// @Tags requests
// @Router /api/v1/requests [get]
func (h *RequestHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	items := h.summaries(h.uc.ListRequests(stdCtx, actor))
	h.respondList(ctx, items, transport.ListMeta{Count: len(items)})
}

// @Summary Fetch one request with its conversation
// @Tags requests
// @Router /api/v1/requests/{id} [get]
func (h *RequestHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	req, err := h.uc.GetRequest(stdCtx, actor, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, req)
}

// @Summary Visible requests grouped by category
// @Tags requests
// @Router /api/v1/requests/grouped [get]
func (h *RequestHandler) Grouped(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	groups := lo.Map(h.uc.Grouped(stdCtx, actor), func(g visibility.CategoryGroup, _ int) transport.GroupResponse {
		return transport.GroupResponse{Category: g.Category, Requests: h.summaries(g.Requests)}
	})
	h.respondList(ctx, groups, transport.ListMeta{Count: len(groups)})
}

// @Summary Dashboard counters over visible requests
// @Tags requests
// @Router /api/v1/requests/summary [get]
func (h *RequestHandler) Summary(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.Summary(stdCtx, actor))
}

// @Summary Submit a new request
// @Tags requests
// @Router /api/v1/requests [post]
func (h *RequestHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	var body transport.CreateRequestRequest
	if err := transport.Decode(ctx.PostBody(), &body); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	req, err := h.uc.CreateRequest(stdCtx, actor, lifecycle.CreateInput{
		CategoryID: body.CategoryID,
		Subject:    body.Subject,
		Message:    body.Message,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, req)
}

// @Summary Append a message to a request's conversation
// @Tags requests
// @Router /api/v1/requests/{id}/messages [post]
func (h *RequestHandler) SendMessage(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	var body transport.SendMessageRequest
	if err := transport.Decode(ctx.PostBody(), &body); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	msg, err := h.uc.SendMessage(stdCtx, actor, pathParam(ctx, "id"), body.Content)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, msg)
}

// @Summary Close a request
// @Tags requests
// @Router /api/v1/requests/{id}/close [post]
func (h *RequestHandler) Close(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	req, err := h.uc.CloseRequest(stdCtx, actor, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, req)
}

// @Summary Mark messages of a request as read
// @Tags requests
// @Router /api/v1/requests/{id}/read [post]
func (h *RequestHandler) MarkRead(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	var body transport.MarkReadRequest
	if err := transport.Decode(ctx.PostBody(), &body); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	marked, err := h.uc.MarkRead(stdCtx, actor, pathParam(ctx, "id"), body.MessageIDs)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.MarkReadResponse{Marked: marked})
}

// @Summary Exported event history of a request
// @Tags requests
// @Router /api/v1/requests/{id}/events [get]
func (h *RequestHandler) Events(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)
	events, err := h.uc.History(stdCtx, actor, pathParam(ctx, "id"), limit, offset)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, events, transport.ListMeta{Count: len(events), Limit: limit, Offset: offset})
}

// @Summary Unread badge of the current actor
// @Tags requests
// @Router /api/v1/unread [get]
func (h *RequestHandler) Unread(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	resp := transport.UnreadResponse{}
	if count, applicable := h.uc.UnreadCount(stdCtx, actor); applicable {
		resp.Applicable = true
		resp.Count = &count
	}
	h.respondSuccess(ctx, http.StatusOK, resp)
}

// @Summary Select or clear the request shown in the chat window
// @Tags focus
// @Router /api/v1/focus [put]
func (h *RequestHandler) SetFocus(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	var body transport.FocusRequest
	if err := transport.Decode(ctx.PostBody(), &body); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if err := h.uc.SetFocus(stdCtx, actor, body.RequestID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondFocus(ctx, stdCtx, actor)
}

// @Summary Current state of the focused request
// @Tags focus
// @Router /api/v1/focus [get]
func (h *RequestHandler) Focus(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.resolveActor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}
	h.respondFocus(ctx, stdCtx, actor)
}

func (h *RequestHandler) respondFocus(ctx *fasthttp.RequestCtx, stdCtx context.Context, actor domain.Actor) {
	req, ok := h.uc.Focused(stdCtx, actor)
	if !ok {
		ctx.SetStatusCode(http.StatusNoContent)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, req)
}

// @Summary Category catalog
// @Tags categories
// @Router /api/v1/categories [get]
func (h *RequestHandler) Categories(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	categories := h.uc.Categories(stdCtx)
	h.respondList(ctx, categories, transport.ListMeta{Count: len(categories)})
}
