package editor

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-layers/internal/humastar"
	"github.com/joeblew999/geo-layers/internal/service"
	"github.com/joeblew999/geo-layers/internal/templates"
)

// SessionHandler drives a layer editor session from the Datastar UI. Both
// sections are re-rendered after every edit.
type SessionHandler struct {
	humastar.Handler
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService, renderer *templates.Renderer) *SessionHandler {
	return &SessionHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
	}
}

func (h *SessionHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/editor/sessions", h.Open, huma.OperationTags("editor"))
	huma.Get(api, "/api/v1/editor/sessions/{id}", h.Show, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sessions/{id}/reorder", h.Reorder, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sessions/{id}/remove", h.Remove, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/sessions/{id}/restore", h.Restore, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/sessions/{id}", h.Close, huma.OperationTags("editor"))
}

type SessionInput struct {
	ID string `path:"id" doc:"Editor session ID"`
}

type SessionSignalsInput struct {
	SessionInput
	humastar.SignalsInput
}

func (h *SessionHandler) Open(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	view := h.sessions.Open()
	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"sessionid": view.ID})
		h.patch(sse, view)
	}), nil
}

func (h *SessionHandler) Show(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	view, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		h.patch(sse, view)
	}), nil
}

// Reorder reads the $from and $to row signals. Rows are operational unless
// $fromsection / $tosection say otherwise, so a drop onto the removed list
// collapses back onto its source.
func (h *SessionHandler) Reorder(ctx context.Context, input *SessionSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	from := service.Position{Section: service.Section(signals.Int("fromsection")), Row: signals.Int("from")}
	to := service.Position{Section: service.Section(signals.Int("tosection")), Row: signals.Int("to")}

	return h.Stream(func(sse humastar.SSE) {
		view, _, err := h.sessions.Reorder(ctx, input.ID, from, to)
		h.respond(sse, view, err)
	}), nil
}

func (h *SessionHandler) Remove(ctx context.Context, input *SessionSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		view, err := h.sessions.Remove(ctx, input.ID, signals.Int("row"))
		h.respond(sse, view, err)
	}), nil
}

func (h *SessionHandler) Restore(ctx context.Context, input *SessionSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		view, err := h.sessions.Restore(ctx, input.ID, signals.Int("row"))
		h.respond(sse, view, err)
	}), nil
}

func (h *SessionHandler) Close(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.sessions.Close(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{"sessionid": ""})
		sse.Patch("", "#operational-list")
		sse.Patch("", "#removed-list")
	}), nil
}

func (h *SessionHandler) respond(sse humastar.SSE, view service.SessionView, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		sse.Error("Editor session has expired, reopen the editor")
	case err != nil:
		sse.Error(err.Error())
	default:
		h.patch(sse, view)
	}
}

// RowData feeds the layer-row fragment.
type RowData struct {
	SessionID string
	Section   string
	Index     int
	Name      string
	Last      bool
}

func (h *SessionHandler) patch(sse humastar.SSE, view service.SessionView) {
	sse.Patch(h.renderRows(view.ID, service.SectionOperational, view.Operational,
		"No layers on the map", "Restore a removed layer"), "#operational-list")
	sse.Patch(h.renderRows(view.ID, service.SectionRemoved, view.Removed,
		"Nothing removed", "Removed layers appear here"), "#removed-list")
}

func (h *SessionHandler) renderRows(sessionID string, section service.Section, rows []service.Row, emptyTitle, emptyMsg string) string {
	items := make([]any, 0, len(rows))
	for _, r := range rows {
		items = append(items, RowData{
			SessionID: sessionID,
			Section:   section.String(),
			Index:     r.Index,
			Name:      r.Name,
			Last:      r.Index == len(rows)-1,
		})
	}
	return h.RenderList("layer-row", items, emptyTitle, emptyMsg)
}
