// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-layers/internal/history"
	"github.com/joeblew999/geo-layers/internal/humastar"
	"github.com/joeblew999/geo-layers/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Layer   *service.LayerService
	Map     *service.MapService
	Session *service.SessionService
	History *history.Store // nil when the history database is disabled
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"buildings"`
}

type SessionIDInput struct {
	ID string `path:"id" doc:"Editor session ID"`
}

type LayerOutput struct {
	Body service.LayerConfig
}

type LayersOutput struct {
	Body []service.LayerConfig
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type CreatedLayerBody struct {
	ID       string              `json:"id" doc:"Generated layer ID"`
	Layer    service.LayerConfig `json:"layer" doc:"Created layer configuration"`
	Attached bool                `json:"attached" doc:"Whether the layer was put on the map"`
	Message  string              `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type MapLayer struct {
	ID   string `json:"id" doc:"Layer ID"`
	Name string `json:"name" doc:"Layer display name"`
}

type MapBody struct {
	Layers []MapLayer `json:"layers" doc:"Attached layers in draw order, bottom first"`
	Extent []float64  `json:"extent,omitempty" doc:"Union of attached layer bounds as [minLon, minLat, maxLon, maxLat]"`
}

type SetMapLayersInput struct {
	Body service.MapState
}

type RowInput struct {
	SessionIDInput
	Body struct {
		Row int `json:"row" minimum:"0" doc:"Row index within the section"`
	}
}

type ReorderInput struct {
	SessionIDInput
	Body struct {
		From service.Position `json:"from" doc:"Row being dragged"`
		To   service.Position `json:"to" doc:"Proposed destination"`
	}
}

// SessionBody is an editor session snapshot. Its Link headers advertise the
// edits currently possible.
type SessionBody struct {
	service.SessionView
	Moved *bool `json:"moved,omitempty" doc:"For reorder: whether the rows were swapped"`
}

var sessionActions = []humastar.ActionDef{
	{Rel: "reorder", Pattern: "/api/v1/sessions/%s/reorder", Method: "POST", Title: "Swap two attached layers"},
	{Rel: "remove", Pattern: "/api/v1/sessions/%s/remove", Method: "POST", Title: "Take a layer off the map"},
	{Rel: "restore", Pattern: "/api/v1/sessions/%s/restore", Method: "POST", Title: "Put a removed layer back on top"},
	{Rel: "close", Pattern: "/api/v1/sessions/%s", Method: "DELETE", Title: "Close the editor"},
}

// Actions implements humastar.Actor.
func (b SessionBody) Actions() []humastar.Action {
	var skip []string
	if len(b.Operational) < 2 {
		skip = append(skip, "reorder")
	}
	if len(b.Operational) == 0 {
		skip = append(skip, "remove")
	}
	if len(b.Removed) == 0 {
		skip = append(skip, "restore")
	}
	return humastar.ActionsFor(b.ID, sessionActions, skip...)
}

type SessionOutput struct {
	Body SessionBody
}

type HistoryInput struct {
	Limit int `query:"limit" minimum:"0" default:"50" doc:"Maximum entries, 0 for all"`
}

type HistoryOutput struct {
	Body []history.Entry
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers layer CRUD routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.CreateLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}", h.PutLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
}

// RegisterMap registers map state routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/map/layers", h.PutMapLayers, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/history", h.GetHistory, huma.OperationTags("map"))
}

// RegisterSessions registers layer editor session routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Post(api, "/api/v1/sessions", h.OpenSession, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}", h.GetSession, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/reorder", h.ReorderLayers, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/remove", h.RemoveLayer, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/restore", h.RestoreLayer, huma.OperationTags("sessions"))
	huma.Delete(api, "/api/v1/sessions/{id}", h.CloseSession, huma.OperationTags("sessions"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	return &LayersOutput{Body: h.svc.Layer.List()}, nil
}

func (h *APIHandler) CreateLayer(ctx context.Context, input *struct{ Body service.LayerConfig }) (*struct{ Body CreatedLayerBody }, error) {
	created, err := h.svc.Layer.Create(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if created.DefaultVisible {
		if err := h.svc.Map.Attach(created.ID); err != nil {
			if derr := h.svc.Layer.Delete(created.ID); derr != nil {
				return nil, huma.Error500InternalServerError("Layer created but not attached", err, derr)
			}
			return nil, huma.Error500InternalServerError("Failed to attach layer", err)
		}
	}
	return &struct{ Body CreatedLayerBody }{Body: CreatedLayerBody{
		ID: created.ID, Layer: created, Attached: created.DefaultVisible, Message: "Layer created",
	}}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	layer, ok := h.svc.Layer.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: layer}, nil
}

func (h *APIHandler) PutLayer(ctx context.Context, input *struct {
	IDInput
	Body service.LayerConfig
}) (*LayerOutput, error) {
	updated, err := h.svc.Layer.Update(input.ID, input.Body)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &LayerOutput{Body: updated}, nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Layer.Delete(input.ID); err != nil {
		return nil, toHTTPError(err)
	}
	if err := h.svc.Map.Detach(input.ID); err != nil {
		return nil, huma.Error500InternalServerError("Failed to detach layer", err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body MapBody }, error) {
	return &struct{ Body MapBody }{Body: h.mapBody()}, nil
}

func (h *APIHandler) PutMapLayers(ctx context.Context, input *SetMapLayersInput) (*struct{ Body MapBody }, error) {
	if err := h.svc.Map.SetLayerIDs(input.Body.Layers); err != nil {
		if errors.Is(err, service.ErrLayerNotFound) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("Failed to save map", err)
	}
	return &struct{ Body MapBody }{Body: h.mapBody()}, nil
}

func (h *APIHandler) GetHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	if h.svc.History == nil {
		return nil, huma.Error503ServiceUnavailable("History database not available")
	}
	entries, err := h.svc.History.List(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read history", err)
	}
	return &HistoryOutput{Body: entries}, nil
}

func (h *APIHandler) OpenSession(ctx context.Context, input *struct{}) (*SessionOutput, error) {
	return sessionOutput(h.svc.Session.Open(), nil), nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	view, err := h.svc.Session.Get(input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return sessionOutput(view, nil), nil
}

func (h *APIHandler) ReorderLayers(ctx context.Context, input *ReorderInput) (*SessionOutput, error) {
	view, moved, err := h.svc.Session.Reorder(ctx, input.ID, input.Body.From, input.Body.To)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return sessionOutput(view, &moved), nil
}

func (h *APIHandler) RemoveLayer(ctx context.Context, input *RowInput) (*SessionOutput, error) {
	view, err := h.svc.Session.Remove(ctx, input.ID, input.Body.Row)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return sessionOutput(view, nil), nil
}

func (h *APIHandler) RestoreLayer(ctx context.Context, input *RowInput) (*SessionOutput, error) {
	view, err := h.svc.Session.Restore(ctx, input.ID, input.Body.Row)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return sessionOutput(view, nil), nil
}

func (h *APIHandler) CloseSession(ctx context.Context, input *SessionIDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Session.Close(input.ID); err != nil {
		return nil, toHTTPError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

func (h *APIHandler) mapBody() MapBody {
	body := MapBody{Layers: []MapLayer{}}
	for _, l := range h.svc.Map.Layers() {
		body.Layers = append(body.Layers, MapLayer{ID: l.ID, Name: l.Name})
	}
	if b, ok := h.svc.Map.Extent(); ok {
		body.Extent = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	return body
}

func sessionOutput(view service.SessionView, moved *bool) *SessionOutput {
	return &SessionOutput{Body: SessionBody{SessionView: view, Moved: moved}}
}

// toHTTPError maps service errors onto Huma status errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrLayerNotFound), errors.Is(err, service.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrRowOutOfRange):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	return huma.Error500InternalServerError("Internal error", err)
}
