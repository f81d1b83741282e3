// Package editor contains Datastar SSE handlers for the editor UI.
package editor

import (
	"context"
	"fmt"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-layers/internal/humastar"
	"github.com/joeblew999/geo-layers/internal/service"
	"github.com/joeblew999/geo-layers/internal/templates"
)

type LayerHandler struct {
	humastar.Handler
	layerService *service.LayerService
	mapService   *service.MapService
}

func NewLayerHandler(layerService *service.LayerService, mapService *service.MapService, renderer *templates.Renderer) *LayerHandler {
	return &LayerHandler{
		Handler:      humastar.Handler{Renderer: renderer},
		layerService: layerService,
		mapService:   mapService,
	}
}

func (h *LayerHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/layers", h.ListLayers, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/layers", h.CreateLayer, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/layers/{id}", h.DeleteLayer, huma.OperationTags("editor"))
}

func (h *LayerHandler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayerList(), "#layer-list")
	}), nil
}

func (h *LayerHandler) CreateLayer(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	config := parseLayerSignals(signals)

	if config.Name == "" {
		return nil, huma.Error400BadRequest("Layer name is required")
	}
	if config.File == "" {
		return nil, huma.Error400BadRequest("Tile source is required")
	}
	if config.GeomType == "" {
		return nil, huma.Error400BadRequest("Geometry type is required")
	}

	return h.Stream(func(sse humastar.SSE) {
		created, err := h.layerService.Create(config)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		if created.DefaultVisible {
			if err := h.mapService.Attach(created.ID); err != nil {
				h.layerService.Delete(created.ID)
				sse.Error(fmt.Sprintf("Layer '%s' not created: %v", created.Name, err))
				return
			}
		}

		sse.Signals(map[string]any{
			"layername": "", "layerfile": "", "layergeomtype": "polygon",
			"success": fmt.Sprintf("Layer '%s' created", created.Name),
		})
		sse.Patch(h.renderLayerList(), "#layer-list")
		sse.DispatchCustomEvent("layer-changed", map[string]any{
			"action": "created", "id": created.ID, "name": created.Name,
		})
	}), nil
}

type DeleteLayerInput struct {
	ID string `path:"id" doc:"Layer ID to delete"`
}

func (h *LayerHandler) DeleteLayer(ctx context.Context, input *DeleteLayerInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.layerService.Delete(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		if err := h.mapService.Detach(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}

		sse.RemoveElementByID("layer-" + input.ID)
		sse.Success("Layer deleted")
		sse.DispatchCustomEvent("layer-changed", map[string]any{
			"action": "deleted", "id": input.ID,
		})
	}), nil
}

type LayerCardData struct {
	ID       string
	Name     string
	File     string
	GeomType string
	Attached bool
}

func (h *LayerHandler) renderLayerList() string {
	attached := h.mapService.State().Layers
	var items []any
	for _, layer := range h.layerService.List() {
		items = append(items, LayerCardData{
			ID: layer.ID, Name: layer.Name, File: layer.File,
			GeomType: layer.GeomType, Attached: slices.Contains(attached, layer.ID),
		})
	}
	return h.RenderList("layer-card", items, "No layers configured", "Add a layer to get started")
}

// parseLayerSignals reads the new-layer form. Datastar lowercases bound
// signal names.
func parseLayerSignals(s humastar.Signals) service.LayerConfig {
	cfg := service.LayerConfig{
		Name:           s.String("layername"),
		File:           s.String("layerfile"),
		GeomType:       s.String("layergeomtype"),
		Fill:           s.String("layerfill"),
		Stroke:         s.String("layerstroke"),
		Opacity:        s.Float("layeropacity"),
		DefaultVisible: true,
	}
	if s.Has("layervisible") {
		cfg.DefaultVisible = s.Bool("layervisible")
	}
	return cfg
}
