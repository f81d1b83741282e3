package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-layers/internal/humastar"
	"github.com/joeblew999/geo-layers/internal/service"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
type EventHandler struct {
	layers *LayerHandler
	bus    *service.EventBus
}

// NewEventHandler creates an event handler that re-renders the layer list
// through layers.
func NewEventHandler(layers *LayerHandler, bus *service.EventBus) *EventHandler {
	return &EventHandler{layers: layers, bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					switch ev.Resource {
					case service.ResourceLayers, service.ResourceMap:
						sse.Patch(h.layers.renderLayerList(), "#layer-list")
					}
					detail := map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					}
					if ev.Resource == service.ResourceMap {
						detail["layers"] = ev.Layers
					}
					sse.DispatchCustomEvent("resource-changed", detail)
				}
			}
		},
	}, nil
}
