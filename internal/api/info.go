package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir string
	history bool
}

func NewInfoHandler(dataDir string, history bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, history: history}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	History  bool     `json:"history" doc:"Whether the layer order history is recorded"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"layers", "map", "layer-editor", "sse"}
	if h.history {
		features = append(features, "history")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "geo-layers",
		Version:  "0.1.0",
		DataDir:  h.dataDir,
		History:  h.history,
		Features: features,
	}}, nil
}
