package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/geo-layers/internal/api"
	"github.com/joeblew999/geo-layers/internal/api/editor"
	"github.com/joeblew999/geo-layers/internal/db"
	"github.com/joeblew999/geo-layers/internal/history"
	"github.com/joeblew999/geo-layers/internal/humastar"
	"github.com/joeblew999/geo-layers/internal/service"
	"github.com/joeblew999/geo-layers/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // optional web/ directory for static files, pages and fragment overrides
	History bool   // record applied layer orders in DuckDB
}

// Server is the geo-layers HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	services *api.Services
	renderer *templates.Renderer
}

// New creates a new server.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("geo-layers API", "1.0.0")
	humaConfig.Info.Description = "Map layer management API: layer configuration, map draw order and layer editor sessions."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// No $schema property in responses
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers,
		api.LinkTransformer(),
		humastar.ActionTransformer(),
	)

	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()
	layers := service.NewLayerService(cfg.DataDir, bus)
	maps := service.NewMapService(cfg.DataDir, layers, bus)
	services := &api.Services{
		Layer:   layers,
		Map:     maps,
		Session: service.NewSessionService(maps, bus),
	}

	renderer := templates.Default()
	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err == nil {
			renderer = r
			fmt.Printf("Loaded fragment templates from %s\n", fragmentsDir)
		}
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		services: services,
		renderer: renderer,
	}

	if cfg.History {
		s.openHistory()
	}

	s.routes()
	return s
}

func (s *Server) openHistory() {
	conn, err := db.Open(db.Config{DataDir: s.config.DataDir, DBName: "layers"})
	if err != nil {
		log.Printf("history disabled: %v", err)
		return
	}
	store, err := history.New(context.Background(), conn)
	if err != nil {
		conn.Close()
		log.Printf("history disabled: %v", err)
		return
	}
	s.db = conn
	s.services.History = store
	s.services.Session.SetRecorder(store)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services, for surfaces outside HTTP such as the
// terminal editor.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.services.History != nil).RegisterRoutes(s.humaAPI)

	layerHandler := editor.NewLayerHandler(s.services.Layer, s.services.Map, s.renderer)
	layerHandler.RegisterRoutes(s.humaAPI)
	editor.NewSessionHandler(s.services.Session, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(layerHandler, s.bus).RegisterRoutes(s.humaAPI)

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/viewer", s.page("viewer.html"))
		s.mux.HandleFunc("/editor", s.page("editor.html"))
	}
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geo-layers",
		"status":  "running",
	})
}

func (s *Server) page(name string) http.HandlerFunc {
	templatePath := filepath.Join(s.config.WebDir, "templates", name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, templatePath)
	}
}
