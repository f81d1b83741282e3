package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrLayerNotFound is returned when a layer ID is not configured.
var ErrLayerNotFound = errors.New("layer not found")

// LayerService manages layer configurations, persisted as layers.json.
type LayerService struct {
	dataDir string
	bus     *EventBus
	layers  map[string]LayerConfig
	mu      sync.RWMutex
}

// NewLayerService loads layer configurations from dataDir. bus may be nil.
func NewLayerService(dataDir string, bus *EventBus) *LayerService {
	s := &LayerService{
		dataDir: dataDir,
		bus:     bus,
		layers:  make(map[string]LayerConfig),
	}
	s.loadFromDisk()
	return s
}

// List returns all layer configurations ordered by name.
func (s *LayerService) List() []LayerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]LayerConfig, 0, len(s.layers))
	for _, v := range s.layers {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (LayerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	return layer, ok
}

// Resolve looks up layers by ID, keeping the order of ids.
func (s *LayerService) Resolve(ids []string) ([]LayerConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]LayerConfig, 0, len(ids))
	for _, id := range ids {
		layer, ok := s.layers[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
		}
		result = append(result, layer)
	}
	return result, nil
}

// Create adds a new layer configuration.
func (s *LayerService) Create(layer LayerConfig) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if layer.ID == "" {
		layer.ID = generateID(layer.Name)
	}
	if layer.ID == "" {
		return LayerConfig{}, fmt.Errorf("layer name %q yields an empty ID", layer.Name)
	}
	if _, exists := s.layers[layer.ID]; exists {
		return LayerConfig{}, fmt.Errorf("layer with ID %q already exists", layer.ID)
	}

	s.layers[layer.ID] = layer
	if err := s.saveToDisk(); err != nil {
		delete(s.layers, layer.ID)
		return LayerConfig{}, err
	}

	s.publish("created", layer.ID)
	return layer, nil
}

// Update replaces a layer configuration by ID.
func (s *LayerService) Update(id string, layer LayerConfig) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layers[id]; !exists {
		return LayerConfig{}, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}

	layer.ID = id
	s.layers[id] = layer
	if err := s.saveToDisk(); err != nil {
		return LayerConfig{}, err
	}

	s.publish("updated", id)
	return layer, nil
}

// Delete removes a layer by ID.
func (s *LayerService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.layers[id]; !exists {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}

	delete(s.layers, id)
	if err := s.saveToDisk(); err != nil {
		return err
	}

	s.publish("deleted", id)
	return nil
}

func (s *LayerService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: ResourceLayers, Action: action, ID: id})
	}
}

func (s *LayerService) configFile() string {
	return filepath.Join(s.dataDir, "layers.json")
}

func (s *LayerService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return // not created yet
	}

	var layers map[string]LayerConfig
	if err := json.Unmarshal(data, &layers); err != nil {
		return
	}

	s.layers = layers
}

func (s *LayerService) saveToDisk() error {
	return writeJSON(s.dataDir, s.configFile(), s.layers)
}

// writeJSON writes v to path, creating dir first.
func writeJSON(dir, path string, v any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
