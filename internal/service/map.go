package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/paulmach/orb"
)

// MapService owns the map's attached layer list, persisted as map.json.
// Editor sessions replace this list wholesale through SetLayers.
type MapService struct {
	dataDir string
	layers  *LayerService
	bus     *EventBus
	state   MapState
	mu      sync.RWMutex
}

// NewMapService loads the map state from dataDir. bus may be nil.
func NewMapService(dataDir string, layers *LayerService, bus *EventBus) *MapService {
	s := &MapService{
		dataDir: dataDir,
		layers:  layers,
		bus:     bus,
		state:   MapState{Layers: []string{}},
	}
	s.loadFromDisk()
	return s
}

// State returns the attached layer IDs in draw order.
func (s *MapService) State() MapState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MapState{Layers: slices.Clone(s.state.Layers)}
}

// Layers returns the attached layers in draw order. IDs whose layer has
// since been deleted are skipped.
func (s *MapService) Layers() []LayerConfig {
	ids := s.State().Layers
	result := make([]LayerConfig, 0, len(ids))
	for _, id := range ids {
		if layer, ok := s.layers.Get(id); ok {
			result = append(result, layer)
		}
	}
	return result
}

// SetLayers replaces the attached layer list with drawOrder verbatim.
func (s *MapService) SetLayers(drawOrder []LayerConfig) error {
	ids := layerIDs(drawOrder)
	_, err := s.update("reordered", func([]string) ([]string, bool) {
		return ids, true
	})
	return err
}

// SetLayerIDs replaces the attached layer list, rejecting unknown IDs.
func (s *MapService) SetLayerIDs(ids []string) error {
	if _, err := s.layers.Resolve(ids); err != nil {
		return err
	}
	ids = slices.Clone(ids)
	_, err := s.update("reordered", func([]string) ([]string, bool) {
		return ids, true
	})
	return err
}

// Apply writes an editor's draw order. known holds every layer ID the
// editor has in either list: attached layers outside it were put on the map
// by someone else and stay on top, while layers deleted from the store are
// dropped. It returns the IDs written.
func (s *MapService) Apply(drawOrder []LayerConfig, known []string) ([]string, error) {
	return s.update("reordered", func(current []string) ([]string, bool) {
		ids := make([]string, 0, len(drawOrder))
		for _, l := range drawOrder {
			if _, ok := s.layers.Get(l.ID); ok {
				ids = append(ids, l.ID)
			}
		}
		for _, id := range current {
			if slices.Contains(known, id) || slices.Contains(ids, id) {
				continue
			}
			if _, ok := s.layers.Get(id); ok {
				ids = append(ids, id)
			}
		}
		return ids, true
	})
}

// Attach puts a layer on top of the map. Already attached layers are left
// where they are.
func (s *MapService) Attach(id string) error {
	_, err := s.update("attached", func(ids []string) ([]string, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		return append(ids, id), true
	})
	return err
}

// Detach takes a layer off the map.
func (s *MapService) Detach(id string) error {
	_, err := s.update("detached", func(ids []string) ([]string, bool) {
		i := slices.Index(ids, id)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	})
	return err
}

// Extent returns the union of the attached layers' bounds.
func (s *MapService) Extent() (orb.Bound, bool) {
	var (
		extent orb.Bound
		found  bool
	)
	for _, l := range s.Layers() {
		b, ok := l.Bound()
		if !ok {
			continue
		}
		if !found {
			extent, found = b, true
			continue
		}
		extent = extent.Union(b)
	}
	return extent, found
}

// update runs edit on a copy of the attached IDs and persists the result
// when edit reports a change. The lock is held from read to publish, so
// subscribers see changes in the order they were saved.
func (s *MapService) update(action string, edit func(ids []string) ([]string, bool)) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, changed := edit(slices.Clone(s.state.Layers))
	if !changed {
		return slices.Clone(s.state.Layers), nil
	}
	next := MapState{Layers: ids}
	if err := writeJSON(s.dataDir, s.stateFile(), next); err != nil {
		return nil, err
	}
	s.state = next

	if s.bus != nil {
		s.bus.Publish(Event{Resource: ResourceMap, Action: action, Layers: slices.Clone(ids)})
	}
	return slices.Clone(ids), nil
}

func layerIDs(layers []LayerConfig) []string {
	ids := make([]string, len(layers))
	for i, l := range layers {
		ids[i] = l.ID
	}
	return ids
}

func (s *MapService) stateFile() string {
	return filepath.Join(s.dataDir, "map.json")
}

func (s *MapService) loadFromDisk() {
	data, err := os.ReadFile(s.stateFile())
	if err != nil {
		return
	}

	var state MapState
	if err := json.Unmarshal(data, &state); err != nil || state.Layers == nil {
		return
	}

	s.state = state
}
