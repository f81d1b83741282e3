package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for unknown or closed session IDs.
	ErrSessionNotFound = errors.New("editor session not found")
	// ErrRowOutOfRange is returned when a row index is outside its section.
	ErrRowOutOfRange = errors.New("row out of range")
)

// Recorder receives every draw order an editor session applies to the map.
type Recorder interface {
	Record(ctx context.Context, sessionID string, drawOrder []string) error
}

// SessionView is a snapshot of both sections of an editor session.
type SessionView struct {
	ID          string `json:"id" doc:"Session ID"`
	Operational []Row  `json:"operational" doc:"Attached layers, topmost first"`
	Removed     []Row  `json:"removed" doc:"Detached layers in removal order"`
}

// session is one open editing surface. Its editor is only touched with mu
// held.
type session struct {
	id      string
	mu      sync.Mutex
	editor  *LayerEditor[LayerConfig]
	pending []LayerConfig
	changed bool
}

func (s *session) view() SessionView {
	return SessionView{
		ID:          s.id,
		Operational: s.editor.List(SectionOperational),
		Removed:     s.editor.List(SectionRemoved),
	}
}

// SessionService keeps the open layer editors. Each session is seeded from
// the map's attached layers and writes every change straight back to it.
type SessionService struct {
	maps     *MapService
	bus      *EventBus
	recorder Recorder

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionService creates a session service editing maps. bus may be nil.
func NewSessionService(maps *MapService, bus *EventBus) *SessionService {
	return &SessionService{
		maps:     maps,
		bus:      bus,
		sessions: make(map[string]*session),
	}
}

// SetRecorder installs a recorder for applied draw orders.
func (s *SessionService) SetRecorder(r Recorder) {
	s.recorder = r
}

// Open starts a session over the map's current layers.
func (s *SessionService) Open() SessionView {
	sess := &session{id: uuid.NewString()}
	sess.editor = NewLayerEditor(s.maps.Layers(), func(drawOrder []LayerConfig) {
		sess.pending = drawOrder
		sess.changed = true
	})

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.publish("created", sess.id)
	return sess.view()
}

// Get returns a snapshot of a session.
func (s *SessionService) Get(id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.sync(sess)
	return sess.view(), nil
}

// IDs returns the open session IDs.
func (s *SessionService) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Reorder swaps two operational rows. moved is false when the move was
// clamped onto its source row.
func (s *SessionService) Reorder(ctx context.Context, id string, from, to Position) (view SessionView, moved bool, err error) {
	view, err = s.apply(ctx, id, func(e *LayerEditor[LayerConfig]) error {
		if err := checkRow(e, from); err != nil {
			return err
		}
		if to.Section == from.Section {
			if err := checkRow(e, to); err != nil {
				return err
			}
		}
		moved = e.Reorder(from, to)
		return nil
	})
	return view, moved, err
}

// Remove detaches an operational row.
func (s *SessionService) Remove(ctx context.Context, id string, row int) (SessionView, error) {
	return s.apply(ctx, id, func(e *LayerEditor[LayerConfig]) error {
		if err := checkRow(e, Position{Section: SectionOperational, Row: row}); err != nil {
			return err
		}
		e.Remove(row)
		return nil
	})
}

// Restore puts a removed row back on top of the map.
func (s *SessionService) Restore(ctx context.Context, id string, row int) (SessionView, error) {
	return s.apply(ctx, id, func(e *LayerEditor[LayerConfig]) error {
		if err := checkRow(e, Position{Section: SectionRemoved, Row: row}); err != nil {
			return err
		}
		e.Restore(row)
		return nil
	})
}

// Close discards a session. The map keeps whatever the session applied.
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	s.publish("deleted", id)
	return nil
}

func (s *SessionService) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return sess, nil
}

// apply runs edit against a session's editor and, if the editor reported a
// change, writes the new draw order to the map and the recorder. Either way
// the session then catches up with layers created or deleted elsewhere.
func (s *SessionService) apply(ctx context.Context, id string, edit func(*LayerEditor[LayerConfig]) error) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pending, sess.changed = nil, false
	if err := edit(sess.editor); err != nil {
		return SessionView{}, err
	}
	if !sess.changed {
		s.sync(sess)
		return sess.view(), nil
	}

	known := append(layerIDs(sess.editor.Operational()), layerIDs(sess.editor.Removed())...)
	applied, err := s.maps.Apply(sess.pending, known)
	if err != nil {
		return SessionView{}, fmt.Errorf("apply layer order: %w", err)
	}
	s.sync(sess)
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, sess.id, applied); err != nil {
			return SessionView{}, fmt.Errorf("record layer order: %w", err)
		}
	}
	return sess.view(), nil
}

// sync drops layers deleted from the store since the session last looked
// and adds layers attached by someone else on top. Other layers keep their
// place in the session, even if another session moved them. Caller holds
// sess.mu.
func (s *SessionService) sync(sess *session) {
	known := make(map[string]bool)
	current := func(layers []LayerConfig) []LayerConfig {
		out := make([]LayerConfig, 0, len(layers))
		for _, l := range layers {
			known[l.ID] = true
			if cur, ok := s.maps.layers.Get(l.ID); ok {
				out = append(out, cur)
			}
		}
		return out
	}
	operational := current(sess.editor.Operational())
	removed := current(sess.editor.Removed())
	for _, l := range s.maps.Layers() {
		if !known[l.ID] {
			operational = append(operational, l)
		}
	}
	sess.editor.reset(operational, removed)
}

func (s *SessionService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: ResourceSessions, Action: action, ID: id})
	}
}

func checkRow[L Named](e *LayerEditor[L], pos Position) error {
	if pos.Row < 0 || pos.Row >= e.Count(pos.Section) {
		return fmt.Errorf("%w: %s row %d of %d", ErrRowOutOfRange, pos.Section, pos.Row, e.Count(pos.Section))
	}
	return nil
}
