package service

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"panels/internal/action"
	"panels/internal/domain"
	"panels/internal/engine"
)

// ─────────────────────────────────────────────────────────────
// Panel Store
// ─────────────────────────────────────────────────────────────

const (
	EventStateChanged = "panel:state-changed"
	EventResync       = "panel:resync"
)

// StateChangedEvent is published after every action that changed the document.
type StateChangedEvent struct {
	ID       string          `json:"id"`
	Action   action.Kind     `json:"action"`
	Snapshot domain.Snapshot `json:"snapshot"`
	CanUndo  bool            `json:"canUndo"`
	CanRedo  bool            `json:"canRedo"`
}

// PanelStore holds the current document and is its only mutator. Every
// command builds one action and runs it through the engine; concurrent
// callers are serialized. Readers only ever receive copies.
type PanelStore struct {
	mu      sync.Mutex
	ctx     context.Context
	engine  *engine.Engine
	state   domain.PanelState
	emitter EventEmitter
	debug   bool
}

// NewPanelStore creates a store holding an empty document. maxDepth caps
// each history stack (<= 0 for unbounded).
func NewPanelStore(ctx context.Context, maxDepth int, emitter EventEmitter) *PanelStore {
	return &PanelStore{
		ctx:     ctx,
		engine:  engine.New(maxDepth),
		state:   domain.NewPanelState(),
		emitter: emitter,
	}
}

// SetDebug enables logging of actions that did not change the document.
func (s *PanelStore) SetDebug(debug bool) {
	s.mu.Lock()
	s.debug = debug
	s.mu.Unlock()
}

// ── Commands ───────────────────────────────────────────────

func (s *PanelStore) AddTab(tab domain.Tab) { s.apply(action.AddTab{Tab: tab}) }

func (s *PanelStore) RemoveTab(tabID string) { s.apply(action.RemoveTab{TabID: tabID}) }

func (s *PanelStore) RenameTab(tabID, title string) {
	s.apply(action.RenameTab{TabID: tabID, Title: title})
}

func (s *PanelStore) ReorderTabs(tabIDs []string) { s.apply(action.ReorderTabs{TabIDs: tabIDs}) }

func (s *PanelStore) SwitchTab(tabID string) { s.apply(action.SwitchTab{TabID: tabID}) }

func (s *PanelStore) AddZone(tabID string, zone domain.Zone) {
	s.apply(action.AddZone{TabID: tabID, Zone: zone})
}

func (s *PanelStore) RemoveZone(tabID, zoneID string) {
	s.apply(action.RemoveZone{TabID: tabID, ZoneID: zoneID})
}

func (s *PanelStore) ReorderZones(tabID string, zoneIDs []string) {
	s.apply(action.ReorderZones{TabID: tabID, ZoneIDs: zoneIDs})
}

func (s *PanelStore) AddComponent(tabID, zoneID string, component domain.Component) {
	s.apply(action.AddComponent{TabID: tabID, ZoneID: zoneID, Component: component})
}

func (s *PanelStore) RemoveComponent(tabID, zoneID, componentID string) {
	s.apply(action.RemoveComponent{TabID: tabID, ZoneID: zoneID, ComponentID: componentID})
}

// UpdateComponent replaces the component's type and/or props. Pass nil to
// leave a field untouched.
func (s *PanelStore) UpdateComponent(tabID, zoneID, componentID string, componentType *string, props map[string]any) {
	s.apply(action.UpdateComponent{
		TabID:       tabID,
		ZoneID:      zoneID,
		ComponentID: componentID,
		Type:        componentType,
		Props:       props,
	})
}

func (s *PanelStore) ReorderComponents(tabID, zoneID string, componentIDs []string) {
	s.apply(action.ReorderComponents{TabID: tabID, ZoneID: zoneID, ComponentIDs: componentIDs})
}

func (s *PanelStore) SetPanelState(state domain.Snapshot) { s.apply(action.SetPanelState{State: state}) }

func (s *PanelStore) Undo() { s.apply(action.Undo{}) }

func (s *PanelStore) Redo() { s.apply(action.Redo{}) }

// ── Message intake ─────────────────────────────────────────

// Dispatch applies each action in order as its own transition and returns
// how many of them changed the document.
func (s *PanelStore) Dispatch(actions ...action.Action) int {
	applied := 0
	for _, a := range actions {
		if s.apply(a) {
			applied++
		}
	}
	return applied
}

// HandleMessage parses one inbound message and dispatches its actions.
// ok is false when the message carried no panel action.
func (s *PanelStore) HandleMessage(raw any) (applied int, ok bool) {
	actions := action.Parse(raw)
	if actions == nil {
		return 0, false
	}
	return s.Dispatch(actions...), true
}

// ── Reads ──────────────────────────────────────────────────

// State returns a deep copy of the whole document, history included.
func (s *PanelStore) State() domain.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DeepClone()
}

// Snapshot returns a copy of the current tab tree.
func (s *PanelStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *PanelStore) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.CanUndo(s.state)
}

func (s *PanelStore) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.CanRedo(s.state)
}

// Republish sends the current tree to every observer, for renderers that
// may have missed incremental events.
func (s *PanelStore) Republish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitter.Emit(s.ctx, EventResync, s.state.Snapshot())
}

// apply runs one action and publishes the result while still holding the
// lock, so observers see changes in the order they were made.
func (s *PanelStore) apply(a action.Action) bool {
	if a == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := s.engine.Step(s.state, a)
	if !changed {
		if s.debug {
			log.Printf("panel: %s left the document unchanged", a.Kind())
		}
		return false
	}
	s.state = next
	s.emitter.Emit(s.ctx, EventStateChanged, StateChangedEvent{
		ID:       uuid.New().String(),
		Action:   a.Kind(),
		Snapshot: next.Snapshot(),
		CanUndo:  engine.CanUndo(next),
		CanRedo:  engine.CanRedo(next),
	})
	return true
}
