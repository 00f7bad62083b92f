package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Snapshot is the renderable part of a panel document: the tab tree and the
// active tab. History stacks store Snapshots, never whole PanelStates, so a
// stack can never contain another stack.
//
// An empty ActiveTabID means no tab is active and is encoded as JSON null.
type Snapshot struct {
	Tabs        []Tab
	ActiveTabID string
}

// PanelState is the full document: the current snapshot plus its history.
// Returned to renderers and to MCP clients.
type PanelState struct {
	Tabs        []Tab
	ActiveTabID string
	UndoStack   []Snapshot
	RedoStack   []Snapshot
}

// NewPanelState returns the empty document.
func NewPanelState() PanelState {
	return PanelState{Tabs: []Tab{}, UndoStack: []Snapshot{}, RedoStack: []Snapshot{}}
}

// Snapshot returns a deep copy of the current tab tree and active tab.
func (s PanelState) Snapshot() Snapshot {
	return Snapshot{Tabs: s.Tabs, ActiveTabID: s.ActiveTabID}.Clone()
}

// Clone deep-copies the current tree. Stack entries are shared: they are
// never mutated once pushed, only replaced.
func (s PanelState) Clone() PanelState {
	cur := s.Snapshot()
	return PanelState{
		Tabs:        cur.Tabs,
		ActiveTabID: cur.ActiveTabID,
		UndoStack:   append([]Snapshot{}, s.UndoStack...),
		RedoStack:   append([]Snapshot{}, s.RedoStack...),
	}
}

// DeepClone copies everything, history included. Used for snapshots handed
// out to code outside the store.
func (s PanelState) DeepClone() PanelState {
	out := s.Clone()
	for i := range out.UndoStack {
		out.UndoStack[i] = out.UndoStack[i].Clone()
	}
	for i := range out.RedoStack {
		out.RedoStack[i] = out.RedoStack[i].Clone()
	}
	return out
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Tabs: make([]Tab, len(s.Tabs)), ActiveTabID: s.ActiveTabID}
	for i, t := range s.Tabs {
		out.Tabs[i] = t.Clone()
	}
	return out
}

// Equal reports whether two snapshots describe the same tree. Nil and empty
// collections compare equal.
func (s Snapshot) Equal(other Snapshot) bool {
	return reflect.DeepEqual(s.Clone(), other.Clone())
}

// TabIndex returns the position of the tab with the given id, or -1.
func (s *Snapshot) TabIndex(tabID string) int {
	for i := range s.Tabs {
		if s.Tabs[i].ID == tabID {
			return i
		}
	}
	return -1
}

// HasTab reports whether a tab with the given id exists.
func (s *Snapshot) HasTab(tabID string) bool {
	return s.TabIndex(tabID) >= 0
}

type snapshotJSON struct {
	Tabs        []Tab   `json:"tabs"`
	ActiveTabID *string `json:"activeTabId"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{Tabs: nonNilTabs(s.Tabs), ActiveTabID: nullable(s.ActiveTabID)})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	s.Tabs = nonNilTabs(raw.Tabs)
	s.ActiveTabID = ""
	if raw.ActiveTabID != nil {
		s.ActiveTabID = *raw.ActiveTabID
	}
	return nil
}

func (s PanelState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tabs        []Tab      `json:"tabs"`
		ActiveTabID *string    `json:"activeTabId"`
		UndoStack   []Snapshot `json:"undoStack"`
		RedoStack   []Snapshot `json:"redoStack"`
	}{
		Tabs:        nonNilTabs(s.Tabs),
		ActiveTabID: nullable(s.ActiveTabID),
		UndoStack:   append([]Snapshot{}, s.UndoStack...),
		RedoStack:   append([]Snapshot{}, s.RedoStack...),
	})
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nonNilTabs(tabs []Tab) []Tab {
	if tabs == nil {
		return []Tab{}
	}
	return tabs
}
