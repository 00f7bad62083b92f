// Package action defines the panel action vocabulary and recovers validated
// actions from loosely shaped inbound messages.
package action

import "panels/internal/domain"

// Kind is the discriminator carried in the "action" field of every action.
type Kind string

const (
	KindAddTab            Kind = "addTab"
	KindRemoveTab         Kind = "removeTab"
	KindRenameTab         Kind = "renameTab"
	KindReorderTabs       Kind = "reorderTabs"
	KindSwitchTab         Kind = "switchTab"
	KindAddZone           Kind = "addZone"
	KindRemoveZone        Kind = "removeZone"
	KindReorderZones      Kind = "reorderZones"
	KindAddComponent      Kind = "addComponent"
	KindRemoveComponent   Kind = "removeComponent"
	KindUpdateComponent   Kind = "updateComponent"
	KindReorderComponents Kind = "reorderComponents"
	KindSetPanelState     Kind = "setPanelState"
	KindUndo              Kind = "undo"
	KindRedo              Kind = "redo"
)

// Kinds lists every known variant in declaration order.
var Kinds = []Kind{
	KindAddTab, KindRemoveTab, KindRenameTab, KindReorderTabs, KindSwitchTab,
	KindAddZone, KindRemoveZone, KindReorderZones,
	KindAddComponent, KindRemoveComponent, KindUpdateComponent, KindReorderComponents,
	KindSetPanelState, KindUndo, KindRedo,
}

// Action is one tagged command requesting a single state transition.
// The concrete types below are the only implementations.
type Action interface {
	Kind() Kind
}

// Destructive reports whether the action discards layout content.
func Destructive(a Action) bool {
	switch a.Kind() {
	case KindRemoveTab, KindRemoveZone, KindRemoveComponent, KindSetPanelState:
		return true
	}
	return false
}

type AddTab struct {
	Tab domain.Tab `json:"tab"`
}

type RemoveTab struct {
	TabID string `json:"tabId"`
}

type RenameTab struct {
	TabID string `json:"tabId"`
	Title string `json:"title"`
}

type ReorderTabs struct {
	TabIDs []string `json:"tabIds"`
}

type SwitchTab struct {
	TabID string `json:"tabId"`
}

type AddZone struct {
	TabID string      `json:"tabId"`
	Zone  domain.Zone `json:"zone"`
}

type RemoveZone struct {
	TabID  string `json:"tabId"`
	ZoneID string `json:"zoneId"`
}

type ReorderZones struct {
	TabID   string   `json:"tabId"`
	ZoneIDs []string `json:"zoneIds"`
}

type AddComponent struct {
	TabID     string           `json:"tabId"`
	ZoneID    string           `json:"zoneId"`
	Component domain.Component `json:"component"`
}

type RemoveComponent struct {
	TabID       string `json:"tabId"`
	ZoneID      string `json:"zoneId"`
	ComponentID string `json:"componentId"`
}

// UpdateComponent replaces Type and/or Props of an existing component.
// A nil field is left untouched; a non-nil Props replaces the map wholesale.
type UpdateComponent struct {
	TabID       string         `json:"tabId"`
	ZoneID      string         `json:"zoneId"`
	ComponentID string         `json:"componentId"`
	Type        *string        `json:"type"`
	Props       map[string]any `json:"props"`
}

type ReorderComponents struct {
	TabID        string   `json:"tabId"`
	ZoneID       string   `json:"zoneId"`
	ComponentIDs []string `json:"componentIds"`
}

// SetPanelState replaces the tab tree and active tab wholesale.
type SetPanelState struct {
	State domain.Snapshot `json:"state"`
}

type Undo struct{}

type Redo struct{}

func (AddTab) Kind() Kind            { return KindAddTab }
func (RemoveTab) Kind() Kind         { return KindRemoveTab }
func (RenameTab) Kind() Kind         { return KindRenameTab }
func (ReorderTabs) Kind() Kind       { return KindReorderTabs }
func (SwitchTab) Kind() Kind         { return KindSwitchTab }
func (AddZone) Kind() Kind           { return KindAddZone }
func (RemoveZone) Kind() Kind        { return KindRemoveZone }
func (ReorderZones) Kind() Kind      { return KindReorderZones }
func (AddComponent) Kind() Kind      { return KindAddComponent }
func (RemoveComponent) Kind() Kind   { return KindRemoveComponent }
func (UpdateComponent) Kind() Kind   { return KindUpdateComponent }
func (ReorderComponents) Kind() Kind { return KindReorderComponents }
func (SetPanelState) Kind() Kind     { return KindSetPanelState }
func (Undo) Kind() Kind              { return KindUndo }
func (Redo) Kind() Kind              { return KindRedo }
