package engine

import (
	"panels/internal/action"
	"panels/internal/domain"
)

// transition mutates s in place for every tree-editing variant. Unresolvable
// references leave s untouched. It returns false for actions that do not
// edit the tree.
func transition(s *domain.Snapshot, a action.Action) bool {
	switch act := a.(type) {
	case action.AddTab:
		addTab(s, act.Tab)
	case action.RemoveTab:
		removeTab(s, act.TabID)
	case action.RenameTab:
		if i := s.TabIndex(act.TabID); i >= 0 {
			s.Tabs[i].Title = act.Title
		}
	case action.ReorderTabs:
		s.Tabs = reorder(s.Tabs, act.TabIDs, func(t domain.Tab) string { return t.ID })
	case action.SwitchTab:
		if s.HasTab(act.TabID) {
			s.ActiveTabID = act.TabID
		}
	case action.AddZone:
		if tab := findTab(s, act.TabID); tab != nil && act.Zone.ID != "" {
			zone := tidyZone(act.Zone.Clone())
			if i := tab.ZoneIndex(zone.ID); i >= 0 {
				tab.Zones[i] = zone
			} else {
				tab.Zones = append(tab.Zones, zone)
			}
		}
	case action.RemoveZone:
		if tab := findTab(s, act.TabID); tab != nil {
			if i := tab.ZoneIndex(act.ZoneID); i >= 0 {
				tab.Zones = append(tab.Zones[:i], tab.Zones[i+1:]...)
			}
		}
	case action.ReorderZones:
		if tab := findTab(s, act.TabID); tab != nil {
			tab.Zones = reorder(tab.Zones, act.ZoneIDs, func(z domain.Zone) string { return z.ID })
		}
	case action.AddComponent:
		if zone := findZone(s, act.TabID, act.ZoneID); zone != nil && act.Component.ID != "" {
			c := act.Component.Clone()
			if i := zone.ComponentIndex(c.ID); i >= 0 {
				zone.Components[i] = c
			} else {
				zone.Components = append(zone.Components, c)
			}
		}
	case action.RemoveComponent:
		if zone := findZone(s, act.TabID, act.ZoneID); zone != nil {
			if i := zone.ComponentIndex(act.ComponentID); i >= 0 {
				zone.Components = append(zone.Components[:i], zone.Components[i+1:]...)
			}
		}
	case action.UpdateComponent:
		updateComponent(s, act)
	case action.ReorderComponents:
		if zone := findZone(s, act.TabID, act.ZoneID); zone != nil {
			zone.Components = reorder(zone.Components, act.ComponentIDs, func(c domain.Component) string { return c.ID })
		}
	case action.SetPanelState:
		setPanelState(s, act.State)
	default:
		return false
	}
	return true
}

// addTab appends t, or replaces an existing tab with the same id in place.
// The first tab added to a document with no active tab becomes active.
func addTab(s *domain.Snapshot, t domain.Tab) {
	if t.ID == "" {
		return
	}
	tab := tidyTab(t.Clone())
	if i := s.TabIndex(tab.ID); i >= 0 {
		s.Tabs[i] = tab
	} else {
		s.Tabs = append(s.Tabs, tab)
	}
	if s.ActiveTabID == "" {
		s.ActiveTabID = tab.ID
	}
}

// removeTab drops the tab. When it was active, the preceding tab takes
// over, or the new first tab when it was first, or nothing when none remain.
func removeTab(s *domain.Snapshot, tabID string) {
	i := s.TabIndex(tabID)
	if i < 0 {
		return
	}
	s.Tabs = append(s.Tabs[:i], s.Tabs[i+1:]...)
	if s.ActiveTabID != tabID {
		return
	}
	switch {
	case len(s.Tabs) == 0:
		s.ActiveTabID = ""
	case i > 0:
		s.ActiveTabID = s.Tabs[i-1].ID
	default:
		s.ActiveTabID = s.Tabs[0].ID
	}
}

func updateComponent(s *domain.Snapshot, act action.UpdateComponent) {
	zone := findZone(s, act.TabID, act.ZoneID)
	if zone == nil {
		return
	}
	i := zone.ComponentIndex(act.ComponentID)
	if i < 0 {
		return
	}
	if act.Type != nil {
		zone.Components[i].Type = *act.Type
	}
	if act.Props != nil {
		zone.Components[i].Props = domain.Component{Props: act.Props}.Clone().Props
	}
}

// setPanelState swaps in a new tree. Repeated ids collapse to one entry
// per level, and an active id that names no tab is repaired to the first
// tab so the document stays consistent.
func setPanelState(s *domain.Snapshot, next domain.Snapshot) {
	repl := next.Clone()
	repl.Tabs = uniqueByID(repl.Tabs, func(t domain.Tab) string { return t.ID })
	for i := range repl.Tabs {
		repl.Tabs[i] = tidyTab(repl.Tabs[i])
	}
	if repl.ActiveTabID != "" && !repl.HasTab(repl.ActiveTabID) {
		repl.ActiveTabID = ""
		if len(repl.Tabs) > 0 {
			repl.ActiveTabID = repl.Tabs[0].ID
		}
	}
	*s = repl
}

// tidyTab applies uniqueByID to the zones of t and to each zone's
// components. t must already be a private copy.
func tidyTab(t domain.Tab) domain.Tab {
	t.Zones = uniqueByID(t.Zones, func(z domain.Zone) string { return z.ID })
	for i := range t.Zones {
		t.Zones[i] = tidyZone(t.Zones[i])
	}
	return t
}

func tidyZone(z domain.Zone) domain.Zone {
	z.Components = uniqueByID(z.Components, func(c domain.Component) string { return c.ID })
	return z
}

// uniqueByID keeps one item per id: the content of the last occurrence at
// the position of the first. Items with an empty id are dropped.
func uniqueByID[T any](items []T, idOf func(T) string) []T {
	if items == nil {
		return nil
	}
	pos := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		id := idOf(it)
		if id == "" {
			continue
		}
		if i, ok := pos[id]; ok {
			out[i] = it
			continue
		}
		pos[id] = len(out)
		out = append(out, it)
	}
	return out
}

func findTab(s *domain.Snapshot, tabID string) *domain.Tab {
	if i := s.TabIndex(tabID); i >= 0 {
		return &s.Tabs[i]
	}
	return nil
}

func findZone(s *domain.Snapshot, tabID, zoneID string) *domain.Zone {
	tab := findTab(s, tabID)
	if tab == nil {
		return nil
	}
	if i := tab.ZoneIndex(zoneID); i >= 0 {
		return &tab.Zones[i]
	}
	return nil
}

// reorder puts the listed ids first, in listed order, and keeps every item
// that was not listed after them in its original relative order. Unknown
// and repeated ids are ignored.
func reorder[T any](items []T, ids []string, idOf func(T) string) []T {
	pos := make(map[string]int, len(items))
	for i, it := range items {
		pos[idOf(it)] = i
	}
	used := make([]bool, len(items))
	out := make([]T, 0, len(items))
	for _, id := range ids {
		i, ok := pos[id]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, items[i])
	}
	for i, it := range items {
		if !used[i] {
			out = append(out, it)
		}
	}
	return out
}
