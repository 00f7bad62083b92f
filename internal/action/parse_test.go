package action

import (
	"encoding/json"
	"reflect"
	"testing"

	"panels/internal/domain"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestParse_DirectShape(t *testing.T) {
	msg := map[string]any{
		"action": "addTab",
		"tab":    map[string]any{"id": "t1", "title": "T", "zones": []any{}},
	}
	got := Parse(msg)
	if len(got) != 1 {
		t.Fatalf("expected 1 action, got %d", len(got))
	}
	add, ok := got[0].(AddTab)
	if !ok {
		t.Fatalf("expected AddTab, got %T", got[0])
	}
	if add.Tab.ID != "t1" || add.Tab.Title != "T" {
		t.Errorf("unexpected tab: %+v", add.Tab)
	}
}

func TestParse_EveryKindAcceptsMinimalFields(t *testing.T) {
	tests := []struct {
		kind   Kind
		fields map[string]any
	}{
		{KindAddTab, map[string]any{"tab": map[string]any{"id": "t", "title": "T"}}},
		{KindRemoveTab, map[string]any{"tabId": "t"}},
		{KindRenameTab, map[string]any{"tabId": "t", "title": "New"}},
		{KindReorderTabs, map[string]any{"tabIds": []any{"b", "a"}}},
		{KindSwitchTab, map[string]any{"tabId": "t"}},
		{KindAddZone, map[string]any{"tabId": "t", "zone": map[string]any{"id": "z"}}},
		{KindRemoveZone, map[string]any{"tabId": "t", "zoneId": "z"}},
		{KindReorderZones, map[string]any{"tabId": "t", "zoneIds": []any{}}},
		{KindAddComponent, map[string]any{"tabId": "t", "zoneId": "z", "component": map[string]any{"id": "c", "type": "text"}}},
		{KindRemoveComponent, map[string]any{"tabId": "t", "zoneId": "z", "componentId": "c"}},
		{KindUpdateComponent, map[string]any{"tabId": "t", "zoneId": "z", "componentId": "c"}},
		{KindReorderComponents, map[string]any{"tabId": "t", "zoneId": "z", "componentIds": []any{"c"}}},
		{KindSetPanelState, map[string]any{"state": map[string]any{"tabs": []any{}, "activeTabId": nil}}},
		{KindUndo, map[string]any{}},
		{KindRedo, map[string]any{}},
	}
	if len(tests) != len(Kinds) {
		t.Fatalf("table covers %d kinds, want %d", len(tests), len(Kinds))
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			msg := map[string]any{"action": string(tt.kind)}
			for k, v := range tt.fields {
				msg[k] = v
			}
			got := Parse(msg)
			if len(got) != 1 {
				t.Fatalf("expected 1 action, got %d", len(got))
			}
			if got[0].Kind() != tt.kind {
				t.Errorf("kind = %q, want %q", got[0].Kind(), tt.kind)
			}
		})
	}
}

func TestParse_RejectsInvalidCandidates(t *testing.T) {
	tests := []struct {
		name string
		msg  map[string]any
	}{
		{"unknown kind", map[string]any{"action": "explode"}},
		{"non-string discriminator", map[string]any{"action": 3}},
		{"addTab without tab", map[string]any{"action": "addTab"}},
		{"addTab tab without id", map[string]any{"action": "addTab", "tab": map[string]any{"title": "T"}}},
		{"addTab tab without title", map[string]any{"action": "addTab", "tab": map[string]any{"id": "t"}}},
		{"addTab zones not a list", map[string]any{"action": "addTab", "tab": map[string]any{"id": "t", "title": "T", "zones": "z"}}},
		{"removeTab numeric id", map[string]any{"action": "removeTab", "tabId": 7}},
		{"renameTab without title", map[string]any{"action": "renameTab", "tabId": "t"}},
		{"reorderTabs not a list", map[string]any{"action": "reorderTabs", "tabIds": "a,b"}},
		{"reorderTabs non-string ids", map[string]any{"action": "reorderTabs", "tabIds": []any{"a", 1}}},
		{"addZone zone without id", map[string]any{"action": "addZone", "tabId": "t", "zone": map[string]any{}}},
		{"addComponent missing zoneId", map[string]any{"action": "addComponent", "tabId": "t", "component": map[string]any{"id": "c", "type": "x"}}},
		{"addComponent component without type", map[string]any{"action": "addComponent", "tabId": "t", "zoneId": "z", "component": map[string]any{"id": "c"}}},
		{"addComponent props not an object", map[string]any{"action": "addComponent", "tabId": "t", "zoneId": "z", "component": map[string]any{"id": "c", "type": "x", "props": []any{}}}},
		{"updateComponent numeric type", map[string]any{"action": "updateComponent", "tabId": "t", "zoneId": "z", "componentId": "c", "type": 1}},
		{"setPanelState without tabs", map[string]any{"action": "setPanelState", "state": map[string]any{"activeTabId": "t"}}},
		{"setPanelState bad tab element", map[string]any{"action": "setPanelState", "state": map[string]any{"tabs": []any{"t1"}}}},
		{"setPanelState tab without title", map[string]any{"action": "setPanelState", "state": map[string]any{"tabs": []any{map[string]any{"id": "a"}}}}},
		{"setPanelState tab without id", map[string]any{"action": "setPanelState", "state": map[string]any{"tabs": []any{map[string]any{"title": "A"}}}}},
		{"setPanelState zone without id", map[string]any{"action": "setPanelState", "state": map[string]any{"tabs": []any{
			map[string]any{"id": "a", "title": "A", "zones": []any{map[string]any{"components": []any{}}}},
		}}}},
		{"setPanelState component without type", map[string]any{"action": "setPanelState", "state": map[string]any{"tabs": []any{
			map[string]any{"id": "a", "title": "A", "zones": []any{map[string]any{"id": "z", "components": []any{map[string]any{"id": "c"}}}}},
		}}}},
		{"addTab nested zone without id", map[string]any{"action": "addTab", "tab": map[string]any{"id": "t", "title": "T", "zones": []any{map[string]any{}}}}},
		{"addZone nested component without id", map[string]any{"action": "addZone", "tabId": "t", "zone": map[string]any{"id": "z", "components": []any{map[string]any{"type": "x"}}}}},
		{"addTab empty id", map[string]any{"action": "addTab", "tab": map[string]any{"id": "", "title": "T"}}},
		{"switchTab empty id", map[string]any{"action": "switchTab", "tabId": ""}},
		{"reorderTabs empty id", map[string]any{"action": "reorderTabs", "tabIds": []any{"a", ""}}},
		{"addComponent empty component id", map[string]any{"action": "addComponent", "tabId": "t", "zoneId": "z", "component": map[string]any{"id": "", "type": "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rejected := ParseDetailed(tt.msg)
			if got != nil {
				t.Fatalf("expected nil, got %+v", got)
			}
			if len(rejected) != 1 {
				t.Errorf("expected 1 rejection, got %d", len(rejected))
			}
		})
	}
}

func TestParse_WrappedBatchKeepsOrderAndDropsInvalid(t *testing.T) {
	msg := map[string]any{
		"tool": "panelAction",
		"payload": []any{
			map[string]any{"action": "addTab", "tab": map[string]any{"id": "t1", "title": "One"}},
			map[string]any{"action": "addComponent", "tabId": "t1", "component": map[string]any{"id": "c", "type": "x"}},
			"not an object",
			map[string]any{"action": "switchTab", "tabId": "t1"},
		},
	}
	got, rejected := ParseDetailed(msg)
	if len(got) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(got))
	}
	if got[0].Kind() != KindAddTab || got[1].Kind() != KindSwitchTab {
		t.Errorf("unexpected order: %s, %s", got[0].Kind(), got[1].Kind())
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %d", len(rejected))
	}
	if rejected[0].Index != 1 || rejected[0].Kind != "addComponent" {
		t.Errorf("unexpected first rejection: %+v", rejected[0])
	}
	if rejected[1].Index != 2 {
		t.Errorf("unexpected second rejection: %+v", rejected[1])
	}
}

func TestParse_WrappedSingleAndEmpty(t *testing.T) {
	single := map[string]any{
		"tool":    "panelAction",
		"payload": map[string]any{"action": "undo"},
	}
	if got := Parse(single); len(got) != 1 || got[0].Kind() != KindUndo {
		t.Errorf("expected [undo], got %+v", got)
	}

	missingZone := map[string]any{
		"tool":    "panelAction",
		"payload": map[string]any{"action": "addComponent", "tabId": "t", "component": map[string]any{"id": "c", "type": "x"}},
	}
	if got := Parse(missingZone); got != nil {
		t.Errorf("expected nil for invalid singleton, got %+v", got)
	}

	allInvalid := map[string]any{
		"tool":    "panelAction",
		"payload": []any{map[string]any{"action": "nope"}, 12},
	}
	if got := Parse(allInvalid); got != nil {
		t.Errorf("expected nil for all-invalid batch, got %+v", got)
	}

	empty := map[string]any{"tool": "panelAction", "payload": []any{}}
	if got := Parse(empty); got != nil {
		t.Errorf("expected nil for empty batch, got %+v", got)
	}

	otherTool := map[string]any{"tool": "search", "payload": map[string]any{"action": "undo"}}
	if got := Parse(otherTool); got != nil {
		t.Errorf("expected nil for another tool, got %+v", got)
	}
}

func TestParse_NestedContent(t *testing.T) {
	msg := map[string]any{
		"role": "assistant",
		"content": map[string]any{
			"tool":    "panelAction",
			"payload": []any{map[string]any{"action": "redo"}, map[string]any{"action": "undo"}},
		},
	}
	got := Parse(msg)
	if len(got) != 2 || got[0].Kind() != KindRedo || got[1].Kind() != KindUndo {
		t.Errorf("expected [redo undo], got %+v", got)
	}
}

func TestParse_StringifiedPayloadAndContent(t *testing.T) {
	payload := `[{"action":"switchTab","tabId":"t1"}]`
	msg := map[string]any{"tool": "panelAction", "payload": payload}
	if got := Parse(msg); len(got) != 1 || got[0].Kind() != KindSwitchTab {
		t.Errorf("expected [switchTab], got %+v", got)
	}

	content := `{"tool":"panelAction","payload":{"action":"undo"}}`
	if got := Parse(map[string]any{"content": content}); len(got) != 1 {
		t.Errorf("expected 1 action from stringified content, got %+v", got)
	}
}

func TestParse_UnrelatedMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"chat text", map[string]any{"type": "text", "content": "hello"}},
		{"chat text as json", `{"type":"text","content":"hello"}`},
		{"plain text", "hello there"},
		{"broken json", `{"action":"undo"`},
		{"empty string", "   "},
		{"nil", nil},
		{"number", 42},
		{"array", []any{map[string]any{"action": "undo"}}},
		{"content not wrapped", map[string]any{"content": map[string]any{"action": "undo"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.raw); got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestParse_TextAndStructuredAreEquivalent(t *testing.T) {
	msgs := []any{
		map[string]any{"action": "renameTab", "tabId": "t1", "title": "x"},
		map[string]any{"tool": "panelAction", "payload": []any{
			map[string]any{"action": "addZone", "tabId": "t1", "zone": map[string]any{"id": "z1"}},
			map[string]any{"action": "reorderZones", "tabId": "t1", "zoneIds": []any{"z1"}},
		}},
		map[string]any{"content": map[string]any{"tool": "panelAction", "payload": map[string]any{"action": "undo"}}},
	}
	for _, m := range msgs {
		text := mustJSON(t, m)
		if !reflect.DeepEqual(Parse(m), Parse(text)) {
			t.Errorf("parse(text) != parse(value) for %s", text)
		}
		if !reflect.DeepEqual(Parse(text), Parse([]byte(text))) {
			t.Errorf("parse([]byte) differs for %s", text)
		}
	}
}

func TestParse_NativeGoValues(t *testing.T) {
	msg := map[string]any{
		"action": "reorderTabs",
		"tabIds": []string{"b", "a"},
	}
	got := Parse(msg)
	if len(got) != 1 {
		t.Fatalf("expected 1 action, got %d", len(got))
	}
	if ids := got[0].(ReorderTabs).TabIDs; !reflect.DeepEqual(ids, []string{"b", "a"}) {
		t.Errorf("tabIds = %v", ids)
	}
}

func TestParse_UpdateComponentOptionalFields(t *testing.T) {
	got := Parse(`{"action":"updateComponent","tabId":"t","zoneId":"z","componentId":"c","props":{}}`)
	upd := got[0].(UpdateComponent)
	if upd.Type != nil {
		t.Errorf("type should be absent, got %q", *upd.Type)
	}
	if upd.Props == nil || len(upd.Props) != 0 {
		t.Errorf("props should be present and empty, got %#v", upd.Props)
	}

	got = Parse(`{"action":"updateComponent","tabId":"t","zoneId":"z","componentId":"c","type":"chart","props":null}`)
	upd = got[0].(UpdateComponent)
	if upd.Type == nil || *upd.Type != "chart" {
		t.Errorf("type = %v, want chart", upd.Type)
	}
	if upd.Props != nil {
		t.Errorf("null props should be absent, got %#v", upd.Props)
	}
}

func TestParse_SetPanelStateIgnoresStacks(t *testing.T) {
	got := Parse(`{"action":"setPanelState","state":{"tabs":[{"id":"a","title":"A","zones":[]}],"activeTabId":"a","undoStack":[1,2]}}`)
	set := got[0].(SetPanelState)
	want := domain.Snapshot{Tabs: []domain.Tab{{ID: "a", Title: "A", Zones: []domain.Zone{}}}, ActiveTabID: "a"}
	if !set.State.Equal(want) {
		t.Errorf("state = %+v, want %+v", set.State, want)
	}
}

func TestParse_DirectFallsBackToWrapped(t *testing.T) {
	msg := map[string]any{
		"action":  "bogus",
		"tool":    "panelAction",
		"payload": map[string]any{"action": "undo"},
	}
	if got := Parse(msg); len(got) != 1 || got[0].Kind() != KindUndo {
		t.Errorf("expected wrapped payload to win over invalid direct action, got %+v", got)
	}
}

func TestParse_NestedStateIsTyped(t *testing.T) {
	got := Parse(`{"action":"setPanelState","state":{"tabs":[{"id":"a","title":"A","zones":[{"id":"z","components":[{"id":"c","type":"text","props":{"n":9007199254740993}}]}]}],"activeTabId":""}}`)
	if len(got) != 1 {
		t.Fatalf("expected 1 action, got %d", len(got))
	}
	set := got[0].(SetPanelState)
	if set.State.ActiveTabID != "" {
		t.Errorf("empty activeTabId should mean none, got %q", set.State.ActiveTabID)
	}
	c := set.State.Tabs[0].Zones[0].Components[0]
	if c.Props["n"] != json.Number("9007199254740993") {
		t.Errorf("number lost precision: %#v", c.Props["n"])
	}
}
