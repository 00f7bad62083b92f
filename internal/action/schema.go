package action

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// shape is the expected JSON shape of one action field.
type shape int

const (
	shapeString shape = iota
	shapeID
	shapeIDList
	shapeTab
	shapeZone
	shapeComponent
	shapeState
	shapeOptionalString
	shapeOptionalObject
)

type field struct {
	name     string
	shape    shape
	optional bool
}

// contracts is the required-field table for every variant. Unknown extra
// fields on a candidate are ignored.
var contracts = map[Kind][]field{
	KindAddTab:      {{name: "tab", shape: shapeTab}},
	KindRemoveTab:   {{name: "tabId", shape: shapeID}},
	KindRenameTab:   {{name: "tabId", shape: shapeID}, {name: "title", shape: shapeString}},
	KindReorderTabs: {{name: "tabIds", shape: shapeIDList}},
	KindSwitchTab:   {{name: "tabId", shape: shapeID}},
	KindAddZone:     {{name: "tabId", shape: shapeID}, {name: "zone", shape: shapeZone}},
	KindRemoveZone:  {{name: "tabId", shape: shapeID}, {name: "zoneId", shape: shapeID}},
	KindReorderZones: {
		{name: "tabId", shape: shapeID},
		{name: "zoneIds", shape: shapeIDList},
	},
	KindAddComponent: {
		{name: "tabId", shape: shapeID},
		{name: "zoneId", shape: shapeID},
		{name: "component", shape: shapeComponent},
	},
	KindRemoveComponent: {
		{name: "tabId", shape: shapeID},
		{name: "zoneId", shape: shapeID},
		{name: "componentId", shape: shapeID},
	},
	KindUpdateComponent: {
		{name: "tabId", shape: shapeID},
		{name: "zoneId", shape: shapeID},
		{name: "componentId", shape: shapeID},
		{name: "type", shape: shapeOptionalString, optional: true},
		{name: "props", shape: shapeOptionalObject, optional: true},
	},
	KindReorderComponents: {
		{name: "tabId", shape: shapeID},
		{name: "zoneId", shape: shapeID},
		{name: "componentIds", shape: shapeIDList},
	},
	KindSetPanelState: {{name: "state", shape: shapeState}},
	KindUndo:          {},
	KindRedo:          {},
}

var schemas = mustCompileSchemas()

// validate checks a decoded candidate against the contract for kind.
func validate(kind Kind, candidate map[string]any) error {
	sch, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown action %q", kind)
	}
	if err := sch.Validate(candidate); err != nil {
		return fmt.Errorf("invalid %s: %w", kind, err)
	}
	return nil
}

func mustCompileSchemas() map[Kind]*jsonschema.Schema {
	out := make(map[Kind]*jsonschema.Schema, len(contracts))
	for kind, fields := range contracts {
		sch, err := compileContract(kind, fields)
		if err != nil {
			panic(err)
		}
		out[kind] = sch
	}
	return out
}

// Document returns the JSON Schema object describing kind, or nil for an
// unknown kind. Agent-facing tool definitions embed these.
func Document(kind Kind) map[string]any {
	fields, ok := contracts[kind]
	if !ok {
		return nil
	}
	return contractDocument(kind, fields)
}

func contractDocument(kind Kind, fields []field) map[string]any {
	required := []string{"action"}
	props := map[string]any{"action": map[string]any{"const": string(kind)}}
	for _, f := range fields {
		props[f.name] = shapeSchema(f.shape)
		if !f.optional {
			required = append(required, f.name)
		}
	}
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

func compileContract(kind Kind, fields []field) (*jsonschema.Schema, error) {
	body := contractDocument(kind, fields)
	body["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	doc, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", kind, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://panels.schemas.local/action/%s.schema.json", kind)
	if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("action schema load failed: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("action schema compile failed: %w", err)
	}
	return sch, nil
}

// shapeSchema maps a field shape to its JSON Schema fragment. Nested tabs,
// zones and components are checked down to their ids; props stay opaque.
func shapeSchema(s shape) map[string]any {
	switch s {
	case shapeID:
		return idSchema()
	case shapeIDList:
		return map[string]any{"type": "array", "items": idSchema()}
	case shapeTab:
		return tabSchema()
	case shapeZone:
		return zoneSchema()
	case shapeComponent:
		return componentSchema()
	case shapeState:
		return map[string]any{
			"type":     "object",
			"required": []string{"tabs"},
			"properties": map[string]any{
				"tabs":        map[string]any{"type": "array", "items": tabSchema()},
				"activeTabId": map[string]any{"type": []string{"string", "null"}},
			},
		}
	case shapeOptionalString:
		return map[string]any{"type": []string{"string", "null"}}
	case shapeOptionalObject:
		return map[string]any{"type": []string{"object", "null"}}
	default:
		return map[string]any{"type": "string"}
	}
}

// idSchema rejects "", which the layout reserves for "no active tab".
func idSchema() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func tabSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id", "title"},
		"properties": map[string]any{
			"id":    idSchema(),
			"title": map[string]any{"type": "string"},
			"zones": map[string]any{"type": []string{"array", "null"}, "items": zoneSchema()},
		},
	}
}

func zoneSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]any{
			"id":         idSchema(),
			"components": map[string]any{"type": []string{"array", "null"}, "items": componentSchema()},
		},
	}
}

func componentSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"id", "type"},
		"properties": map[string]any{
			"id":    idSchema(),
			"type":  map[string]any{"type": "string"},
			"props": map[string]any{"type": []string{"object", "null"}},
		},
	}
}
