package action

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes a in the direct wire shape, {action: <kind>, ...fields}.
func Marshal(a Action) ([]byte, error) {
	fields, err := toFields(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// MarshalBatch encodes actions as a wrapped tool message,
// {tool: "panelAction", payload: [...]}.
func MarshalBatch(actions ...Action) ([]byte, error) {
	payload := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		fields, err := toFields(a)
		if err != nil {
			return nil, err
		}
		payload = append(payload, fields)
	}
	return json.Marshal(map[string]any{"tool": ToolName, "payload": payload})
}

func toFields(a Action) (map[string]any, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}
	fields["action"] = string(a.Kind())
	return fields, nil
}
