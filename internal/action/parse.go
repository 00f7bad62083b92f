package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ToolName is the tool identifier that wraps panel actions in agent messages.
const ToolName = "panelAction"

var (
	errNoDiscriminator = errors.New("missing string \"action\" field")
	errNotObject       = errors.New("candidate is not an object")
	errBadPayload      = errors.New("payload must be an object or a list of objects")
)

// Rejection describes one candidate that was dropped during parsing.
type Rejection struct {
	Index int    `json:"index"` // position in a batch payload, 0 otherwise
	Kind  string `json:"kind,omitempty"`
	Err   error  `json:"-"`
}

func (r Rejection) Error() string {
	if r.Kind == "" {
		return fmt.Sprintf("candidate %d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("candidate %d (%s): %v", r.Index, r.Kind, r.Err)
}

// Parse recovers an ordered, non-empty list of validated actions from one
// inbound message, or nil when the message carries no panel action.
//
// Accepted shapes, tried in order:
//
//	{action: <kind>, ...fields}
//	{tool: "panelAction", payload: <action> | [<action>, ...]}
//	{content: {tool: "panelAction", payload: ...}}
//
// Any of these may arrive as JSON text. In a batch payload, invalid
// elements are dropped individually.
func Parse(raw any) []Action {
	actions, _ := ParseDetailed(raw)
	return actions
}

// ParseDetailed is Parse plus the list of candidates that were dropped.
func ParseDetailed(raw any) ([]Action, []Rejection) {
	v, ok := normalize(raw)
	if !ok {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}

	var directErr *Rejection
	if _, hasAction := obj["action"]; hasAction {
		a, err := decodeCandidate(obj)
		if err == nil {
			return []Action{a}, nil
		}
		directErr = &Rejection{Kind: kindOf(obj), Err: err}
	}

	if actions, rejected, matched := parseWrapped(obj); matched {
		return actions, rejected
	}
	if content, ok := obj["content"]; ok {
		if inner, ok := decodeNested(content).(map[string]any); ok {
			if actions, rejected, matched := parseWrapped(inner); matched {
				return actions, rejected
			}
		}
	}

	if directErr != nil {
		return nil, []Rejection{*directErr}
	}
	return nil, nil
}

// parseWrapped handles {tool: "panelAction", payload: X}. matched is false
// when obj does not have that shape at all.
func parseWrapped(obj map[string]any) (actions []Action, rejected []Rejection, matched bool) {
	if tool, _ := obj["tool"].(string); tool != ToolName {
		return nil, nil, false
	}
	payload, ok := obj["payload"]
	if !ok {
		return nil, nil, false
	}

	switch p := decodeNested(payload).(type) {
	case []any:
		for i, el := range p {
			cand, ok := el.(map[string]any)
			if !ok {
				rejected = append(rejected, Rejection{Index: i, Err: errNotObject})
				continue
			}
			a, err := decodeCandidate(cand)
			if err != nil {
				rejected = append(rejected, Rejection{Index: i, Kind: kindOf(cand), Err: err})
				continue
			}
			actions = append(actions, a)
		}
	case map[string]any:
		a, err := decodeCandidate(p)
		if err != nil {
			rejected = append(rejected, Rejection{Kind: kindOf(p), Err: err})
		} else {
			actions = append(actions, a)
		}
	default:
		rejected = append(rejected, Rejection{Err: errBadPayload})
	}

	if len(actions) == 0 {
		return nil, rejected, true
	}
	return actions, rejected, true
}

// decodeCandidate validates one candidate against its contract and builds
// the typed action.
func decodeCandidate(obj map[string]any) (Action, error) {
	kind, ok := obj["action"].(string)
	if !ok {
		return nil, errNoDiscriminator
	}
	dec, ok := decoders[Kind(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", kind)
	}
	if err := validate(Kind(kind), obj); err != nil {
		return nil, err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", kind, err)
	}
	a, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return a, nil
}

var decoders = map[Kind]func([]byte) (Action, error){
	KindAddTab:            decodeAs[AddTab],
	KindRemoveTab:         decodeAs[RemoveTab],
	KindRenameTab:         decodeAs[RenameTab],
	KindReorderTabs:       decodeAs[ReorderTabs],
	KindSwitchTab:         decodeAs[SwitchTab],
	KindAddZone:           decodeAs[AddZone],
	KindRemoveZone:        decodeAs[RemoveZone],
	KindReorderZones:      decodeAs[ReorderZones],
	KindAddComponent:      decodeAs[AddComponent],
	KindRemoveComponent:   decodeAs[RemoveComponent],
	KindUpdateComponent:   decodeAs[UpdateComponent],
	KindReorderComponents: decodeAs[ReorderComponents],
	KindSetPanelState:     decodeAs[SetPanelState],
	KindUndo:              decodeAs[Undo],
	KindRedo:              decodeAs[Redo],
}

func decodeAs[T Action](data []byte) (Action, error) {
	var a T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&a); err != nil {
		return nil, err
	}
	return a, nil
}

// normalize turns any inbound value into generic JSON values
// (map[string]any, []any, string, json.Number, bool, nil). Text is decoded
// with numbers kept exact; structured Go values are round-tripped through
// encoding/json so that validation never sees native Go collection types.
func normalize(raw any) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		return decodeText([]byte(v))
	case []byte:
		return decodeText(v)
	case json.RawMessage:
		return decodeText(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return decodeText(data)
	}
}

// decodeNested decodes a value that an agent may have stringified. Text that
// is not JSON is returned unchanged.
func decodeNested(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	decoded, ok := decodeText([]byte(s))
	if !ok {
		return v
	}
	return decoded
}

func decodeText(data []byte) (any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

func kindOf(obj map[string]any) string {
	k, _ := obj["action"].(string)
	return k
}
