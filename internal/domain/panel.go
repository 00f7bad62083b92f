package domain

import "reflect"

// Component is a leaf of the layout tree. Props is opaque to the engine.
type Component struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// Zone is an ordered group of components inside a tab.
type Zone struct {
	ID         string      `json:"id"`
	Components []Component `json:"components"`
}

type Tab struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Zones []Zone `json:"zones"`
}

// Clone returns a deep copy; nested props maps and lists are copied too.
func (c Component) Clone() Component {
	out := Component{ID: c.ID, Type: c.Type, Props: make(map[string]any, len(c.Props))}
	for k, v := range c.Props {
		out.Props[k] = cloneValue(v)
	}
	return out
}

func (z Zone) Clone() Zone {
	out := Zone{ID: z.ID, Components: make([]Component, len(z.Components))}
	for i, c := range z.Components {
		out.Components[i] = c.Clone()
	}
	return out
}

func (t Tab) Clone() Tab {
	out := Tab{ID: t.ID, Title: t.Title, Zones: make([]Zone, len(t.Zones))}
	for i, z := range t.Zones {
		out.Zones[i] = z.Clone()
	}
	return out
}

// ZoneIndex returns the position of the zone with the given id, or -1.
func (t *Tab) ZoneIndex(zoneID string) int {
	for i := range t.Zones {
		if t.Zones[i].ID == zoneID {
			return i
		}
	}
	return -1
}

// ComponentIndex returns the position of the component with the given id, or -1.
func (z *Zone) ComponentIndex(componentID string) int {
	for i := range z.Components {
		if z.Components[i].ID == componentID {
			return i
		}
	}
	return -1
}

// cloneValue deep-copies a props value. Generic JSON containers take the
// fast path; any other map, slice, array or pointer is copied by reflection
// so no container is ever shared between copies.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneReflect(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneReflect(v.Elem()))
		return out
	default:
		return v
	}
}
