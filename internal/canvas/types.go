package canvas

// Color is an RGB triple in the 0..1 range, serialized as a JSON array.
type Color [3]float64

// VoidConfig describes the animated background: a named shader preset, its
// two gradient colors, an intensity scalar, and optionally a full custom
// shader source that overrides the preset.
type VoidConfig struct {
	Preset       string  `json:"preset"`
	Color1       Color   `json:"color1"`
	Color2       Color   `json:"color2"`
	Intensity    float64 `json:"intensity"`
	CustomShader string  `json:"customShader,omitempty"`
}

// DefaultVoidConfig is the background of a freshly created project.
func DefaultVoidConfig() VoidConfig {
	return VoidConfig{
		Preset:    "cosmic",
		Color1:    Color{0.05, 0.05, 0.15},
		Color2:    Color{0.15, 0.1, 0.3},
		Intensity: 1.0,
	}
}

// Layer is a single design element. The sync subsystem only ever looks at
// its id and type; every other attribute (geometry, material, transform,
// text content, ...) belongs to the rendering layer and is forwarded
// intact, so the whole thing stays an open map.
type Layer map[string]any

func (l Layer) ID() string {
	id, _ := l["id"].(string)
	return id
}

func (l Layer) Type() string {
	t, _ := l["type"].(string)
	return t
}

// Clone deep-copies the layer so a snapshot handed to another goroutine
// cannot alias live state.
func (l Layer) Clone() Layer {
	if l == nil {
		return nil
	}
	return Layer(cloneMap(l))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Snapshot is the full serializable project state. The sync subsystem
// treats it as a wholesale-replaceable value.
type Snapshot struct {
	ProjectID   string     `json:"projectId"`
	ProjectName string     `json:"projectName"`
	Layers      []Layer    `json:"layers"`
	VoidConfig  VoidConfig `json:"voidConfig"`
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.Layers = make([]Layer, len(s.Layers))
	for i, l := range s.Layers {
		out.Layers[i] = l.Clone()
	}
	return out
}

// Layer operation kinds.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LayerOperation is an incremental edit addressed to one layer. Exactly one
// variant is populated: add carries the new layer, update carries the
// target id plus a merge patch, delete carries just the id.
type LayerOperation struct {
	Type    string         `json:"type"`
	Layer   Layer          `json:"layer,omitempty"`
	LayerID string         `json:"layerId,omitempty"`
	Updates map[string]any `json:"updates,omitempty"`
}

// Point is a 2-D pointer position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
