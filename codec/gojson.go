package codec

import gojson "github.com/goccy/go-json"

// GoJSON is a JSON codec backed by github.com/goccy/go-json. A non-empty
// Indent produces indented output.
type GoJSON struct {
	Indent string
}

func (c GoJSON) Marshal(v any) ([]byte, error) {
	if c.Indent != "" {
		return gojson.MarshalIndent(v, "", c.Indent)
	}
	return gojson.Marshal(v)
}

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }
