// Package codec encodes table metadata such as the table manifest.
//
// The manifest records the codec name, so switching the default only affects
// newly written tables.
package codec

// Codec encodes and decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used for new manifests.
var Default Codec = GoJSON{}
