package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type column struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Pages int    `json:"pages"`
}

type manifest struct {
	Table   string   `json:"table"`
	Rows    uint64   `json:"rows"`
	Columns []column `json:"columns"`
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := manifest{
		Table:   "orders",
		Rows:    1 << 40,
		Columns: []column{{Name: "id", Type: "uint64", Pages: 3}, {Name: "note", Type: "string"}},
	}

	for _, enc := range []Codec{JSON{}, GoJSON{}, GoJSON{Indent: "  "}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			data, err := enc.Marshal(in)
			require.NoError(t, err)

			var out manifest
			require.NoError(t, dec.Unmarshal(data, &out), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, in, out)
		}
	}
}

func TestGoJSON_Indent(t *testing.T) {
	data, err := GoJSON{Indent: "  "}.Marshal(map[string]int{"rows": 1})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n  \"rows\": 1"))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
	assert.Equal(t, "go-json", Default.Name())
}
