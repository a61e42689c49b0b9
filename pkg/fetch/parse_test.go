package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"json object", `{"a": 1, "b": [true, null, "x"]}`, map[string]any{"a": float64(1), "b": []any{true, nil, "x"}}},
		{"yaml mapping", "a: 1.5\nb:\n  - c\n", map[string]any{"a": 1.5, "b": []any{"c"}}},
		{"yaml date", "d: 2023-01-02\n", map[string]any{"d": "2023-01-02"}},
		{"yaml timestamp", "d: 2023-01-02T10:11:12Z\n", map[string]any{"d": "2023-01-02T10:11:12Z"}},
		{"integer keys", "1: one\n", map[string]any{"1": "one"}},
		{"scalar", `"just text"`, "just text"},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("a: [1, 2"))
	assert.Error(t, err)
}

func TestPlainRejectsUnknownTypes(t *testing.T) {
	_, err := Plain(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
