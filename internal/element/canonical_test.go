package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"zebra": 1, "alpha": "<b>", "beta": true})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"<b>","beta":true,"zebra":1}`, string(out))
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, "null"},
		{"float", 1.5, "1.5"},
		{"int32", int32(-3), "-3"},
		{"uint", uint(7), "7"},
		{"slice", []string{"a", "b"}, `["a","b"]`},
		{"func", func() {}, `"<func()>"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalProps(t *testing.T) {
	s, err := MarshalProps(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", s)

	s, err = MarshalProps(Props{"style": map[string]any{"margin": "5px"}, "id": "A1"})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"A1","style":{"margin":"5px"}}`, s)
}

func TestFingerprint_StableAcrossConstruction(t *testing.T) {
	a := MustCreate("div", Props{"id": "A1", "class": "x"}, "A1", MustCreate("span", nil))
	b := MustCreate("div", Props{"class": "x", "id": "A1"}, "A1", MustCreate("span", nil))

	assert.Equal(t, MustFingerprint(a), MustFingerprint(b))
	assert.Len(t, MustFingerprint(a), 64)
}

func TestFingerprint_DiffersOnChange(t *testing.T) {
	a := MustCreate("div", Props{"id": "A1"}, "A1")
	b := MustCreate("div", Props{"id": "A1"}, "A1-new")

	assert.NotEqual(t, MustFingerprint(a), MustFingerprint(b))
}
