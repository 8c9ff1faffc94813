package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type color string

const (
	red  color = "red"
	blue color = "blue"
)

func newColorNormalizer() *Normalizer[color] {
	return NewNormalizer("color", map[string]color{"red": red, "BLUE": blue}, red)
}

func TestNormalize(t *testing.T) {
	n := newColorNormalizer()

	tests := []struct {
		raw  string
		want color
	}{
		{"red", red},
		{"  Blue ", blue},
		{"", red},
		{"green", red},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := newColorNormalizer()

	v, err := n.NormalizeWithError("")
	require.NoError(t, err)
	require.Equal(t, red, v)

	v, err = n.NormalizeWithError("BLUE")
	require.NoError(t, err)
	require.Equal(t, blue, v)

	_, err = n.NormalizeWithError("green")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid color")
	require.Contains(t, err.Error(), "[blue red]")
}

func TestValidKeysIsCopy(t *testing.T) {
	n := newColorNormalizer()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	require.Equal(t, []string{"blue", "red"}, n.ValidKeys())
}
