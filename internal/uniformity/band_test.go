package uniformity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{-0.5, 0},
		{0, 0},
		{0.0999, 0},
		{0.1, 1},
		{0.45, 4},
		{0.8999, 8},
		{0.9, 9},
		{0.95, 9},
		{1.0, 9},
		{1.2, 9},
		{math.NaN(), NoBand},
	}
	for _, tt := range tests {
		if got := BandFor(tt.score); got != tt.want {
			t.Errorf("BandFor(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestBandLabels(t *testing.T) {
	assert.Equal(t, "0.0 - 0.1", Band(0).String())
	assert.Equal(t, "0.9 - 1.0", Band(9).String())
	assert.Equal(t, "", NoBand.String())
	assert.Len(t, Bands(), NumBands)
}

func TestBandJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Cat Band `json:"cat"`
	}{Band(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cat":"0.3 - 0.4"}`, string(b))

	var out struct {
		Cat Band `json:"cat"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"cat":"0.7 - 0.8"}`), &out))
	assert.Equal(t, Band(7), out.Cat)

	assert.Error(t, json.Unmarshal([]byte(`{"cat":"1.0 - 1.1"}`), &out))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("tus")
	require.NoError(t, err)
	assert.Equal(t, TUS, k)

	k, err = ParseKind(" RUS ")
	require.NoError(t, err)
	assert.Equal(t, RUS, k)
	assert.Equal(t, "RUS", k.String())
	assert.Equal(t, "rus", k.Slug())

	_, err = ParseKind("xus")
	assert.Error(t, err)
}
