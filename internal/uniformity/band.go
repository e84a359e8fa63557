package uniformity

import (
	"fmt"
	"math"
	"strings"
)

// Band is one of the ten fixed score ranges used for display and grouping.
// Band 0 is [0.0, 0.1) and band 9 is [0.9, 1.0].
type Band int

// NumBands is the number of score bands.
const NumBands = 10

// NoBand is assigned to scores that are not a number.
const NoBand Band = -1

// bandEdges are the lower bounds of bands 1 through 9. The outer edges are
// unbounded so out-of-range scores land in the first or last band.
var bandEdges = [NumBands - 1]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

var bandLabels = [NumBands]string{
	"0.0 - 0.1", "0.1 - 0.2", "0.2 - 0.3", "0.3 - 0.4", "0.4 - 0.5",
	"0.5 - 0.6", "0.6 - 0.7", "0.7 - 0.8", "0.8 - 0.9", "0.9 - 1.0",
}

// BandFor buckets a score. Bands are right-open except the top one, so a
// score of exactly 0.9 belongs to band 9.
func BandFor(score float64) Band {
	if math.IsNaN(score) {
		return NoBand
	}
	for i, edge := range bandEdges {
		if score < edge {
			return Band(i)
		}
	}
	return NumBands - 1
}

// Bands returns every band in ascending order.
func Bands() []Band {
	out := make([]Band, NumBands)
	for i := range out {
		out[i] = Band(i)
	}
	return out
}

// Valid reports whether b is one of the ten bands.
func (b Band) Valid() bool {
	return b >= 0 && b < NumBands
}

func (b Band) String() string {
	if !b.Valid() {
		return ""
	}
	return bandLabels[b]
}

// MarshalText encodes the band as its display label.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a display label.
func (b *Band) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*b = NoBand
		return nil
	}
	for i, l := range bandLabels {
		if l == s {
			*b = Band(i)
			return nil
		}
	}
	return fmt.Errorf("unknown score band %q", s)
}

// Kind selects one of the two composite scores.
type Kind int

const (
	TUS Kind = iota
	RUS
)

func (k Kind) String() string {
	if k == RUS {
		return "RUS"
	}
	return "TUS"
}

// Slug is the lowercase form used in URLs and file names.
func (k Kind) Slug() string {
	return strings.ToLower(k.String())
}

// ParseKind accepts "tus" or "rus" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TUS":
		return TUS, nil
	case "RUS":
		return RUS, nil
	}
	return 0, fmt.Errorf("unknown score kind %q", s)
}
