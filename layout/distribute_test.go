package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestResolve(t *testing.T) {
	cases := []struct {
		name      string
		specs     []DimensionSpec
		natural   []float64
		available float64
		want      []float64
	}{
		{
			name:      "absolute percent star",
			specs:     []DimensionSpec{Abs(50), Abs(50), Perc(25), Star()},
			natural:   []float64{0, 0, 0, 0},
			available: 200,
			want:      []float64{50, 50, 50, 50},
		},
		{
			name:      "stars share evenly",
			specs:     []DimensionSpec{Abs(20), Star(), Star()},
			natural:   []float64{5, 5, 5},
			available: 100,
			want:      []float64{20, 40, 40},
		},
		{
			name:      "auto keeps content size and leaves slack to star",
			specs:     []DimensionSpec{Auto(), Star()},
			natural:   []float64{30, 0},
			available: 100,
			want:      []float64{30, 70},
		},
		{
			name:      "oversized auto is redistributed",
			specs:     []DimensionSpec{Auto(), Auto(), Auto()},
			natural:   []float64{10, 60, 20},
			available: 90,
			want:      []float64{10, 60, 20},
		},
		{
			// The star track gets its natural size once nothing is left.
			name:      "star after exhausted auto",
			specs:     []DimensionSpec{Auto(), Auto(), Star()},
			natural:   []float64{30, 100, 10},
			available: 120,
			want:      []float64{30, 100, 10},
		},
		{
			name:      "no star leaves space unused",
			specs:     []DimensionSpec{Abs(10), Auto()},
			natural:   []float64{10, 15},
			available: 100,
			want:      []float64{10, 15},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Resolve(c.specs, c.natural, c.available)
			if diff := cmp.Diff(c.want, got, approx); diff != "" {
				t.Fatalf("allotment mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Auto tracks that exceed their share are measured again with the
// leftover pool split by their first-pass size, never below that size.
func TestDistributeRemeasuresOversizedAuto(t *testing.T) {
	specs := []DimensionSpec{Auto(), Auto(), Star()}
	type call struct {
		i      int
		extent float64
		again  bool
	}
	cases := []struct {
		name      string
		available float64
		remeasure float64
		star      float64
	}{
		// share = 30; pool = 20 (slack of track 0) + 30 (share of track 1).
		{name: "pool covers the padded child", available: 90, remeasure: 50, star: 30},
		// share = 70/3; the pool is smaller than the 40mm the padded child needs.
		{name: "floor includes the outline", available: 70, remeasure: 40, star: 20},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var calls []call
			measure := func(i int, extent float64, again bool) (trackExtent, error) {
				calls = append(calls, call{i, extent, again})
				switch i {
				case 0:
					return trackExtent{full: 10, net: 10}, nil
				case 1:
					// 10mm padding around 30mm of unbreakable content.
					if again {
						return trackExtent{full: math.Max(extent, 40), net: math.Max(extent, 40) - 10}, nil
					}
					return trackExtent{full: 40, net: 30}, nil
				default:
					return trackExtent{full: 5, net: 5}, nil
				}
			}
			d, err := distribute(specs, c.available, measure, nil)
			require.NoError(t, err)

			require.Len(t, calls, 4)
			assert.Equal(t, 1, calls[2].i)
			assert.True(t, calls[2].again)
			assert.InDelta(t, c.remeasure, calls[2].extent, 1e-9)
			assert.InDelta(t, c.remeasure, d.allotted[1], 1e-9)
			assert.InDelta(t, c.star, d.allotted[2], 1e-9, "star takes the rest")
			assert.InDelta(t, c.available, d.used, 1e-9)
		})
	}
}

func TestDistributeWarnsOnOverflow(t *testing.T) {
	var msgs []string
	warn := func(msg string, _ ...any) { msgs = append(msgs, msg) }
	measure := func(i int, extent float64, again bool) (trackExtent, error) {
		return trackExtent{full: 30, net: 30}, nil
	}
	_, err := distribute([]DimensionSpec{Abs(20)}, 100, measure, warn)
	require.NoError(t, err)
	assert.Equal(t, []string{"content exceeds fixed extent"}, msgs)

	msgs = nil
	_, err = distribute([]DimensionSpec{Abs(29.995)}, 100, measure, warn)
	require.NoError(t, err)
	assert.Empty(t, msgs, "rounding tolerance")
}

func TestDistributePropagatesMeasureError(t *testing.T) {
	measure := func(i int, extent float64, again bool) (trackExtent, error) {
		return trackExtent{}, errBoom
	}
	_, err := distribute([]DimensionSpec{Star()}, 100, measure, nil)
	assert.ErrorIs(t, err, errBoom)
}
