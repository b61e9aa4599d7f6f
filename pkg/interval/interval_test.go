package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", New(at(9, 0), at(10, 0)), New(at(11, 0), at(12, 0)), false},
		{"touching endpoints do not overlap", New(at(9, 0), at(10, 0)), New(at(10, 0), at(11, 0)), false},
		{"partial overlap", New(at(9, 0), at(10, 0)), New(at(9, 30), at(10, 30)), true},
		{"contained", New(at(9, 0), at(12, 0)), New(at(10, 0), at(11, 0)), true},
		{"identical", New(at(9, 0), at(10, 0)), New(at(9, 0), at(10, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestWithin(t *testing.T) {
	i := New(at(9, 0), at(10, 0))

	assert.True(t, Within(at(9, 30), i))
	assert.True(t, Within(at(9, 0), i), "start endpoint is inclusive")
	assert.True(t, Within(at(10, 0), i), "end endpoint is inclusive")
	assert.False(t, Within(at(8, 59), i))
	assert.False(t, Within(at(10, 1), i))
}

func TestSubtract(t *testing.T) {
	a := New(at(9, 0), at(17, 0))

	t.Run("no overlap leaves original", func(t *testing.T) {
		got := Subtract(a, New(at(18, 0), at(19, 0)))
		assert.Equal(t, []Interval{a}, got)
	})

	t.Run("middle split yields two pieces", func(t *testing.T) {
		got := Subtract(a, New(at(12, 0), at(13, 0)))
		assert.Equal(t, []Interval{
			New(at(9, 0), at(12, 0)),
			New(at(13, 0), at(17, 0)),
		}, got)
	})

	t.Run("head trim", func(t *testing.T) {
		got := Subtract(a, New(at(8, 0), at(11, 0)))
		assert.Equal(t, []Interval{New(at(11, 0), at(17, 0))}, got)
	})

	t.Run("tail trim", func(t *testing.T) {
		got := Subtract(a, New(at(16, 0), at(18, 0)))
		assert.Equal(t, []Interval{New(at(9, 0), at(16, 0))}, got)
	})

	t.Run("full cover leaves nothing", func(t *testing.T) {
		got := Subtract(a, New(at(8, 0), at(18, 0)))
		assert.Empty(t, got)
	})
}
