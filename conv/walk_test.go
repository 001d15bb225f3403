package conv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraversal(t *testing.T) {
	tests := []struct {
		name            string
		n, stride       int
		ss, ds          int
		wantForward     bool
		wantOverlapping int
	}{
		{"same size", 10, 0, 4, 4, true, 10},
		{"strided", 10, 8, 2, 4, true, 10},
		{"shrink by half", 10, 0, 4, 2, true, 1},
		{"shrink slightly", 10, 0, 8, 7, true, 7},
		{"grow double", 10, 0, 2, 4, false, 1},
		{"grow slightly", 10, 0, 7, 8, false, 7},
		{"few elements", 3, 0, 7, 8, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward, olap := traversal(tt.n, tt.stride, tt.ss, tt.ds)
			assert.Equal(t, tt.wantForward, forward)
			assert.Equal(t, tt.wantOverlapping, olap)
		})
	}
}

// TestTraversalNeverClobbersUnreadSource replays every packed traversal and
// checks that no destination write reaches a source element that has not
// been read yet, and that only the reported overlapping elements touch
// their own source.
func TestTraversalNeverClobbersUnreadSource(t *testing.T) {
	for ss := 1; ss <= 9; ss++ {
		for ds := 1; ds <= 9; ds++ {
			for n := 1; n <= 12; n++ {
				forward, olap := traversal(n, 0, ss, ds)
				done := make([]bool, n)
				for k := 0; k < n; k++ {
					i := k
					if !forward {
						i = n - 1 - k
					}
					dlo, dhi := i*ds, (i+1)*ds
					for j := 0; j < n; j++ {
						if done[j] {
							continue
						}
						slo, shi := j*ss, (j+1)*ss
						hit := dlo < shi && slo < dhi
						if j == i {
							if hit {
								require.Less(t, i, olap, "ss=%d ds=%d n=%d element %d overlaps itself", ss, ds, n, i)
							}
							continue
						}
						require.False(t, hit, "ss=%d ds=%d n=%d element %d clobbers source %d", ss, ds, n, i, j)
					}
					done[i] = true
				}
			}
		}
	}
}

func TestWalkInPlace(t *testing.T) {
	for _, sizes := range [][2]int{{3, 5}, {5, 3}, {4, 4}, {1, 8}, {8, 1}} {
		ss, ds := sizes[0], sizes[1]
		n := 7
		buf := make([]byte, n*max(ss, ds))
		for i := 0; i < n; i++ {
			for b := 0; b < ss; b++ {
				buf[i*ss+b] = byte(i + 1)
			}
		}

		tmp := make([]byte, ds)
		err := walk(n, buf, 0, ss, ds, tmp, func(i int, s, d []byte) error {
			v := s[0]
			for b := range d {
				d[b] = v
			}
			return nil
		})
		require.NoError(t, err)

		want := make([]byte, n*ds)
		for i := 0; i < n; i++ {
			for b := 0; b < ds; b++ {
				want[i*ds+b] = byte(i + 1)
			}
		}
		assert.True(t, bytes.Equal(want, buf[:n*ds]), "ss=%d ds=%d got %v", ss, ds, buf[:n*ds])
	}
}
