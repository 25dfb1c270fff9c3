package spatial

import (
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func line(n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: float64(i)}
	}
	return pts
}

func TestRadius(t *testing.T) {
	idx := Build(line(10))
	tests := []struct {
		name string
		q    r3.Vec
		r    float64
		want []int
	}{
		{"self only", r3.Vec{X: 4}, 0, []int{4}},
		{"inclusive boundary", r3.Vec{X: 4}, 1, []int{4, 3, 5}},
		{"between points", r3.Vec{X: 4.5}, 1.5, []int{4, 5, 3, 6}},
		{"off axis", r3.Vec{X: 0, Y: 3}, 3, []int{0}},
		{"none", r3.Vec{X: 100}, 2, []int{}},
		{"negative radius", r3.Vec{X: 4}, -1, nil},
		{"nan radius", r3.Vec{X: 4}, math.NaN(), nil},
		{"nan query", r3.Vec{X: math.NaN()}, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.Radius(tt.q, tt.r)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Radius(%v, %v) = %v, want %v", tt.q, tt.r, got, tt.want)
			}
		})
	}
}

func TestKNearest(t *testing.T) {
	idx := Build(line(10))
	tests := []struct {
		name string
		q    r3.Vec
		k    int
		want []int
	}{
		{"one", r3.Vec{X: 7.1}, 1, []int{7}},
		{"ties by index", r3.Vec{X: 4.5}, 1, []int{4}},
		{"three", r3.Vec{X: 4}, 3, []int{4, 3, 5}},
		{"more than available", r3.Vec{X: 0}, 20, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"zero k", r3.Vec{X: 0}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.KNearest(tt.q, tt.k); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("KNearest(%v, %d) = %v, want %v", tt.q, tt.k, got, tt.want)
			}
		})
	}
}

func TestKNearestTiesOnCut(t *testing.T) {
	// Four points equidistant from the origin; the two lowest indices win.
	idx := Build([]r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}})
	for i := 0; i < 10; i++ {
		if got := idx.KNearest(r3.Vec{}, 2); !reflect.DeepEqual(got, []int{0, 1}) {
			t.Fatalf("KNearest() = %v, want [0 1]", got)
		}
	}
}

func TestHybrid(t *testing.T) {
	idx := Build(line(10))
	if got, want := idx.Hybrid(r3.Vec{X: 5}, 3, 4), []int{5, 4, 6, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Hybrid() = %v, want %v", got, want)
	}
	if got := idx.Hybrid(r3.Vec{X: 5}, 3, 0); got != nil {
		t.Errorf("Hybrid() with maxNN 0 = %v, want nil", got)
	}
}

func TestEmptyAndInvalid(t *testing.T) {
	empty := Build(nil)
	if got := empty.Radius(r3.Vec{}, 10); len(got) != 0 {
		t.Errorf("empty Radius() = %v, want none", got)
	}
	if got := empty.KNearest(r3.Vec{}, 3); len(got) != 0 {
		t.Errorf("empty KNearest() = %v, want none", got)
	}

	bad := Build([]r3.Vec{{X: 1}, {Y: math.Inf(1)}})
	if bad.Valid() {
		t.Error("Valid() = true for snapshot with infinite coordinate")
	}
	if got := bad.Radius(r3.Vec{X: 1}, 10); got != nil {
		t.Errorf("invalid Radius() = %v, want nil", got)
	}
	if got := bad.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestSnapshotIsCopied(t *testing.T) {
	pts := line(3)
	idx := Build(pts)
	pts[0] = r3.Vec{X: 100}
	if got := idx.Point(0); got != (r3.Vec{}) {
		t.Errorf("Point(0) = %v after caller mutation, want origin", got)
	}
}

func TestRadiusMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	pts := make([]r3.Vec, 500)
	for i := range pts {
		pts[i] = r3.Vec{X: rnd.Float64() * 10, Y: rnd.Float64() * 10, Z: rnd.Float64() * 10}
	}
	idx := Build(pts)
	for trial := 0; trial < 20; trial++ {
		q := pts[rnd.Intn(len(pts))]
		const r = 1.5
		var want []int
		for i, p := range pts {
			if r3.Norm(r3.Sub(p, q)) <= r {
				want = append(want, i)
			}
		}
		got := idx.Radius(q, r)
		sorted := append([]int(nil), got...)
		sort.Ints(sorted)
		if !reflect.DeepEqual(sorted, want) {
			t.Fatalf("Radius(%v) found %d points, brute force %d", q, len(got), len(want))
		}
		for i := 1; i < len(got); i++ {
			if r3.Norm2(r3.Sub(pts[got[i]], q)) < r3.Norm2(r3.Sub(pts[got[i-1]], q)) {
				t.Fatalf("Radius() result not ordered by distance at %d", i)
			}
		}
	}
}
