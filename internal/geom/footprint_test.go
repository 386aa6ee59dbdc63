package geom

import (
	"strings"
	"testing"
)

func TestFootprintHasFiveClosedVertices(t *testing.T) {
	gt := [6]float64{300000, 10, 0, 8800000, 0, -10}
	poly := Footprint(gt, 100, 200)

	if len(poly) != 1 {
		t.Fatalf("expected a single ring, got %d", len(poly))
	}
	ring := poly[0]
	if len(ring) != 5 {
		t.Fatalf("expected 5 vertices, got %d", len(ring))
	}
	if ring[0] != ring[4] {
		t.Fatalf("ring not closed: first %v, last %v", ring[0], ring[4])
	}

	want := [][2]float64{
		{300000, 8800000},
		{301000, 8800000},
		{301000, 8798000},
		{300000, 8798000},
	}
	for i, w := range want {
		if ring[i][0] != w[0] || ring[i][1] != w[1] {
			t.Fatalf("vertex %d: got %v, want %v", i, ring[i], w)
		}
	}
}

func TestFootprintAppliesRotationTerms(t *testing.T) {
	gt := [6]float64{100, 1, 0.5, 200, 0.25, -1}
	poly := Footprint(gt, 10, 20)
	ring := poly[0]

	// corner (width, height) = (10, 20)
	wantX := 100 + 10*1 + 20*0.5
	wantY := 200 + 10*0.25 + 20*-1
	if ring[2][0] != wantX || ring[2][1] != wantY {
		t.Fatalf("corner (w,h): got %v, want (%v, %v)", ring[2], wantX, wantY)
	}
}

func TestFootprintWKT(t *testing.T) {
	gt := [6]float64{0, 1, 0, 0, 0, -1}
	s := FootprintWKT(gt, 2, 2)
	if !strings.HasPrefix(s, "POLYGON") {
		t.Fatalf("expected POLYGON wkt, got %q", s)
	}
}

func TestRoundWKT(t *testing.T) {
	in := "POLYGON ((149.123456789 -35.987654321, 150.1 -36.12345))"
	got := RoundWKT(in)
	want := "POLYGON ((149.1234 -35.9876, 150.1 -36.1234))"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
