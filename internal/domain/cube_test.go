package domain

import (
	"math"
	"testing"
)

func TestCubeIndexing(t *testing.T) {
	c := NewCube(3, 2, 4)
	c.Set(2, 1, 3, 42)
	if got := c.At(2, 1, 3); got != 42 {
		t.Fatalf("got %v, want 42", got)
	}
	if len(c.Data) != 3*2*4 {
		t.Fatalf("unexpected data length %d", len(c.Data))
	}
}

func TestCubeCloneIsIndependent(t *testing.T) {
	c := NewCube(2, 2, 1)
	c.Set(0, 0, 0, 1)
	clone := c.Clone()
	clone.Set(0, 0, 0, 9)
	if c.At(0, 0, 0) != 1 {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestNaNFraction(t *testing.T) {
	c := NewCube(2, 2, 1)
	nan := float32(math.NaN())
	c.Set(0, 0, 0, nan)
	c.Set(1, 0, 0, nan)
	if got := c.NaNFraction(); got != 0.5 {
		t.Fatalf("got %v, want 0.5", got)
	}
	if got := (Cube{}).NaNFraction(); got != 0 {
		t.Fatalf("empty cube fraction: got %v, want 0", got)
	}
}

func TestAlignedInputClone(t *testing.T) {
	in := AlignedInput{Source: "x", Data: NewCube(1, 1, 1), NoDataFraction: 0.25}
	clone := in.Clone()
	clone.Data.Set(0, 0, 0, 7)
	if in.Data.At(0, 0, 0) != 0 {
		t.Fatalf("clone mutation leaked into original")
	}
	if clone.Source != "x" || clone.NoDataFraction != 0.25 {
		t.Fatalf("clone lost metadata: %+v", clone)
	}
}
