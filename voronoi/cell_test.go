package voronoi

import (
	"math"
	"testing"

	cmac "github.com/knut0815/cmacionize"
)

func unitBox() cmac.Box {
	return cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
}

func TestNewCellIsTheFullBox(t *testing.T) {
	c := NewCell(cmac.Vec3(0.5, 0.5, 0.5), unitBox())
	if err := c.Finalize(1e-10); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if math.Abs(c.Volume()-1) > 1e-9 {
		t.Errorf("Volume() = %g, want 1", c.Volume())
	}
	if len(c.Faces()) != 6 {
		t.Errorf("got %d faces, want 6 (one per wall)", len(c.Faces()))
	}
}

func TestIntersectBisectsTwoGenerators(t *testing.T) {
	// Two generators symmetric about the box center along x: the clip
	// plane should be the x=0.5 plane, halving the box volume.
	c := NewCell(cmac.Vec3(0.25, 0.5, 0.5), unitBox())
	offset := cmac.Vec3(0.5, 0, 0) // from 0.25 to 0.75
	if err := c.Intersect(offset, 1); err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if err := c.Finalize(1e-10); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if math.Abs(c.Volume()-0.5) > 1e-9 {
		t.Errorf("Volume() = %g, want 0.5", c.Volume())
	}
	// Expect 6 faces: the clip plane plus the 5 remaining box walls (the
	// far x wall is now entirely beyond the clip plane and disappears).
	if len(c.Faces()) != 6 {
		t.Errorf("got %d faces, want 6", len(c.Faces()))
	}
}

func TestIntersectDegenerateOffsetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a zero offset")
		}
	}()
	c := NewCell(cmac.Vec3(0.5, 0.5, 0.5), unitBox())
	_ = c.Intersect(cmac.CoordinateVector{}, 1)
}

func TestMaxRadiusSquaredShrinksAsCellIsClipped(t *testing.T) {
	// Off-centre generator: its farthest vertices are the x=1 corners,
	// which the clip at x=0.5 removes.
	c := NewCell(cmac.Vec3(0.3, 0.5, 0.5), unitBox())
	before := c.MaxRadiusSquared()
	if err := c.Intersect(cmac.Vec3(0.4, 0, 0), 1); err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	after := c.MaxRadiusSquared()
	if after >= before {
		t.Errorf("MaxRadiusSquared() did not shrink after clipping: before=%g after=%g", before, after)
	}
}

func TestFaceSurfaceAreaSumIsPositive(t *testing.T) {
	c := NewCell(cmac.Vec3(0.5, 0.5, 0.5), unitBox())
	if err := c.Finalize(1e-10); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	total := 0.0
	for _, f := range c.Faces() {
		if f.SurfaceArea <= 0 {
			t.Errorf("face %d has non-positive surface area %g", f.Neighbour, f.SurfaceArea)
		}
		total += f.SurfaceArea
	}
	// Unit cube: total surface area is 6.
	if math.Abs(total-6) > 1e-9 {
		t.Errorf("total surface area = %g, want 6", total)
	}
}
