package voronoi

import (
	"math"
	"testing"

	cmac "github.com/knut0815/cmacionize"
)

func TestComputeGridVolumeSumInvariant(t *testing.T) {
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
	g := NewGrid(box, false)

	generators := []cmac.CoordinateVector{
		cmac.Vec3(0.1, 0.1, 0.1),
		cmac.Vec3(0.9, 0.1, 0.1),
		cmac.Vec3(0.1, 0.9, 0.1),
		cmac.Vec3(0.9, 0.9, 0.1),
		cmac.Vec3(0.1, 0.1, 0.9),
		cmac.Vec3(0.9, 0.1, 0.9),
		cmac.Vec3(0.1, 0.9, 0.9),
		cmac.Vec3(0.9, 0.9, 0.9),
		cmac.Vec3(0.5, 0.5, 0.5),
	}
	for _, p := range generators {
		g.AddCell(p)
	}

	if err := g.ComputeGrid(4); err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestGetIndexRoundTrip(t *testing.T) {
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
	g := NewGrid(box, false)

	generators := []cmac.CoordinateVector{
		cmac.Vec3(0.2, 0.2, 0.2),
		cmac.Vec3(0.8, 0.2, 0.2),
		cmac.Vec3(0.2, 0.8, 0.2),
		cmac.Vec3(0.5, 0.5, 0.8),
	}
	for _, p := range generators {
		g.AddCell(p)
	}
	if err := g.ComputeGrid(2); err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}

	for i, p := range generators {
		got, err := g.GetIndex(p)
		if err != nil {
			t.Fatalf("GetIndex(%v): %v", p, err)
		}
		if int(got) != i {
			t.Errorf("GetIndex(generator %d) = %d, want %d", i, got, i)
		}
	}
}

func TestComputeGridVolumesDoNotDependOnWorksize(t *testing.T) {
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(2, 2, 2)}
	generators := []cmac.CoordinateVector{
		cmac.Vec3(0.5, 0.5, 0.5),
		cmac.Vec3(1.5, 0.5, 0.5),
		cmac.Vec3(0.5, 1.5, 0.5),
		cmac.Vec3(1.5, 1.5, 0.5),
		cmac.Vec3(0.5, 0.5, 1.5),
		cmac.Vec3(1.5, 0.5, 1.5),
	}

	volumesFor := func(worksize int) []float64 {
		g := NewGrid(box, false)
		for _, p := range generators {
			g.AddCell(p)
		}
		if err := g.ComputeGrid(worksize); err != nil {
			t.Fatalf("ComputeGrid(%d): %v", worksize, err)
		}
		vs := make([]float64, g.NumCells())
		for i := range vs {
			vs[i] = g.GetCell(uint32(i)).Volume()
		}
		return vs
	}

	serial := volumesFor(1)
	parallel := volumesFor(4)
	for i := range serial {
		if math.Abs(serial[i]-parallel[i]) > 1e-9 {
			t.Errorf("cell %d volume depends on worksize: serial=%g parallel=%g", i, serial[i], parallel[i])
		}
	}
}

func TestTraceExitsThroughAFace(t *testing.T) {
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
	g := NewGrid(box, false)
	g.AddCell(cmac.Vec3(0.5, 0.5, 0.5))
	if err := g.ComputeGrid(1); err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}

	// Single generator: its cell is the whole box. A ray along +x from
	// the center must exit at x=1, a distance of 0.5 away, through the
	// right wall.
	dist, face, err := g.Trace(0, cmac.Vec3(0.5, 0.5, 0.5), cmac.Vec3(1, 0, 0))
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	if math.Abs(dist-0.5) > 1e-9 {
		t.Errorf("Trace distance = %g, want 0.5", dist)
	}
	if face.Neighbour != WallRight {
		t.Errorf("Trace exited through neighbour %d, want WallRight (%d)", face.Neighbour, WallRight)
	}
}

func TestGetWallNormalUnknownSentinelPanics(t *testing.T) {
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
	g := NewGrid(box, false)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a non-wall sentinel")
		}
	}()
	g.GetWallNormal(42)
}
