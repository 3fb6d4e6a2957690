package driver

import (
	"io/ioutil"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/knut0815/cmacionize/density"
	"github.com/knut0815/cmacionize/ionization"
	"github.com/knut0815/cmacionize/transport"
	"github.com/knut0815/cmacionize/voronoi"

	cmac "github.com/knut0815/cmacionize"
)

// isotropicSource emits every packet from a fixed position with a random
// direction uniform on the unit sphere, a fixed frequency, and a fixed H
// photoionization cross section (helium abundance is zero in these tests,
// so only IonHn matters).
type isotropicSource struct {
	position     cmac.CoordinateVector
	crossSection float64
	luminosity   float64
}

func (s isotropicSource) Sample(u transport.UniformSource) (position, direction cmac.CoordinateVector, frequency float64) {
	cosTheta := 2*u.Uniform() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * u.Uniform()
	direction = cmac.Vec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	return s.position, direction, 3.3e15
}

func (s isotropicSource) Luminosity() float64 { return s.luminosity }

func (s isotropicSource) CrossSections(frequency float64) (sigma [cmac.NumberOfIonNames]float64, heCorr float64) {
	sigma[cmac.IonHn] = s.crossSection
	return sigma, 0
}

// constantRecombination gives every ion the same recombination rate,
// enough to drive findH0 to a non-trivial fixed point without depending on
// a real atomic-data table.
type constantRecombination struct{ alpha float64 }

func (r constantRecombination) RecombinationRate(ion cmac.IonName, temperature float64) float64 {
	return r.alpha
}

// zeroChargeTransfer reports no charge-transfer reactions at all: these
// single-H-cell tests never exercise the coolant cascades.
type zeroChargeTransfer struct{}

func (zeroChargeTransfer) IonizationRate(z1, z2 int, temperature float64) float64   { return 0 }
func (zeroChargeTransfer) RecombinationRate(z1, z2 int, temperature float64) float64 { return 0 }

func singleCellDriver(t *testing.T, luminosity float64) *Driver {
	t.Helper()
	box := cmac.Box{Anchor: cmac.Vec3(0, 0, 0), Sides: cmac.Vec3(1, 1, 1)}
	grid := voronoi.NewGrid(box, false)
	grid.AddCell(cmac.Vec3(0.5, 0.5, 0.5))
	if err := grid.ComputeGrid(1); err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}
	if err := grid.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	states := []cmac.IonizationVariables{
		density.Values{NumberDensity: 1e6, Temperature: 1e4}.IonizationVariables(),
	}

	source := isotropicSource{position: cmac.Vec3(0.5, 0.5, 0.5), crossSection: 6e-22, luminosity: luminosity}
	solver := ionization.Solver{
		Recombination:  constantRecombination{alpha: 2.6e-19},
		ChargeTransfer: zeroChargeTransfer{},
		Abundances:     cmac.NewAbundances(0, 0, 0, 0, 0, 0),
	}

	logger := logrus.New()
	logger.Out = ioutil.Discard

	params := Params{
		WorkerCount:          2,
		Seed:                 1,
		PhotonsPerIteration:  2000,
		JobSizeHint:          10,
		MaxIterations:        15,
		ConvergenceTolerance: 1e-2,
		Luminosity:           luminosity,
	}

	d, err := New(grid, states, source, solver, params, logrus.FieldLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestRunConvergesOnASingleFullyIonizedCell(t *testing.T) {
	d := singleCellDriver(t, 1e55)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	h0 := d.States[0].IonicFractions[cmac.IonHn]
	if h0 > 0.1 {
		t.Errorf("IonicFractions[H] = %g, want close to 0 for an overwhelming luminosity", h0)
	}
}

func TestRunFailsOnZeroTotalWeight(t *testing.T) {
	d := singleCellDriver(t, 1e55)
	d.Params.PhotonsPerIteration = 0
	if err := d.Run(); err == nil {
		t.Fatal("expected an error when no packets are shot")
	}
}
