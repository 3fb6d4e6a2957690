package config

import "testing"

func validRaw() raw {
	var r raw
	r.Box.Sides = [3]float64{1, 1, 1}
	r.Workers.Count = 4
	r.Photons.PerIteration = 1000
	r.Photons.JobSizeHint = 10
	r.Photons.MaxIterations = 20
	r.Photons.Tolerance = 1e-4
	r.Photons.LuminosityHz = 1e49
	r.AtomicDataPath = "atomicdata.toml"
	return r
}

func TestFromRawAcceptsAValidConfig(t *testing.T) {
	if _, err := fromRaw(validRaw()); err != nil {
		t.Fatalf("fromRaw: %v", err)
	}
}

func TestFromRawRejectsNonPositiveBoxSide(t *testing.T) {
	r := validRaw()
	r.Box.Sides[1] = 0
	if _, err := fromRaw(r); err == nil {
		t.Fatal("expected an error for a zero box side")
	}
}

func TestFromRawRejectsZeroWorkers(t *testing.T) {
	r := validRaw()
	r.Workers.Count = 0
	if _, err := fromRaw(r); err == nil {
		t.Fatal("expected an error for zero workers")
	}
}

func TestFromRawRejectsMissingAtomicDataPath(t *testing.T) {
	r := validRaw()
	r.AtomicDataPath = ""
	if _, err := fromRaw(r); err == nil {
		t.Fatal("expected an error for a missing atomic data path")
	}
}

func TestFromRawRejectsNegativeAbundance(t *testing.T) {
	r := validRaw()
	r.Abundances.He = -0.1
	if _, err := fromRaw(r); err == nil {
		t.Fatal("expected an error for a negative abundance")
	}
}

func TestFromRawDefaultsJobSizeHint(t *testing.T) {
	r := validRaw()
	r.Photons.JobSizeHint = 0
	cfg, err := fromRaw(r)
	if err != nil {
		t.Fatalf("fromRaw: %v", err)
	}
	if cfg.JobSizeHint != 1 {
		t.Errorf("JobSizeHint = %d, want 1", cfg.JobSizeHint)
	}
}
