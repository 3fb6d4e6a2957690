package cmacutil

import "testing"

func TestInitializeConfigBuildsTheExpectedCommandTree(t *testing.T) {
	cfg := InitializeConfig()

	if cfg.Root.Use != "cmacionize" {
		t.Errorf("Root.Use = %q, want cmacionize", cfg.Root.Use)
	}

	names := map[string]bool{}
	for _, c := range cfg.Root.Commands() {
		names[c.Use] = true
	}
	for _, want := range []string{"version", "run"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestInitializeConfigBindsRunFlagDefaults(t *testing.T) {
	cfg := InitializeConfig()

	if got := cfg.GetInt("generators"); got != 1000 {
		t.Errorf("generators default = %d, want 1000", got)
	}
	if got := cfg.GetString("loglevel"); got != "info" {
		t.Errorf("loglevel default = %q, want info", got)
	}
	if got := cfg.GetString("watch"); got != "" {
		t.Errorf("watch default = %q, want empty", got)
	}
}

func TestRunSimulationRequiresConfigFlag(t *testing.T) {
	cfg := InitializeConfig()
	if err := runSimulation(cfg); err == nil {
		t.Fatal("expected an error when --config is unset")
	}
}
