/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Package cmacutil wires the command-line interface together: a cobra
// command tree with viper-backed flag/environment/config-file binding,
// logrus logging, and an optional websocket status feed. It is the
// photoionization-domain analogue of inmaputil's Cfg/InitializeConfig,
// trimmed to the one thing this model does (run a simulation) instead of
// inmap's grid/preproc/cloud/sr command families.
package cmacutil

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/knut0815/cmacionize/config"
	"github.com/knut0815/cmacionize/density"
	"github.com/knut0815/cmacionize/driver"
	"github.com/knut0815/cmacionize/ionization"
	"github.com/knut0815/cmacionize/snapshot"
	"github.com/knut0815/cmacionize/transport"
	"github.com/knut0815/cmacionize/voronoi"

	cmac "github.com/knut0815/cmacionize"
)

// Version is the version number reported by the "version" subcommand.
const Version = "0.1.0"

// Cfg holds the root command and its viper-bound configuration, mirroring
// inmaputil.Cfg's shape: a *viper.Viper embedded alongside the cobra
// commands it feeds.
type Cfg struct {
	*viper.Viper

	Root, versionCmd, runCmd *cobra.Command
}

// InitializeConfig builds the command tree and binds its flags into viper,
// matching inmaputil.InitializeConfig's pattern of a flat options table fed
// into both pflag.FlagSet and viper.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "cmacionize",
		Short: "A Monte Carlo photoionization model.",
		Long: `cmacionize computes the ionization and temperature structure of a gas
given a set of radiation sources, using Monte Carlo photon transport over a
Voronoi tessellation of the simulation domain.

Configuration is read from a TOML file; use --config to set its path, or set
CMACIONIZE_CONFIG in the environment.`,
		DisableAutoGenTag: true,
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("cmacionize v%s\n", Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a simulation to convergence.",
		Long: `run loads the configuration file, builds a Voronoi grid with
randomly placed generators, seeds every cell with a uniform density and
temperature, and iterates photon transport and the ionization solver until
convergence or the iteration cap is reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cfg)
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.runCmd)

	flags := cfg.runCmd.Flags()
	addStringFlag(cfg.Viper, flags, "config", "", "path to the TOML configuration file")
	addIntFlag(cfg.Viper, flags, "generators", 1000, "number of Voronoi generator points to place uniformly in the box")
	addStringFlag(cfg.Viper, flags, "watch", "", "if set, an address (host:port) to serve a websocket status feed on")
	addStringFlag(cfg.Viper, flags, "loglevel", "info", "logrus level: debug, info, warn, error")

	cfg.SetEnvPrefix("CMACIONIZE")
	cfg.AutomaticEnv()

	return cfg
}

func addStringFlag(v *viper.Viper, flags *pflag.FlagSet, name, def, usage string) {
	flags.String(name, def, usage)
	v.BindPFlag(name, flags.Lookup(name))
}

func addIntFlag(v *viper.Viper, flags *pflag.FlagSet, name string, def int, usage string) {
	flags.Int(name, def, usage)
	v.BindPFlag(name, flags.Lookup(name))
}

// runSimulation is the body of the "run" subcommand: load config, build the
// grid and initial state, run the driver, and write a snapshot.
func runSimulation(cfg *Cfg) error {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.GetString("loglevel")); err == nil {
		log.SetLevel(level)
	}

	configPath := cfg.GetString("config")
	if configPath == "" {
		return fmt.Errorf("cmacutil: --config is required")
	}
	runCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	atomicData, err := LoadAtomicData(runCfg.AtomicDataPath)
	if err != nil {
		return err
	}

	generatorCount := cfg.GetInt("generators")
	if generatorCount < 1 {
		return fmt.Errorf("cmacutil: --generators must be at least 1, got %d", generatorCount)
	}

	grid, states, err := buildGrid(runCfg, generatorCount)
	if err != nil {
		return err
	}

	solver := ionization.Solver{
		Recombination:  atomicData.Recombination(),
		ChargeTransfer: atomicData.ChargeTransfer(),
		Abundances:     runCfg.Abundances,
	}

	source := uniformSource{
		position:     runCfg.Box.Center(),
		luminosity:   runCfg.Luminosity,
		frequency:    3.288e15, // Hz, the hydrogen Lyman limit: spec.md's reference spectrum stand-in.
		crossSection: 6.3e-22,  // m^2, the H ionization cross section at the Lyman limit.
	}

	params := driver.Params{
		WorkerCount:          runCfg.WorkerCount,
		Seed:                 runCfg.Seed,
		PhotonsPerIteration:  runCfg.PhotonsPerIteration,
		JobSizeHint:          runCfg.JobSizeHint,
		MaxIterations:        runCfg.MaxIterations,
		ConvergenceTolerance: runCfg.ConvergenceTolerance,
		Luminosity:           runCfg.Luminosity,
	}

	d, err := driver.New(grid, states, source, solver, params, log)
	if err != nil {
		return err
	}

	if watch := cfg.GetString("watch"); watch != "" {
		status := NewStatusServer(log)
		d.OnIteration = func(iteration int, convergence, walltime float64) {
			status.Broadcast(IterationStatus{Iteration: iteration, Convergence: convergence, Walltime: walltime})
		}
		go func() {
			log.WithField("addr", watch).Info("status server listening")
			if err := http.ListenAndServe(watch, status); err != nil {
				log.WithError(err).Warn("status server stopped")
			}
		}()
	}

	if err := d.Run(); err != nil {
		return err
	}

	if runCfg.SnapshotPath == "" {
		return nil
	}
	f, err := os.Create(runCfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("cmacutil: creating snapshot file: %w", err)
	}
	defer f.Close()
	return snapshot.Write(f, grid, d.States)
}

// buildGrid places generatorCount generators uniformly at random in the
// configured box, computes the Voronoi grid, and seeds every cell with a
// uniform density/temperature: the simplest concrete DensityFunction/
// VoronoiGeneratorDistribution pairing spec.md §9 leaves open, used here as
// the CLI's demo initial condition rather than a full snapshot reader.
func buildGrid(cfg *config.Config, generatorCount int) (*voronoi.Grid, []cmac.IonizationVariables, error) {
	rng := rand.New(rand.NewSource(int64(cfg.Seed)))
	grid := voronoi.NewGrid(cfg.Box, cfg.AnyPeriodic())

	for i := 0; i < generatorCount; i++ {
		pos := cmac.Vec3(
			cfg.Box.Anchor.X+rng.Float64()*cfg.Box.Sides.X,
			cfg.Box.Anchor.Y+rng.Float64()*cfg.Box.Sides.Y,
			cfg.Box.Anchor.Z+rng.Float64()*cfg.Box.Sides.Z,
		)
		grid.AddCell(pos)
	}

	if err := grid.ComputeGrid(cfg.WorkerCount); err != nil {
		return nil, nil, fmt.Errorf("cmacutil: computing grid: %w", err)
	}
	if err := grid.Finalize(); err != nil {
		return nil, nil, fmt.Errorf("cmacutil: finalizing grid: %w", err)
	}

	n := grid.NumCells()
	states := make([]cmac.IonizationVariables, n)
	for i := range states {
		states[i] = density.Values{
			NumberDensity:     1e8, // m^-3
			Temperature:       100, // K, cold neutral gas before the first solve
			NeutralFractionH:  1,
			NeutralFractionHe: 1,
		}.IonizationVariables()
	}
	return grid, states, nil
}

// uniformSource is a single isotropic point source, the simplest
// transport.Source a demo run needs: every packet starts at the same
// position with a direction uniform on the sphere and a fixed frequency.
type uniformSource struct {
	position     cmac.CoordinateVector
	luminosity   float64
	frequency    float64
	crossSection float64
}

func (s uniformSource) Sample(u transport.UniformSource) (position, direction cmac.CoordinateVector, frequency float64) {
	cosTheta := 2*u.Uniform() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * u.Uniform()
	direction = cmac.Vec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	return s.position, direction, s.frequency
}

func (s uniformSource) Luminosity() float64 { return s.luminosity }

func (s uniformSource) CrossSections(frequency float64) (sigma [cmac.NumberOfIonNames]float64, heCorr float64) {
	sigma[cmac.IonHn] = s.crossSection
	return sigma, 0
}
