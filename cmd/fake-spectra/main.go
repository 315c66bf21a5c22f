/*fake-spectra loads one particle species from a cosmological Gadget-2
snapshot and either prints summary statistics about it or dumps its fields to
compressed cache files for downstream spectra tooling.
*/
package main

import (
	"github.com/spf13/cobra"

	"github.com/jibanCat/fake-spectra/lib/config"
	g_error "github.com/jibanCat/fake-spectra/lib/error"
)

var (
	configPath string

	flagSnapshot string
	flagSpecies  int
	flagStart    int64
	flagMaxRead  int64
	flagChunk    int64
	flagCache    string
)

var rootCmd = &cobra.Command{
	Use:   "fake-spectra",
	Short: "Load particle data from cosmological simulation snapshots",
	Long: `fake-spectra loads positions, velocities, masses, and chemistry for one
particle species from a Gadget-2 snapshot, possibly split across multiple
files, and derives the cosmological parameters downstream spectra analysis
needs. Snapshots can be walked in windows, so arbitrarily large species fit
in bounded memory.

Commands:
  stats   Load a window and print the snapshot's cosmology and field summaries
  dump    Walk a species in windows and write each one to a compressed cache`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		g_error.External("%s", err.Error())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (see lib/config for the format)")
	rootCmd.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "",
		"snapshot base name, overriding the config")
	rootCmd.PersistentFlags().IntVar(&flagSpecies, "species", -1,
		"particle type to load, overriding the config")
	rootCmd.PersistentFlags().Int64Var(&flagStart, "start", -1,
		"first particle index to load, overriding the config")
	rootCmd.PersistentFlags().Int64Var(&flagMaxRead, "max-read", -1,
		"cap on the number of particles loaded, overriding the config")
	rootCmd.PersistentFlags().Int64Var(&flagChunk, "chunk", -1,
		"window size for chunked loads, overriding the config")
	rootCmd.PersistentFlags().StringVar(&flagCache, "out", "",
		"cache base name, overriding the config")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(dumpCmd)
}

// loadConfig reads the config file, if one was given, and applies the flag
// overrides. Fatal on invalid configuration: there is nothing to recover to.
func loadConfig() *config.Config {
	c := config.Default()
	if configPath != "" {
		var err error
		c, err = config.Read(configPath)
		if err != nil { g_error.External("%s", err.Error()) }
	}

	if flagSnapshot != "" { c.Snapshot.Path = flagSnapshot }
	if flagSpecies >= 0 { c.Snapshot.Species = flagSpecies }
	if flagStart >= 0 { c.Load.Start = flagStart }
	if flagMaxRead >= 0 { c.Load.MaxRead = flagMaxRead }
	if flagChunk > 0 { c.Load.Chunk = flagChunk }
	if flagCache != "" { c.Output.Cache = flagCache }

	if err := c.Check(); err != nil { g_error.External("%s", err.Error()) }
	if c.Snapshot.Path == "" {
		g_error.External("No snapshot was given. Set path in the config " +
			"file or pass --snapshot.")
	}
	return c
}
