package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	g_error "github.com/jibanCat/fake-spectra/lib/error"
	"github.com/jibanCat/fake-spectra/lib/load"
	"github.com/jibanCat/fake-spectra/lib/snapio"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Load a window and print cosmology and field summaries",
	Run:   runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	c := loadConfig()

	snap, err := snapio.Open(c.Snapshot.Path, c.Context())
	if err != nil { g_error.External("%s", err.Error()) }

	hd := snap.Header()
	fmt.Printf("NumPart = %d\n", hd.NPart)
	fmt.Printf("Masses = %g\n", hd.Mass)
	fmt.Printf("Redshift = %g, Omega_M = %g, Omega_L = %g\n",
		hd.Redshift, hd.Omega0, hd.OmegaLambda)
	fmt.Printf("Expansion factor = %f\n", hd.Time)
	fmt.Printf("Hubble = %g, Box = %g\n", hd.HubbleParam, hd.BoxSize)

	buf, n, cosmo, err := load.Snapshot(
		snap, c.Snapshot.Species, c.Load.Start, c.Load.MaxRead,
		c.Context().Variant,
	)
	if err != nil { g_error.External("%s", err.Error()) }

	fmt.Printf("H(a) = %g km/s/Mpc, Omega_B = %g\n",
		cosmo.HubbleRate, cosmo.OmegaB)
	if n == 0 {
		fmt.Printf("The window starting at %d is empty.\n", c.Load.Start)
		return
	}
	defer buf.Release()

	fmt.Printf("Loaded %d particles of type %d starting at %d:\n",
		n, c.Snapshot.Species, c.Load.Start)
	printSummary("Mass", buf.Mass)
	if c.Snapshot.Species == snapio.GasType {
		printSummary("U", buf.U)
		printSummary("Ne", buf.Ne)
		printSummary("NH0", buf.NH0)
		printSummary("HSML", buf.H)
		if buf.NHep != nil { printSummary("NHep", buf.NHep) }
	}
}

// printSummary prints the minimum, mean, and maximum of a field.
func printSummary(name string, x []float32) {
	if len(x) == 0 { return }
	x64 := make([]float64, len(x))
	for i := range x { x64[i] = float64(x[i]) }
	fmt.Printf("  %-5s min = %12.6g  mean = %12.6g  max = %12.6g\n",
		name, floats.Min(x64), stat.Mean(x64, nil), floats.Max(x64))
}
