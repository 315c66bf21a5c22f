package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jibanCat/fake-spectra/lib/cache"
	g_error "github.com/jibanCat/fake-spectra/lib/error"
	"github.com/jibanCat/fake-spectra/lib/load"
	"github.com/jibanCat/fake-spectra/lib/snapio"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Walk a species in windows and write each one to a cache file",
	Run:   runDump,
}

func runDump(cmd *cobra.Command, args []string) {
	c := loadConfig()
	if c.Output.Cache == "" {
		g_error.External("No cache base name was given. Set cache in the " +
			"config file or pass --out.")
	}

	snap, err := snapio.Open(c.Snapshot.Path, c.Context())
	if err != nil { g_error.External("%s", err.Error()) }

	start := c.Load.Start
	remaining := c.Load.MaxRead
	for i := 0; ; i++ {
		chunk := c.Load.Chunk
		if remaining > 0 && remaining < chunk { chunk = remaining }

		buf, n, cosmo, err := load.Snapshot(
			snap, c.Snapshot.Species, start, chunk, c.Context().Variant,
		)
		if err != nil { g_error.External("%s", err.Error()) }
		if n == 0 { break }

		fname := fmt.Sprintf("%s.%d", c.Output.Cache, i)
		err = cache.Write(fname, buf, cosmo)
		buf.Release()
		if err != nil { g_error.External("%s", err.Error()) }

		fmt.Printf("Wrote particles [%d, %d) to %s\n", start, start+n, fname)

		start += n
		if remaining > 0 {
			remaining -= n
			if remaining <= 0 { break }
		}
	}
}
