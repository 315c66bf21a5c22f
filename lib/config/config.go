/*package config reads fake-spectra config files. Config files use gcfg's
INI-like syntax, e.g.:

	[snapshot]
	path = /data/sims/L25n512/snapdir_005/snap_005
	species = 0
	id-bytes = 8
	unified = false
	helium = false

	[load]
	chunk = 16777216

	[output]
	cache = /scratch/spb/snap_005.spc

Every field has a default, so an empty file is a valid config. Command-line
flags override config values, which is handled by the command layer, not
here.
*/
package config

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/jibanCat/fake-spectra/lib/snapio"
)

// Config holds the processed contents of a config file.
type Config struct {
	Snapshot struct {
		// Path is the snapshot base name handed to snapio.Open().
		Path string
		// Species is the particle type to load.
		Species int
		// IDBytes is the width of particle IDs in the snapshot files.
		IDBytes int `gcfg:"id-bytes"`
		// BigEndian is true for snapshots written on big-endian machines.
		BigEndian bool `gcfg:"big-endian"`
		// Unified and Helium select the chemistry variant of the snapshot.
		Unified bool
		Helium  bool
	}
	Load struct {
		// Start is the particle index the first window begins at.
		Start int64
		// MaxRead caps the total number of particles read, 0 for no cap.
		MaxRead int64 `gcfg:"max-read"`
		// Chunk is the window size used when iterating over a species.
		Chunk int64
	}
	Output struct {
		// Cache is the base name cache files are written under.
		Cache string
	}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	c := &Config{ }
	c.Snapshot.Species = snapio.GasType
	c.Snapshot.IDBytes = 8
	c.Load.Chunk = 1 << 24
	return c
}

// Read parses the named config file and validates it. Fields not set in the
// file keep their defaults.
func Read(fname string) (*Config, error) {
	c := Default()
	err := gcfg.ReadFileInto(c, fname)
	if err != nil {
		return nil, fmt.Errorf("The config file %s could not be parsed: %s",
			fname, err.Error())
	}
	if err := c.Check(); err != nil { return nil, err }
	return c, nil
}

// Check validates a Config without touching the file system.
func (c *Config) Check() error {
	if c.Snapshot.Species < 0 || c.Snapshot.Species >= snapio.NumTypes {
		return fmt.Errorf("The config sets species = %d, but the only "+
			"valid species are 0 through %d.",
			c.Snapshot.Species, snapio.NumTypes-1)
	}
	if c.Snapshot.IDBytes != 4 && c.Snapshot.IDBytes != 8 {
		return fmt.Errorf("The config sets id-bytes = %d, but Gadget-2 IDs "+
			"are either 4 or 8 bytes.", c.Snapshot.IDBytes)
	}
	if c.Load.Start < 0 {
		return fmt.Errorf("The config sets start = %d, which is negative.",
			c.Load.Start)
	}
	if c.Load.Chunk <= 0 {
		return fmt.Errorf("The config sets chunk = %d, but windows must "+
			"have a positive size.", c.Load.Chunk)
	}
	return nil
}

// Context converts the snapshot section into the snapio.Context used to open
// the snapshot.
func (c *Config) Context() snapio.Context {
	order := binary.ByteOrder(binary.LittleEndian)
	if c.Snapshot.BigEndian { order = binary.BigEndian }
	return snapio.Context{
		Order:   order,
		IDBytes: c.Snapshot.IDBytes,
		Variant: snapio.Variant{
			Unified: c.Snapshot.Unified,
			Helium:  c.Snapshot.Helium,
		},
	}
}
