package load

import (
	"math"

	"github.com/jibanCat/fake-spectra/lib/snapio"
)

// Cosmology collects the global parameters derived from a snapshot's header
// and its loaded mass array.
type Cosmology struct {
	// A is the scale factor of the snapshot and Z its redshift.
	A, Z float64
	// BoxSize is the comoving width of the simulation box.
	BoxSize float64
	// H100 is H0 / (100 km/s/Mpc), and OmegaM and OmegaL are the matter and
	// dark energy density parameters.
	H100, OmegaM, OmegaL float64
	// HubbleRate is the instantaneous Hubble rate H(a) in km/s/Mpc.
	HubbleRate float64
	// OmegaB is the baryon density parameter derived from the loaded
	// particle masses. It is zero when a load returns no particles.
	OmegaB float64
}

// headerCosmology derives every Cosmology field that depends only on the
// header. OmegaB is filled in later, once masses have been loaded.
func headerCosmology(hd *snapio.Header) *Cosmology {
	return &Cosmology{
		A: hd.Time, Z: hd.Redshift,
		BoxSize: hd.BoxSize,
		H100: hd.HubbleParam, OmegaM: hd.Omega0, OmegaL: hd.OmegaLambda,
		HubbleRate: HubbleRate(
			hd.Time, hd.HubbleParam, hd.Omega0, hd.OmegaLambda,
		),
	}
}

// HubbleRate returns the instantaneous Hubble rate, in km/s/Mpc, at scale
// factor a for a universe with the given h and density parameters:
//
//	H(a) = 100 h sqrt(1 + Om*(1/a - 1) + Ol*(a^2 - 1)) / a
func HubbleRate(a, h100, omegaM, omegaL float64) float64 {
	return 100 * h100 *
		math.Sqrt(1+omegaM*(1/a-1)+omegaL*(a*a-1)) / a
}

// baryonFraction returns Omega_b as estimated from the loaded species' mass
// and the header's fixed mass for type 1. Only valid for the standard
// gas + dark-matter setups this tool targets, where type 1 is the dark
// matter.
func baryonFraction(mass0, type1Mass, omegaM float64) float64 {
	return mass0 / (mass0 + type1Mass) * omegaM
}
