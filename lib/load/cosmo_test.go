package load

import (
	"math"
	"testing"
)

func TestHubbleRatePresentEpoch(t *testing.T) {
	// A flat universe at a = 1 must give exactly 100 h.
	if H := HubbleRate(1.0, 0.7, 0.3, 0.7); H != 70.0 {
		t.Errorf("Expected H(1) = 70, got %g", H)
	}
}

func TestHubbleRateMatterDominated(t *testing.T) {
	// At early times a matter-only universe approaches
	// H(a) = 100 h sqrt(Om) a^{-3/2}.
	a, h100, omegaM := 0.01, 0.7, 1.0
	exp := 100 * h100 * math.Sqrt(omegaM) * math.Pow(a, -1.5)
	got := HubbleRate(a, h100, omegaM, 0.0)
	if rel := math.Abs(got-exp) / exp; rel > 1e-10 {
		t.Errorf("Expected H(%g) = %g, got %g", a, exp, got)
	}
}

func TestBaryonFraction(t *testing.T) {
	exp := 1.0 / (1.0 + 5.0) * 0.3
	if ob := baryonFraction(1.0, 5.0, 0.3); ob != exp {
		t.Errorf("Expected Omega_B = %g, got %g", exp, ob)
	}
	if ob := baryonFraction(1.0, 5.0, 0.3); math.Abs(ob-0.05) > 1e-15 {
		t.Errorf("Expected Omega_B close to 0.05, got %g", ob)
	}
}
