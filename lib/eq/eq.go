/*package eq is a simple package for telling whether two arrays are equal to
one another in tests.*/
package eq

// Strings returns true if two []string arrays are the same and false
// otherwise.
func Strings(x, y []string) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float32s returns true if two []float32 arrays are the same and false
// otherwise.
func Float32s(x, y []float32) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Vec32s returns true if two [][3]float32 arrays are the same and false
// otherwise.
func Vec32s(x, y [][3]float32) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float32sEps returns true if the two []float32 arrays are within eps of one
// another and false otherwise.
func Float32sEps(x, y []float32, eps float32) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i]+eps < y[i] || x[i]-eps > y[i] { return false }
	}
	return true
}
