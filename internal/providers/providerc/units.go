package providerc

// Unit conversion constants. Deterministic and round-trip-safe to within
// floating-point epsilon. These never leak into the cache key: the key
// policy hashes the caller's input before any conversion here.
const (
	inchesPerCentimeter = 1 / 2.54
	centimetersPerInch  = 2.54
	ouncesPerKilogram   = 35.27396195
	ouncesPerGram       = ouncesPerKilogram / 1000
	ouncesPerPound      = 16
)

func centimetersToInches(cm float64) float64 { return cm * inchesPerCentimeter }
func inchesToCentimeters(in float64) float64 { return in * centimetersPerInch }

func kilogramsToOunces(kg float64) float64 { return kg * ouncesPerKilogram }
func gramsToOunces(g float64) float64      { return g * ouncesPerGram }
func poundsToOunces(lb float64) float64    { return lb * ouncesPerPound }
