// Package verdict maps certainty factors to natural-language bands.
// This is presentation vocabulary only: the engine never consumes
// bands, so changing a boundary here cannot change an inference
// result.
package verdict

import "fmt"

// Band is a named certainty range.
type Band int

const (
	Definitely Band = iota
	AlmostCertainly
	Probably
	Maybe
	Unknown
	MaybeNot
	ProbablyNot
	AlmostCertainlyNot
	DefinitelyNot
)

// Of returns the band for certainty v.
func Of(v float64) Band {
	switch {
	case v == 1:
		return Definitely
	case v >= 0.8:
		return AlmostCertainly
	case v >= 0.6:
		return Probably
	case v >= 0.4:
		return Maybe
	case v >= -0.2:
		return Unknown
	case v >= -0.4:
		return MaybeNot
	case v >= -0.6:
		return ProbablyNot
	case v > -1:
		return AlmostCertainlyNot
	default:
		return DefinitelyNot
	}
}

func (b Band) String() string {
	switch b {
	case Definitely:
		return "Definitely"
	case AlmostCertainly:
		return "Almost certainly"
	case Probably:
		return "Probably"
	case Maybe:
		return "Maybe"
	case Unknown:
		return "Unknown if"
	case MaybeNot:
		return "Maybe not"
	case ProbablyNot:
		return "Probably not"
	case AlmostCertainlyNot:
		return "Almost certainly not"
	case DefinitelyNot:
		return "Definitely not"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// Tone classifies a band for display: believing bands are positive,
// disbelieving bands negative, and the middle of the scale neutral.
type Tone int

const (
	Positive Tone = iota
	Neutral
	Negative
)

func (b Band) Tone() Tone {
	switch {
	case b <= Maybe:
		return Positive
	case b == Unknown:
		return Neutral
	default:
		return Negative
	}
}

// Describe phrases a conclusion in natural language, e.g.
// "Probably tomorrow is rain" or "Unknown if picnic is cancelled".
func Describe(what fmt.Stringer, v float64) string {
	return Of(v).String() + " " + what.String()
}
