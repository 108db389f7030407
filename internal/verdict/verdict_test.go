package verdict

import (
	"testing"

	"credence/internal/rules"
)

func TestBandBoundaries(t *testing.T) {
	tests := []struct {
		v    float64
		want Band
	}{
		{1.0, Definitely},
		{0.9999, AlmostCertainly},
		{0.8, AlmostCertainly},
		{0.7999, Probably},
		{0.6, Probably},
		{0.5999, Maybe},
		{0.4, Maybe},
		{0.3999, Unknown},
		{0.0, Unknown},
		{-0.2, Unknown},
		{-0.2001, MaybeNot},
		{-0.4, MaybeNot},
		{-0.4001, ProbablyNot},
		{-0.6, ProbablyNot},
		{-0.6001, AlmostCertainlyNot},
		{-0.9999, AlmostCertainlyNot},
		{-1.0, DefinitelyNot},
	}
	for _, tt := range tests {
		if got := Of(tt.v); got != tt.want {
			t.Errorf("Of(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestBandStrings(t *testing.T) {
	tests := []struct {
		band Band
		want string
	}{
		{Definitely, "Definitely"},
		{AlmostCertainly, "Almost certainly"},
		{Probably, "Probably"},
		{Maybe, "Maybe"},
		{Unknown, "Unknown if"},
		{MaybeNot, "Maybe not"},
		{ProbablyNot, "Probably not"},
		{AlmostCertainlyNot, "Almost certainly not"},
		{DefinitelyNot, "Definitely not"},
	}
	for _, tt := range tests {
		if got := tt.band.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.band, got, tt.want)
		}
	}
}

func TestTones(t *testing.T) {
	positive := []Band{Definitely, AlmostCertainly, Probably, Maybe}
	for _, b := range positive {
		if b.Tone() != Positive {
			t.Errorf("%v tone = %v, want Positive", b, b.Tone())
		}
	}
	if Unknown.Tone() != Neutral {
		t.Errorf("Unknown tone = %v, want Neutral", Unknown.Tone())
	}
	negative := []Band{MaybeNot, ProbablyNot, AlmostCertainlyNot, DefinitelyNot}
	for _, b := range negative {
		if b.Tone() != Negative {
			t.Errorf("%v tone = %v, want Negative", b, b.Tone())
		}
	}
}

func TestDescribe(t *testing.T) {
	c := rules.Condition{Subject: "tomorrow", State: "rain"}
	if got := Describe(c, 0.65); got != "Probably tomorrow is rain" {
		t.Errorf("Describe = %q", got)
	}
	if got := Describe(c, 0.0); got != "Unknown if tomorrow is rain" {
		t.Errorf("Describe = %q", got)
	}
	if got := Describe(c, -1); got != "Definitely not tomorrow is rain" {
		t.Errorf("Describe = %q", got)
	}
}
