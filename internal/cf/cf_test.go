package cf

import (
	"math"
	"testing"
)

func close(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestCombineBothPositive(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0.5, 0.5, 0.75},
		{0.65, 0.55, 0.8425},
		{0.6, 0.0, 0.6},
		{0.0, 0.0, 0.0},
		{1.0, 0.5, 1.0},
		{0.9, 0.9, 0.99},
	}
	for _, tt := range tests {
		if got := Combine(tt.a, tt.b); !close(got, tt.want) {
			t.Errorf("Combine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCombineBothNegative(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{-0.5, -0.5, -0.75},
		{-0.6, 0.0, -0.6},
		{-1.0, -0.5, -1.0},
		{-0.9, -0.9, -0.99},
	}
	for _, tt := range tests {
		if got := Combine(tt.a, tt.b); !close(got, tt.want) {
			t.Errorf("Combine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCombineOppositeSigns(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0.6, -0.4, 1.0 / 3.0},
		{-0.4, 0.6, 1.0 / 3.0},
		{0.8, -0.4, 2.0 / 3.0},
		{0.5, -0.5, 0.0},
	}
	for _, tt := range tests {
		if got := Combine(tt.a, tt.b); !close(got, tt.want) {
			t.Errorf("Combine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCombineContradiction(t *testing.T) {
	if got := Combine(1.0, -1.0); got != 0.0 {
		t.Fatalf("Combine(1, -1) = %v, want exactly 0", got)
	}
	if got := Combine(-1.0, 1.0); got != 0.0 {
		t.Fatalf("Combine(-1, 1) = %v, want exactly 0", got)
	}
}

func TestCombineIdentity(t *testing.T) {
	for _, v := range []float64{-1, -0.75, -0.2, 0, 0.3, 0.99, 1} {
		if got := Combine(Unknown, v); !close(got, v) {
			t.Errorf("Combine(0, %v) = %v, want %v", v, got, v)
		}
		if got := Combine(v, Unknown); !close(got, v) {
			t.Errorf("Combine(%v, 0) = %v, want %v", v, got, v)
		}
	}
}

func TestCombineCommutative(t *testing.T) {
	grid := []float64{-1, -0.8, -0.3, 0, 0.1, 0.55, 0.9, 1}
	for _, a := range grid {
		for _, b := range grid {
			if ab, ba := Combine(a, b), Combine(b, a); !close(ab, ba) {
				t.Errorf("Combine(%v, %v) = %v but Combine(%v, %v) = %v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestCombineAllOrderIndependent(t *testing.T) {
	orders := [][]float64{
		{0.8, 0.6, -0.9},
		{0.8, -0.9, 0.6},
		{0.6, 0.8, -0.9},
		{0.6, -0.9, 0.8},
		{-0.9, 0.8, 0.6},
		{-0.9, 0.6, 0.8},
	}
	want := CombineAll(orders[0]...)
	for _, vs := range orders[1:] {
		if got := CombineAll(vs...); !close(got, want) {
			t.Errorf("CombineAll(%v) = %v, want %v", vs, got, want)
		}
	}
}

func TestCombineStaysInRange(t *testing.T) {
	grid := []float64{-1, -0.999, -0.5, -0.001, 0, 0.001, 0.5, 0.999, 1}
	for _, a := range grid {
		for _, b := range grid {
			got := Combine(a, b)
			if got < Min || got > Max || math.IsNaN(got) {
				t.Errorf("Combine(%v, %v) = %v, out of range", a, b, got)
			}
		}
	}
}

func TestCombineReinforces(t *testing.T) {
	// Two agreeing contributions beat either alone, short of certainty.
	got := Combine(0.65, 0.55)
	if got <= 0.65 || got <= 0.55 {
		t.Fatalf("Combine(0.65, 0.55) = %v, want > both inputs", got)
	}
	if got >= 1 {
		t.Fatalf("Combine(0.65, 0.55) = %v, want < 1", got)
	}
}

func TestFired(t *testing.T) {
	tests := []struct {
		antecedent, rule, want float64
	}{
		{1.0, 0.6, 0.6},
		{0.5, 0.8, 0.4},
		{-0.8, 0.5, -0.4},
		{0.0, 0.9, 0.0},
		{0.7, -0.5, -0.35},
	}
	for _, tt := range tests {
		if got := Fired(tt.antecedent, tt.rule); !close(got, tt.want) {
			t.Errorf("Fired(%v, %v) = %v, want %v", tt.antecedent, tt.rule, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, v := range []float64{-1, -0.5, 0, 0.5, 1} {
		if !Valid(v) {
			t.Errorf("Valid(%v) = false, want true", v)
		}
	}
	for _, v := range []float64{-1.0001, 1.0001, 1.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Valid(v) {
			t.Errorf("Valid(%v) = true, want false", v)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1.0000001, -1},
		{1.0000001, 1},
		{0.42, 0.42},
		{-1, -1},
		{1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComplement(t *testing.T) {
	tests := []struct {
		v    float64
		n    int
		want float64
	}{
		{1.0, 1, -1.0},
		{1.0, 2, -0.5},
		{0.7, 1, -0.3},
		{0.6, 2, -0.2},
		{0.0, 1, 0.0},
		{-0.5, 2, 0.0},
		{0.5, 0, 0.0},
	}
	for _, tt := range tests {
		if got := Complement(tt.v, tt.n); !close(got, tt.want) {
			t.Errorf("Complement(%v, %d) = %v, want %v", tt.v, tt.n, got, tt.want)
		}
	}
}
