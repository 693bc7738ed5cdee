package stats

import (
	"math"
	"testing"
)

func TestZScore(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		mean     float64
		stdDev   float64
		expected float64
	}{
		{"above mean", 110, 100, 5, 2},
		{"below mean is absolute", 90, 100, 5, 2},
		{"zero stddev means no signal", 500, 100, 0, 0},
		{"at mean", 100, 100, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZScore(tt.value, tt.mean, tt.stdDev); got != tt.expected {
				t.Errorf("ZScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestComputeIQRBounds(t *testing.T) {
	// Positional quantiles on [1..100]: index floor(100*0.25)=25 -> value 26,
	// index floor(100*0.75)=75 -> value 76.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	b := ComputeIQRBounds(values)
	if b.Q1 != 26 {
		t.Errorf("Q1 = %v, want 26", b.Q1)
	}
	if b.Q3 != 76 {
		t.Errorf("Q3 = %v, want 76", b.Q3)
	}
	if b.IQR != 50 {
		t.Errorf("IQR = %v, want 50", b.IQR)
	}
	if b.Lower != 26-75 {
		t.Errorf("Lower = %v, want %v", b.Lower, 26-75)
	}
	if b.Upper != 76+75 {
		t.Errorf("Upper = %v, want %v", b.Upper, 76+75)
	}
}

func TestComputeIQRBoundsEmpty(t *testing.T) {
	b := ComputeIQRBounds(nil)
	if b != (IQRBounds{}) {
		t.Errorf("ComputeIQRBounds(nil) = %+v, want zero value", b)
	}
}

func TestComputeIQRBoundsDoesNotMutateInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	ComputeIQRBounds(values)
	if values[0] != 5 || values[4] != 3 {
		t.Errorf("input was mutated: %v", values)
	}
}

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected []float64
	}{
		{"trailing window partial at start", []float64{10, 20, 30}, 2, []float64{10, 15, 25}},
		{"window larger than series", []float64{10, 20}, 5, []float64{10, 15}},
		{"window one is identity", []float64{3, 7, 9}, 1, []float64{3, 7, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.values, tt.window)
			if !floatsEqual(got, tt.expected) {
				t.Errorf("MovingAverage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEWMA(t *testing.T) {
	got := EWMA([]float64{10, 20, 30}, 0.5)
	want := []float64{10, 15, 22.5}
	if !floatsEqual(got, want) {
		t.Errorf("EWMA() = %v, want %v", got, want)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	// A seasonal series with trend and noise: the components must sum back
	// to the original value at every index.
	values := make([]float64, 120)
	for i := range values {
		values[i] = 50 + 0.3*float64(i) + 8*math.Sin(2*math.Pi*float64(i%7)/7) + float64(i%5)
	}

	d := Decompose(values, 7)
	for i, v := range values {
		sum := d.Trend[i] + d.Seasonal[i] + d.Residual[i]
		if math.Abs(sum-v) > 1e-9 {
			t.Fatalf("round trip at %d: trend+seasonal+residual = %v, want %v", i, sum, v)
		}
	}
}

func TestDecomposeEmpty(t *testing.T) {
	d := Decompose(nil, 7)
	if len(d.Trend) != 0 || len(d.Seasonal) != 0 || len(d.Residual) != 0 {
		t.Errorf("Decompose(nil) produced non-empty components")
	}
}

func TestDecomposeSeasonalSignal(t *testing.T) {
	// Pure repeating pattern with no trend noise: every residual stays small
	// relative to the seasonal amplitude.
	values := make([]float64, 140)
	for i := range values {
		values[i] = 100 + 10*float64(i%7)
	}

	d := Decompose(values, 7)
	for i := 14; i < len(values); i++ {
		if math.Abs(d.Residual[i]) > 5 {
			t.Fatalf("residual[%d] = %v, expected near zero for a pure seasonal series", i, d.Residual[i])
		}
	}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}
