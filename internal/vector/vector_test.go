package vector

import (
	"math"
	"testing"
)

func TestCosine_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2}
	b := []float32{0.6, -1.4, 0.4} // a * 2

	if got := Cosine(a, b); math.Abs(got-1) > 1e-6 {
		t.Errorf("Cosine of parallel vectors = %v, want 1", got)
	}
}

func TestNormalize_UnitNorm(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)

	var sum float64
	for _, x := range n {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-6 {
		t.Errorf("norm after Normalize = %v, want 1", math.Sqrt(sum))
	}

	// Normalizing again must be a fixed point.
	again := Normalize(n)
	for i := range n {
		if math.Abs(float64(again[i]-n[i])) > 1e-6 {
			t.Errorf("Normalize not idempotent at index %d: %v vs %v", i, again[i], n[i])
		}
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	n := Normalize(v)

	for i, x := range n {
		if x != 0 {
			t.Errorf("Normalize(zero) changed component %d to %v", i, x)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	v := []float32{0.5, -1.25, 3.75, 0}

	decoded, err := Decode(Encode(v))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(decoded) != len(v) {
		t.Fatalf("Decode() length = %d, want %d", len(decoded), len(v))
	}
	for i := range v {
		if decoded[i] != v[i] {
			t.Errorf("component %d = %v, want %v", i, decoded[i], v[i])
		}
	}
}

func TestDecode_InvalidLength(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("Decode() with truncated blob: expected error")
	}
}
