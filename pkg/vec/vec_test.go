package vec

import (
	"math"
	"math/rand/v2"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestArithmetic(t *testing.T) {
	a := New(1, 2)
	b := New(4, 6)

	if got := a.Add(b); got != New(5, 8) {
		t.Errorf("Add = %v, want (5, 8)", got)
	}
	if got := b.Sub(a); got != New(3, 4) {
		t.Errorf("Sub = %v, want (3, 4)", got)
	}
	if got := a.Scale(-2); got != New(-2, -4) {
		t.Errorf("Scale = %v, want (-2, -4)", got)
	}
	if got := a.Dist(b); !near(got, 5) {
		t.Errorf("Dist = %v, want 5", got)
	}
	if a != New(1, 2) {
		t.Errorf("receiver mutated: %v", a)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     Vec2
		want   Vec2
		wantOK bool
	}{
		{"axis", New(0, 5), New(0, 1), true},
		{"diagonal", New(3, 4), New(0.6, 0.8), true},
		{"zero", Zero(), Zero(), false},
		{"nan", New(math.NaN(), 1), Zero(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Normalize()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	a, b := New(0, 0), New(10, -10)

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got := a.Lerp(b, 0.25); got != New(2.5, -2.5) {
		t.Errorf("Lerp(0.25) = %v, want (2.5, -2.5)", got)
	}
}

func TestMean(t *testing.T) {
	if got := Mean(New(3, 7)); got != New(3, 7) {
		t.Errorf("Mean(single) = %v", got)
	}
	if got := Mean(New(0, 0), New(2, 0), New(1, 3)); got != New(1, 1) {
		t.Errorf("Mean = %v, want (1, 1)", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("Mean() of nothing should panic")
		}
	}()
	Mean()
}

func TestRectRandom(t *testing.T) {
	r := FromRadii(800, 600)
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		p := r.Random(rng)
		if !r.Contains(p) {
			t.Fatalf("point %v outside %v", p, r)
		}
	}
	if got := r.Center(); got != Zero() {
		t.Errorf("Center = %v, want origin", got)
	}
	if got := r.Size(); got != New(1600, 1200) {
		t.Errorf("Size = %v, want (1600, 1200)", got)
	}
}

func TestBand(t *testing.T) {
	b := NewBand(500, 600)

	tests := []struct {
		v    float64
		want float64
	}{
		{500, 0},
		{550, 0.5},
		{600, 1},
		{700, 2},
	}
	for _, tt := range tests {
		if got := b.Normalize(tt.v); !near(got, tt.want) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	clamp := NewBand(4, 15)
	if got := clamp.Clamp(1); got != 4 {
		t.Errorf("Clamp(1) = %v, want 4", got)
	}
	if got := clamp.Clamp(30); got != 15 {
		t.Errorf("Clamp(30) = %v, want 15", got)
	}
	if !clamp.Contains(7) || clamp.Contains(16) {
		t.Error("Contains mismatch")
	}
}

func TestBandDegenerate(t *testing.T) {
	b := NewBand(5, 5)
	if got := b.Normalize(4); got != 0 {
		t.Errorf("Normalize below = %v, want 0", got)
	}
	if got := b.Normalize(5); got != 1 {
		t.Errorf("Normalize at = %v, want 1", got)
	}
}
