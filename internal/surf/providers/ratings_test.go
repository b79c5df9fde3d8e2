package providers

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestShapeRatingIsTotal(t *testing.T) {
	cases := map[string]int{
		"Poor":      1,
		"Poor-Fair": 2,
		"Fair":      3,
		"Fair-Good": 4,
		"Good":      5,
		"":          0,
		"good":      0,
		"Epic":      0,
		"Fair-Poor": 0,
	}
	for label, want := range cases {
		if got := ShapeRating(label); got != want {
			t.Fatalf("ShapeRating(%q) = %d, want %d", label, got, want)
		}
	}
}

func TestBreakingHeightFallback(t *testing.T) {
	abs, brk := 4.0, 2.5
	if got := BreakingHeight(nil, &abs); got == nil || *got != 4.0 {
		t.Fatalf("expected fallback to abs height, got %v", got)
	}
	if got := BreakingHeight(&brk, &abs); *got != 2.5 {
		t.Fatalf("expected breaking height, got %v", *got)
	}
	if got := BreakingHeight(nil, nil); got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
}

func TestMaxOptimal(t *testing.T) {
	scores := []decimal.Decimal{
		decimal.RequireFromString("0.2"),
		decimal.RequireFromString("0.75"),
		decimal.RequireFromString("0.75"),
		decimal.RequireFromString("0.1"),
	}
	if got := MaxOptimal(scores); !got.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("MaxOptimal = %s", got)
	}
	if got := MaxOptimal(nil); !got.IsZero() {
		t.Fatalf("MaxOptimal(nil) = %s", got)
	}
}
