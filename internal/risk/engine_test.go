package risk

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func testWeights() Weights {
	return Weights{
		NewDeviceScore:       50,
		NewCountryScore:      30,
		HighAmountScore:      60,
		HighAmountThreshold:  decimal.NewFromInt(1000),
		StepUpScoreThreshold: 70,
	}
}

func TestAssess_AllSignals(t *testing.T) {
	e := NewEngine(testWeights())

	a := e.Assess(true, true, decimal.RequireFromString("5000.00"))
	if a.Score != 140 {
		t.Errorf("Score = %d, want 140", a.Score)
	}
	if a.Level != LevelHigh {
		t.Errorf("Level = %s, want HIGH", a.Level)
	}
	if !a.StepUpRequired {
		t.Error("StepUpRequired should be true")
	}
	want := []string{ReasonNewDevice, ReasonNewCountry, ReasonHighAmount}
	if !reflect.DeepEqual(a.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", a.Reasons, want)
	}
}

func TestAssess_NewDeviceAndHighAmount(t *testing.T) {
	e := NewEngine(testWeights())

	a := e.Assess(true, false, decimal.RequireFromString("5000.00"))
	if a.Score != 110 {
		t.Errorf("Score = %d, want 110", a.Score)
	}
	if a.Level != LevelHigh || !a.StepUpRequired {
		t.Errorf("got level=%s stepUp=%v, want HIGH/true", a.Level, a.StepUpRequired)
	}
	want := []string{ReasonNewDevice, ReasonHighAmount}
	if !reflect.DeepEqual(a.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", a.Reasons, want)
	}
}

func TestAssess_NoSignals(t *testing.T) {
	e := NewEngine(testWeights())

	a := e.Assess(false, false, decimal.RequireFromString("10.00"))
	if a.Score != 0 {
		t.Errorf("Score = %d, want 0", a.Score)
	}
	if a.Level != LevelLow {
		t.Errorf("Level = %s, want LOW", a.Level)
	}
	if a.StepUpRequired {
		t.Error("StepUpRequired should be false")
	}
	if len(a.Reasons) != 0 {
		t.Errorf("Reasons = %v, want empty", a.Reasons)
	}
}

func TestAssess_MediumBucket(t *testing.T) {
	e := NewEngine(testWeights())

	// New device only: 50 >= 70/2 but < 70.
	a := e.Assess(true, false, decimal.NewFromInt(10))
	if a.Level != LevelMedium {
		t.Errorf("Level = %s, want MEDIUM", a.Level)
	}
	if a.StepUpRequired {
		t.Error("StepUpRequired should be false below the threshold")
	}

	// New country only: 30 < 35.
	a = e.Assess(false, true, decimal.NewFromInt(10))
	if a.Level != LevelLow {
		t.Errorf("Level = %s, want LOW", a.Level)
	}
}

func TestAssess_AmountBoundary(t *testing.T) {
	e := NewEngine(testWeights())

	// Exactly at the threshold triggers HIGH_AMOUNT.
	a := e.Assess(false, false, decimal.NewFromInt(1000))
	if a.Score != 60 {
		t.Errorf("Score = %d, want 60 at the exact threshold", a.Score)
	}

	a = e.Assess(false, false, decimal.RequireFromString("999.99"))
	if a.Score != 0 {
		t.Errorf("Score = %d, want 0 just below the threshold", a.Score)
	}

	// Zero amount contributes nothing.
	a = e.Assess(false, false, decimal.Zero)
	if a.Score != 0 {
		t.Errorf("Score = %d, want 0 for zero amount", a.Score)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	e := NewEngine(testWeights())
	amt := decimal.RequireFromString("1234.56")
	first := e.Assess(true, true, amt)
	for i := 0; i < 10; i++ {
		if got := e.Assess(true, true, amt); !reflect.DeepEqual(got, first) {
			t.Fatalf("assessment changed between calls: %+v vs %+v", got, first)
		}
	}
}
