package trend

import (
	"math"
	"testing"

	"github.com/clintriage/triage/internal/domain/triage"
)

func TestComputeNoPrior(t *testing.T) {
	got := Compute(triage.Defaults(), nil)
	if got.Label != LabelStable {
		t.Errorf("label = %q, want stable", got.Label)
	}
	if got.SpO2Delta != nil || got.TempDelta != nil || got.HeartRateDelta != nil {
		t.Errorf("deltas should be absent without a prior record: %+v", got)
	}
	if got.Worsening() {
		t.Error("Worsening() should be false without a prior record")
	}
}

func TestComputeWorseningOnFallingSpO2(t *testing.T) {
	prior := triage.Defaults()
	prior.OxygenSaturation = 98
	current := triage.Defaults()
	current.OxygenSaturation = 94

	got := Compute(current, &prior)
	if got.Label != LabelWorsening {
		t.Errorf("label = %q, want worsening", got.Label)
	}
	if got.SpO2Delta == nil || *got.SpO2Delta != -4 {
		t.Errorf("spo2 delta = %v, want -4", got.SpO2Delta)
	}
}

func TestComputeWorseningOnRisingTemperature(t *testing.T) {
	prior := triage.Defaults()
	prior.BodyTemperature = 37.0
	current := triage.Defaults()
	current.BodyTemperature = 38.6

	got := Compute(current, &prior)
	if got.Label != LabelWorsening {
		t.Errorf("label = %q, want worsening", got.Label)
	}
	if got.TempDelta == nil || math.Abs(*got.TempDelta-1.6) > 1e-9 {
		t.Errorf("temp delta = %v, want 1.6", got.TempDelta)
	}
}

func TestComputeStable(t *testing.T) {
	prior := triage.Defaults()
	current := triage.Defaults()
	current.OxygenSaturation = prior.OxygenSaturation + 1 // improving
	current.HeartRate = prior.HeartRate + 15              // hr never drives the flag

	got := Compute(current, &prior)
	if got.Label != LabelStable {
		t.Errorf("label = %q, want stable", got.Label)
	}
	if got.HeartRateDelta == nil || *got.HeartRateDelta != 15 {
		t.Errorf("hr delta = %v, want 15", got.HeartRateDelta)
	}
	if got.SpO2Delta == nil || *got.SpO2Delta != 1 {
		t.Errorf("spo2 delta = %v, want 1", got.SpO2Delta)
	}
}

func TestComputeTempDeltaRounded(t *testing.T) {
	prior := triage.Defaults()
	prior.BodyTemperature = 37.25
	current := triage.Defaults()
	current.BodyTemperature = 37.31

	got := Compute(current, &prior)
	// Raw difference 0.06 rounds to 0.1 in the report, but the flag uses the
	// unrounded comparison.
	if got.TempDelta == nil || math.Abs(*got.TempDelta-0.1) > 1e-9 {
		t.Errorf("temp delta = %v, want 0.1", got.TempDelta)
	}
	if got.Label != LabelWorsening {
		t.Errorf("label = %q, want worsening (raw values compared)", got.Label)
	}
}
