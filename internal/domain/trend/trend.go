// Package trend compares a patient's new feature record against their
// immediately preceding one to flag deterioration between encounters.
package trend

import (
	"math"

	"github.com/clintriage/triage/internal/domain/triage"
)

// Labels for the trend flag. Only falling SpO2 and rising temperature drive
// the worsening flag; the heart-rate delta is informational.
const (
	LabelStable    = "stable"
	LabelWorsening = "worsening"
)

// Record holds the vitals deltas between consecutive encounters. Deltas are
// nil until a prior record exists for the patient.
type Record struct {
	SpO2Delta      *int     `json:"spo2_delta"`
	TempDelta      *float64 `json:"temp_delta"`
	HeartRateDelta *int     `json:"hr_delta"`
	Label          string   `json:"trend"`
}

// Worsening reports whether the flag is set.
func (r Record) Worsening() bool {
	return r.Label == LabelWorsening
}

// Compute derives the trend of current against the patient's prior record.
// With no prior, all deltas are absent and the trend is stable. The
// worsening test runs on raw unrounded values; only the reported temperature
// delta is rounded.
func Compute(current triage.FeatureRecord, prior *triage.FeatureRecord) Record {
	if prior == nil {
		return Record{Label: LabelStable}
	}

	spo2 := current.OxygenSaturation - prior.OxygenSaturation
	temp := round1(current.BodyTemperature - prior.BodyTemperature)
	hr := current.HeartRate - prior.HeartRate

	label := LabelStable
	if current.OxygenSaturation < prior.OxygenSaturation || current.BodyTemperature > prior.BodyTemperature {
		label = LabelWorsening
	}

	return Record{
		SpO2Delta:      &spo2,
		TempDelta:      &temp,
		HeartRateDelta: &hr,
		Label:          label,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
