package triage

// Canonical feature column names, in the exact order the classifier was
// fitted with. Every model-facing vector follows this order.
const (
	ColAge                 = "age"
	ColHeartRate           = "heart_rate"
	ColSystolicBP          = "systolic_blood_pressure"
	ColOxygenSaturation    = "oxygen_saturation"
	ColBodyTemperature     = "body_temperature"
	ColPainLevel           = "pain_level"
	ColChronicDiseaseCount = "chronic_disease_count"
	ColPreviousERVisits    = "previous_er_visits"
	ColArrivalMode         = "arrival_mode"
)

// FeatureColumns lists the model input columns in fitted order.
var FeatureColumns = []string{
	ColAge,
	ColHeartRate,
	ColSystolicBP,
	ColOxygenSaturation,
	ColBodyTemperature,
	ColPainLevel,
	ColChronicDiseaseCount,
	ColPreviousERVisits,
	ColArrivalMode,
}

// Arrival mode vocabulary the categorical encoder was fitted over.
const (
	ArrivalWalkIn     = "walk_in"
	ArrivalAmbulance  = "ambulance"
	ArrivalWheelchair = "wheelchair"
)

// FeatureRecord is a complete, model-ready feature vector for one patient
// encounter. Records are value objects: built once by Complete and copied
// between pipeline stages, never mutated.
type FeatureRecord struct {
	Age                 int     `json:"age"`
	HeartRate           int     `json:"heart_rate"`
	SystolicBP          int     `json:"systolic_blood_pressure"`
	OxygenSaturation    int     `json:"oxygen_saturation"`
	BodyTemperature     float64 `json:"body_temperature"`
	PainLevel           int     `json:"pain_level"`
	ChronicDiseaseCount int     `json:"chronic_disease_count"`
	PreviousERVisits    int     `json:"previous_er_visits"`
	ArrivalMode         string  `json:"arrival_mode"`
}

// Partial is a sparse set of observed features. Nil fields were not observed
// and fall back to defaults during completion.
type Partial struct {
	Age                 *int
	HeartRate           *int
	SystolicBP          *int
	OxygenSaturation    *int
	BodyTemperature     *float64
	PainLevel           *int
	ChronicDiseaseCount *int
	PreviousERVisits    *int
	ArrivalMode         *string
}

// Defaults returns the base feature vector used when a field was not
// observed or is outside the active feature set.
func Defaults() FeatureRecord {
	return FeatureRecord{
		Age:                 45,
		HeartRate:           80,
		SystolicBP:          120,
		OxygenSaturation:    98,
		BodyTemperature:     37.0,
		PainLevel:           5,
		ChronicDiseaseCount: 0,
		PreviousERVisits:    0,
		ArrivalMode:         ArrivalWalkIn,
	}
}

// ActiveSet is the externally configured set of feature columns the model
// run should honor. Features outside the set keep their default value and
// are excluded from attribution ranking.
type ActiveSet map[string]bool

// NewActiveSet builds an ActiveSet from a list of column names. Unknown
// names are ignored.
func NewActiveSet(names []string) ActiveSet {
	known := make(map[string]bool, len(FeatureColumns))
	for _, c := range FeatureColumns {
		known[c] = true
	}
	set := make(ActiveSet, len(names))
	for _, n := range names {
		if known[n] {
			set[n] = true
		}
	}
	return set
}

// DefaultActiveSet mirrors the default board configuration.
func DefaultActiveSet() ActiveSet {
	return NewActiveSet([]string{
		ColAge,
		ColBodyTemperature,
		ColOxygenSaturation,
		ColHeartRate,
		ColPainLevel,
		ColChronicDiseaseCount,
	})
}

// Complete merges a partial observation onto the default vector. A field
// replaces its default only when it was observed and its column is in the
// active set. The result always carries every required column, so the
// classifier never sees a hole.
func Complete(p Partial, active ActiveSet) FeatureRecord {
	rec := Defaults()
	if active[ColAge] && p.Age != nil {
		rec.Age = *p.Age
	}
	if active[ColHeartRate] && p.HeartRate != nil {
		rec.HeartRate = *p.HeartRate
	}
	if active[ColSystolicBP] && p.SystolicBP != nil {
		rec.SystolicBP = *p.SystolicBP
	}
	if active[ColOxygenSaturation] && p.OxygenSaturation != nil {
		rec.OxygenSaturation = *p.OxygenSaturation
	}
	if active[ColBodyTemperature] && p.BodyTemperature != nil {
		rec.BodyTemperature = *p.BodyTemperature
	}
	if active[ColPainLevel] && p.PainLevel != nil {
		rec.PainLevel = *p.PainLevel
	}
	if active[ColChronicDiseaseCount] && p.ChronicDiseaseCount != nil {
		rec.ChronicDiseaseCount = *p.ChronicDiseaseCount
	}
	if active[ColPreviousERVisits] && p.PreviousERVisits != nil {
		rec.PreviousERVisits = *p.PreviousERVisits
	}
	if active[ColArrivalMode] && p.ArrivalMode != nil {
		rec.ArrivalMode = *p.ArrivalMode
	}
	return rec
}

// Value returns the numeric value of a non-categorical column. The second
// return is false for arrival_mode and unknown names.
func (r FeatureRecord) Value(column string) (float64, bool) {
	switch column {
	case ColAge:
		return float64(r.Age), true
	case ColHeartRate:
		return float64(r.HeartRate), true
	case ColSystolicBP:
		return float64(r.SystolicBP), true
	case ColOxygenSaturation:
		return float64(r.OxygenSaturation), true
	case ColBodyTemperature:
		return r.BodyTemperature, true
	case ColPainLevel:
		return float64(r.PainLevel), true
	case ColChronicDiseaseCount:
		return float64(r.ChronicDiseaseCount), true
	case ColPreviousERVisits:
		return float64(r.PreviousERVisits), true
	}
	return 0, false
}

// DecisionSource records which layer produced the final triage level.
type DecisionSource string

const (
	SourceRule  DecisionSource = "rule"
	SourceModel DecisionSource = "model"
)

// TriageDecision is the final acuity assignment for one encounter. When a
// safety rule fires it strictly overrides the model and Source is "rule".
type TriageDecision struct {
	Level      int            `json:"triage_level"`
	Department string         `json:"department"`
	Source     DecisionSource `json:"source"`
	RuleReason *string        `json:"reason,omitempty"`
}
