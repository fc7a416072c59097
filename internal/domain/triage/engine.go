package triage

import (
	"fmt"

	"github.com/clintriage/triage/internal/platform/mlmodel"
)

// SafetyRule is one deterministic clinical threshold. Rules are evaluated in
// slice order before the classifier; the first match wins and strictly
// overrides whatever the model would have said.
type SafetyRule struct {
	Name    string
	Applies func(FeatureRecord) bool
	Level   int
	Reason  string
}

// safetyRules is the ordered override chain. Keep this a flat list so each
// rule stays independently testable and auditable.
var safetyRules = []SafetyRule{
	{
		Name:    "low-oxygen-saturation",
		Applies: func(r FeatureRecord) bool { return r.OxygenSaturation < 90 },
		Level:   3,
		Reason:  "CRITICAL: Low Oxygen Saturation",
	},
	{
		Name:    "severe-hypertension",
		Applies: func(r FeatureRecord) bool { return r.SystolicBP > 190 },
		Level:   3,
		Reason:  "CRITICAL: Severe Hypertension",
	},
}

// SafetyRules returns the override chain in evaluation order.
func SafetyRules() []SafetyRule {
	out := make([]SafetyRule, len(safetyRules))
	copy(out, safetyRules)
	return out
}

// Engine combines the safety-rule chain with the trained classifier.
type Engine struct {
	forest  *mlmodel.Forest
	encoder *mlmodel.Encoder
}

// NewEngine wires the engine to its loaded artifacts. The forest must have
// been fitted on the canonical feature columns; anything else is a
// deployment mistake and refuses to start.
func NewEngine(forest *mlmodel.Forest, encoder *mlmodel.Encoder) (*Engine, error) {
	if forest == nil || encoder == nil {
		return nil, fmt.Errorf("engine requires both model and encoder artifacts")
	}
	if len(forest.Features) != len(FeatureColumns) {
		return nil, fmt.Errorf("model was fitted on %d features, pipeline produces %d", len(forest.Features), len(FeatureColumns))
	}
	for i, col := range FeatureColumns {
		if forest.Features[i] != col {
			return nil, fmt.Errorf("model feature %d is %q, pipeline column is %q", i, forest.Features[i], col)
		}
	}
	return &Engine{forest: forest, encoder: encoder}, nil
}

// Vector encodes a complete record into the ordered numeric vector the
// classifier expects. Fails only on an arrival mode outside the fitted
// vocabulary.
func (e *Engine) Vector(rec FeatureRecord) ([]float64, error) {
	code, err := e.encoder.Transform(rec.ArrivalMode)
	if err != nil {
		return nil, err
	}
	return []float64{
		float64(rec.Age),
		float64(rec.HeartRate),
		float64(rec.SystolicBP),
		float64(rec.OxygenSaturation),
		rec.BodyTemperature,
		float64(rec.PainLevel),
		float64(rec.ChronicDiseaseCount),
		float64(rec.PreviousERVisits),
		float64(code),
	}, nil
}

// Decide produces the final triage decision: rules first, model as the
// fall-through. Department routing always runs on the raw record,
// independent of which layer set the level.
func (e *Engine) Decide(rec FeatureRecord) (TriageDecision, error) {
	for _, rule := range safetyRules {
		if rule.Applies(rec) {
			reason := rule.Reason
			return TriageDecision{
				Level:      rule.Level,
				Department: Department(rec),
				Source:     SourceRule,
				RuleReason: &reason,
			}, nil
		}
	}

	x, err := e.Vector(rec)
	if err != nil {
		return TriageDecision{}, fmt.Errorf("encode record: %w", err)
	}
	level, err := e.forest.Predict(x)
	if err != nil {
		return TriageDecision{}, fmt.Errorf("classify record: %w", err)
	}
	return TriageDecision{
		Level:      level,
		Department: Department(rec),
		Source:     SourceModel,
	}, nil
}

// Department recommends a routing target from the raw vitals. First matching
// branch wins.
func Department(rec FeatureRecord) string {
	switch {
	case rec.OxygenSaturation < 92:
		return "Pulmonology / Respiratory"
	case rec.HeartRate > 120 || rec.SystolicBP > 160:
		return "Cardiology"
	case rec.PainLevel >= 8:
		return "Emergency / Trauma"
	default:
		return "General Medicine"
	}
}
