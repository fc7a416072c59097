// Package explain ranks the features that drove one classification. The
// contribution scores come from the forest's additive path decomposition and
// are class-conditional: the column for the predicted level is the one that
// gets ranked, so a factor's direction always reads relative to the winning
// class rather than as an absolute good/bad judgment.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/clintriage/triage/internal/domain/triage"
	"github.com/clintriage/triage/internal/platform/mlmodel"
)

// MaxFactors caps how many ranked factors a classification retains.
const MaxFactors = 3

// Factor is one feature's contribution to the predicted class.
type Factor struct {
	Feature      string  `json:"feature"`
	Value        any     `json:"value"`
	Direction    string  `json:"direction"`
	Contribution float64 `json:"contribution"`
}

// Explainer computes attributions against the same artifacts the engine
// classifies with.
type Explainer struct {
	forest  *mlmodel.Forest
	encoder *mlmodel.Encoder
}

func NewExplainer(forest *mlmodel.Forest, encoder *mlmodel.Encoder) *Explainer {
	return &Explainer{forest: forest, encoder: encoder}
}

// Explain returns up to MaxFactors factors for the decision, restricted to
// the active feature set, ranked by absolute contribution with ties broken
// by model column order. Deterministic for a given record and artifact.
func (ex *Explainer) Explain(rec triage.FeatureRecord, decision triage.TriageDecision, active triage.ActiveSet) ([]Factor, error) {
	code, err := ex.encoder.Transform(rec.ArrivalMode)
	if err != nil {
		return nil, fmt.Errorf("encode record for attribution: %w", err)
	}
	x := make([]float64, 0, len(triage.FeatureColumns))
	for _, col := range triage.FeatureColumns {
		if col == triage.ColArrivalMode {
			x = append(x, float64(code))
			continue
		}
		v, _ := rec.Value(col)
		x = append(x, v)
	}

	contrib, err := ex.forest.Contributions(x)
	if err != nil {
		return nil, fmt.Errorf("compute attributions: %w", err)
	}
	classIdx, ok := ex.forest.ClassIndex(decision.Level)
	if !ok {
		return nil, fmt.Errorf("model has no class %d", decision.Level)
	}

	// Direction and rank come from the raw scores; rounding is display-only,
	// otherwise a small positive pull would read as "pulled away".
	type rawFactor struct {
		Factor
		raw float64
	}
	factors := make([]rawFactor, 0, len(triage.FeatureColumns))
	for i, col := range triage.FeatureColumns {
		if !active[col] {
			continue
		}
		c := contrib[i][classIdx]
		direction := fmt.Sprintf("pulled away from Level %d", decision.Level)
		if c > 0 {
			direction = fmt.Sprintf("pushed toward Level %d", decision.Level)
		}
		factors = append(factors, rawFactor{
			Factor: Factor{
				Feature:   col,
				Value:     observedValue(rec, col),
				Direction: direction,
			},
			raw: c,
		})
	}

	// Stable sort keeps model column order as the tie break.
	sort.SliceStable(factors, func(i, j int) bool {
		return math.Abs(factors[i].raw) > math.Abs(factors[j].raw)
	})
	if len(factors) > MaxFactors {
		factors = factors[:MaxFactors]
	}
	out := make([]Factor, len(factors))
	for i, f := range factors {
		f.Factor.Contribution = round3(f.raw)
		out[i] = f.Factor
	}
	return out, nil
}

// Summary flattens ranked factors into the "feature (direction)" line the
// narrative prompt and the board caption both use.
func Summary(factors []Factor) string {
	out := ""
	for i, f := range factors {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%s)", f.Feature, f.Direction)
	}
	return out
}

// observedValue reports the record value as the board should display it:
// numeric for vitals, the raw category for arrival mode.
func observedValue(rec triage.FeatureRecord, col string) any {
	if col == triage.ColArrivalMode {
		return rec.ArrivalMode
	}
	v, _ := rec.Value(col)
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
