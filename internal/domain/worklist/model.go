package worklist

import (
	"time"

	"github.com/google/uuid"

	"github.com/clintriage/triage/internal/domain/explain"
	"github.com/clintriage/triage/internal/domain/narrative"
	"github.com/clintriage/triage/internal/domain/trend"
	"github.com/clintriage/triage/internal/domain/triage"
)

// Snapshot is one historical observation for a patient: the completed
// feature record and the level it was triaged at.
type Snapshot struct {
	Record  triage.FeatureRecord `json:"record"`
	Level   int                  `json:"triage_level"`
	TakenAt time.Time            `json:"taken_at"`
}

// Entry is one fully populated worklist row. Every field is always set;
// narrative fields degrade to placeholders rather than going missing.
type Entry struct {
	PatientID     string               `json:"patient_id"`
	EncounterID   uuid.UUID            `json:"encounter_id"`
	Level         int                  `json:"triage_level"`
	Source        triage.DecisionSource `json:"source"`
	RuleReason    *string              `json:"reason,omitempty"`
	Department    string               `json:"department"`
	Record        triage.FeatureRecord `json:"features"`
	Factors       []explain.Factor     `json:"top_factors"`
	FactorSummary string               `json:"factor_summary"`
	Narrative     narrative.Result     `json:"narrative"`
	Trend         trend.Record         `json:"trend"`
	CreatedAt     time.Time            `json:"created_at"`
}

// HistoryStore is the injected per-patient history collaborator. History is
// an append-only sequence per patient identity, owned by the session, and
// the pipeline only ever reads the latest prior snapshot.
type HistoryStore interface {
	Latest(patientID string) (Snapshot, bool)
	Append(patientID string, s Snapshot)
}
