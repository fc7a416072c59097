// Package intake runs the triage decision pipeline end to end for one
// patient record: extract, complete, decide, explain, narrate, trend, then
// publish to the worklist. Each record is processed synchronously to
// completion; a narrative-backend failure degrades that record's narrative
// but never fails the record itself.
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clintriage/triage/internal/domain/explain"
	"github.com/clintriage/triage/internal/domain/ingestion"
	"github.com/clintriage/triage/internal/domain/narrative"
	"github.com/clintriage/triage/internal/domain/trend"
	"github.com/clintriage/triage/internal/domain/triage"
	"github.com/clintriage/triage/internal/domain/worklist"
)

// Service wires the pipeline stages together. All collaborators are
// injected so the whole flow tests against fakes.
type Service struct {
	engine    *triage.Engine
	explainer *explain.Explainer
	bridge    *narrative.Bridge
	history   worklist.HistoryStore
	board     *worklist.Board
	active    triage.ActiveSet
	logger    zerolog.Logger
}

func NewService(
	engine *triage.Engine,
	explainer *explain.Explainer,
	bridge *narrative.Bridge,
	history worklist.HistoryStore,
	board *worklist.Board,
	active triage.ActiveSet,
	logger zerolog.Logger,
) *Service {
	return &Service{
		engine:    engine,
		explainer: explainer,
		bridge:    bridge,
		history:   history,
		board:     board,
		active:    active,
		logger:    logger,
	}
}

// ManualVitals is the full intake-form observation. Unlike document
// extraction every field is present.
type ManualVitals struct {
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

// ProcessDocument triages one patient from raw document text.
func (s *Service) ProcessDocument(ctx context.Context, patientID, text string) (*worklist.Entry, error) {
	extraction := ingestion.Extract(text)
	s.logger.Info().Str("patient_id", patientID).Str("vitals", extraction.Summary()).Msg("document extracted")

	notes := extraction.RawText
	if notes == "" {
		notes = "No clinical context."
	}
	return s.process(ctx, patientID, extraction.Partial, notes)
}

// ProcessManual triages one patient from the intake form. The synthetic
// note line gives the narrative backend the same kind of context a
// document would.
func (s *Service) ProcessManual(ctx context.Context, patientID string, v ManualVitals) (*worklist.Entry, error) {
	partial := triage.Partial{
		Age:                 &v.Age,
		HeartRate:           &v.HeartRate,
		SystolicBP:          &v.SystolicBP,
		OxygenSaturation:    &v.OxygenSaturation,
		BodyTemperature:     &v.BodyTemperature,
		PainLevel:           &v.PainLevel,
		ChronicDiseaseCount: &v.ChronicDiseaseCount,
		PreviousERVisits:    &v.PreviousERVisits,
		ArrivalMode:         &v.ArrivalMode,
	}
	notes := fmt.Sprintf("Patient arrived via %s complaining of %d/10 pain. Vitals: HR %d, SpO2 %d.",
		v.ArrivalMode, v.PainLevel, v.HeartRate, v.OxygenSaturation)
	return s.process(ctx, patientID, partial, notes)
}

func (s *Service) process(ctx context.Context, patientID string, partial triage.Partial, notes string) (*worklist.Entry, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	record := triage.Complete(partial, s.active)

	decision, err := s.engine.Decide(record)
	if err != nil {
		return nil, fmt.Errorf("triage %s: %w", patientID, err)
	}

	factors, err := s.explainer.Explain(record, decision, s.active)
	if err != nil {
		return nil, fmt.Errorf("explain %s: %w", patientID, err)
	}
	summary := explain.Summary(factors)

	// Narrative synthesis degrades internally and never errors.
	result := s.bridge.Synthesize(ctx, decision.Level, summary, notes)

	var prior *triage.FeatureRecord
	if snap, ok := s.history.Latest(patientID); ok {
		rec := snap.Record
		prior = &rec
	}
	trendRec := trend.Compute(record, prior)

	s.history.Append(patientID, worklist.Snapshot{
		Record:  record,
		Level:   decision.Level,
		TakenAt: time.Now(),
	})

	entry := &worklist.Entry{
		PatientID:     patientID,
		EncounterID:   uuid.New(),
		Level:         decision.Level,
		Source:        decision.Source,
		RuleReason:    decision.RuleReason,
		Department:    decision.Department,
		Record:        record,
		Factors:       factors,
		FactorSummary: summary,
		Narrative:     result,
		Trend:         trendRec,
		CreatedAt:     time.Now(),
	}
	s.board.Upsert(entry)

	s.logger.Info().
		Str("patient_id", patientID).
		Int("level", decision.Level).
		Str("source", string(decision.Source)).
		Str("department", decision.Department).
		Str("trend", trendRec.Label).
		Msg("patient triaged")
	return entry, nil
}
