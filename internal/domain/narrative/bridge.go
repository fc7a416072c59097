// Package narrative turns a triage decision and its ranked drivers into a
// clinician-readable synthesis via the generative-text backend. The backend
// is untrusted in both availability and output format, so every path through
// Synthesize returns a fully populated result; callers never null-check.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clintriage/triage/internal/platform/llm"
)

// Delimiter separates the three answer fields on the single required output
// line. Three pipes are distinctive enough to never occur in clinical prose.
const Delimiter = "|||"

const (
	maxNotesChars    = 500
	maxFallbackChars = 150

	defaultDepartment = "General Triage"
	fallbackAction    = "Manual Review"
)

// Result is the structured narrative for one worklist entry. All three
// fields are always set, degraded to placeholders when the backend fails.
type Result struct {
	Synthesis         string `json:"synthesis"`
	RecommendedAction string `json:"recommended_action"`
	Department        string `json:"department_routing"`
}

// Generator is the backend call the bridge depends on; satisfied by
// *llm.Client and by fakes in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.Options) (string, error)
}

// Bridge builds prompts, invokes the backend and defensively parses the
// delimited reply.
type Bridge struct {
	gen    Generator
	logger zerolog.Logger
}

func NewBridge(gen Generator, logger zerolog.Logger) *Bridge {
	return &Bridge{gen: gen, logger: logger}
}

// Synthesize produces the narrative for one decision. factorsText is the
// ranked attribution summary line; notes is the raw clinical text, truncated
// and flattened before it enters the prompt. Never returns an error: backend
// failures map to fixed placeholder results.
func (b *Bridge) Synthesize(ctx context.Context, level int, factorsText, notes string) Result {
	prompt := buildPrompt(level, factorsText, sanitizeNotes(notes))

	raw, err := b.gen.Generate(ctx, prompt, llm.DefaultOptions())
	if err != nil {
		return b.degrade(err)
	}
	return parseResponse(raw)
}

// sanitizeNotes bounds the prompt size: notes are cut at 500 characters
// (with an ellipsis marker when cut) and embedded line breaks become single
// spaces so the model sees one flat paragraph.
func sanitizeNotes(notes string) string {
	// Cut on runes, not bytes: clinical text carries multibyte characters
	// (degree signs, accented names) and a byte cut can split one in half.
	if r := []rune(notes); len(r) > maxNotesChars {
		notes = string(r[:maxNotesChars]) + "..."
	}
	return strings.ReplaceAll(notes, "\n", " ")
}

// buildPrompt renders the fixed instruction template. The worked example
// anchors the output format; small local models follow the delimiter far
// more reliably with one shot in front of them.
func buildPrompt(level int, factorsText, notes string) string {
	return fmt.Sprintf(`[INST] You are an AI Chief Medical Officer. Analyze the patient data and return exactly ONE line of text.
You MUST separate your 3 answers using the '%s' symbol.

Format:
Clinical Synthesis (1 sentence) %s Recommended Action (3-5 words) %s Department Routing (1-3 words)

Example:
Patient is a 55-year-old male presenting with severe chest pain and tachycardia. %s Stat EKG and Troponin %s Cardiac ICU

Patient Data:
- Risk Level: %d
- AI Drivers: %s
- Notes: %s
[/INST]
`, Delimiter, Delimiter, Delimiter, Delimiter, Delimiter, level, factorsText, notes)
}

// parseResponse splits the reply on the delimiter and fills fields by how
// much of the contract the model honored: three or more segments is well
// formed, two loses only the department, anything else dumps the raw text
// into the synthesis for manual review.
func parseResponse(raw string) Result {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\n", " "))
	parts := strings.Split(raw, Delimiter)

	switch {
	case len(parts) >= 3:
		return Result{
			Synthesis:         strings.TrimSpace(parts[0]),
			RecommendedAction: strings.TrimSpace(parts[1]),
			Department:        strings.TrimSpace(parts[2]),
		}
	case len(parts) == 2:
		return Result{
			Synthesis:         strings.TrimSpace(parts[0]),
			RecommendedAction: strings.TrimSpace(parts[1]),
			Department:        defaultDepartment,
		}
	default:
		if r := []rune(raw); len(r) > maxFallbackChars {
			raw = string(r[:maxFallbackChars])
		}
		return Result{
			Synthesis:         raw,
			RecommendedAction: fallbackAction,
			Department:        defaultDepartment,
		}
	}
}

// degrade maps each backend failure mode to its fixed placeholder so the
// worklist entry still appears on the board.
func (b *Bridge) degrade(err error) Result {
	var statusErr *llm.StatusError
	switch {
	case errors.As(err, &statusErr):
		b.logger.Warn().Int("status", statusErr.Code).Msg("narrative backend rejected request")
		return Result{
			Synthesis:         fmt.Sprintf("API Error %d", statusErr.Code),
			RecommendedAction: "Error",
			Department:        "Error",
		}
	case errors.Is(err, llm.ErrTimeout):
		b.logger.Warn().Msg("narrative backend timed out")
		return Result{
			Synthesis:         "Model Timeout.",
			RecommendedAction: "Retry",
			Department:        "Timeout",
		}
	default:
		b.logger.Warn().Err(err).Msg("narrative backend unreachable")
		return Result{
			Synthesis:         "Connection Failed.",
			RecommendedAction: "Start Ollama",
			Department:        "Offline",
		}
	}
}
