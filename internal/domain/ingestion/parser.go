// Package ingestion turns raw clinical document text into a sparse feature
// observation. Extraction is heuristic and best-effort: each vital is matched
// independently with tolerant patterns, a field that cannot be read is simply
// absent, and the call never fails. Text acquisition (PDF extraction, OCR) is
// an upstream collaborator; this package only sees the flattened string.
package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clintriage/triage/internal/domain/triage"
)

// Extraction is the parser output: the sparse observed vitals plus the
// untouched source text, carried through for narrative synthesis.
type Extraction struct {
	triage.Partial
	RawText string
}

var (
	// Filler-word tolerance: "temp to 104.4", "HR of 110", "BP is 150/90".
	tempRe    = regexp.MustCompile(`(?i)(?:Temperature|Temp)\s*(?:of|to|is|at|:)?\s*(\d{2,3}\.?\d?)`)
	tempDegRe = regexp.MustCompile(`(\d{2,3}\.?\d?)\s*°\s*[FfCc]`)
	// "[Oo0]2" tolerates the zero/letter-O confusion common in OCR output.
	spo2Re = regexp.MustCompile(`(?i)(?:SpO2|Oxygen\s*Saturation|[Oo0]2\s*Sat)\s*(?:of|to|is|at|:)?\s*(\d{2,3})`)
	hrRe   = regexp.MustCompile(`(?i)(?:Heart\s*Rate|HR|Pulse)\s*(?:of|to|is|at|:)?\s*(\d{2,3})`)
	// Systolic is the number immediately preceding the "/" of the
	// systolic-over-diastolic notation.
	sbpRe     = regexp.MustCompile(`(?i)(?:Blood\s*Pressure|BP)\s*(?:of|to|is|at|:)?\s*(\d{2,3})\s*/`)
	ageRe     = regexp.MustCompile(`(?i)(?:Age\s*[:\n\t]+\s*(\d{1,3}))|(\d{1,3})\s*-?\s*(?:years?\s*-?\s*old|y\.?o\.?)`)
	chronicRe []*regexp.Regexp
)

// chronicConditions is the fixed vocabulary counted toward
// chronic_disease_count.
var chronicConditions = []string{
	"hypertension",
	"asthma",
	"diabetes",
	"psoriatic arthritis",
	"coronary artery disease",
	"cad",
	"copd",
	"cancer",
	"heart failure",
}

func init() {
	chronicRe = make([]*regexp.Regexp, len(chronicConditions))
	for i, kw := range chronicConditions {
		chronicRe[i] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
}

// Extract scans free text for vitals and demographics. Fields are matched
// independently; a miss in one never affects the others.
func Extract(rawText string) Extraction {
	out := Extraction{RawText: rawText}
	out.BodyTemperature = extractTemperature(rawText)
	out.OxygenSaturation = extractOxygenSaturation(rawText)
	out.HeartRate = extractHeartRate(rawText)
	out.SystolicBP = extractSystolicBP(rawText)
	out.Age = extractAge(rawText)
	out.ChronicDiseaseCount = extractChronicCount(rawText)
	return out
}

// extractTemperature collects every labeled or degree-marked reading,
// normalizes to Celsius and keeps the highest plausible value so the worst
// fever on the page is the one recorded.
//
// Known limitation: any parsed value above 50 is assumed to be Fahrenheit.
// A genuine Celsius reading above 50 cannot occur in a living patient, but a
// miswritten Fahrenheit value below 50 will be admitted as Celsius when it
// lands in the plausible range. The threshold is kept as-is pending clinical
// review.
func extractTemperature(text string) *float64 {
	var candidates []float64
	for _, m := range tempRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			candidates = append(candidates, v)
		}
	}
	for _, m := range tempDegRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			candidates = append(candidates, v)
		}
	}
	var best *float64
	for _, v := range candidates {
		c := v
		if c > 50 {
			c = round1((c - 32) * 5 / 9)
		}
		if c < 30.0 || c > 45.0 {
			continue
		}
		if best == nil || c > *best {
			v := c
			best = &v
		}
	}
	return best
}

// extractOxygenSaturation keeps the minimum plausible reading — the
// worst-case desaturation.
func extractOxygenSaturation(text string) *int {
	var best *int
	for _, m := range spo2Re.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 50 || v > 100 {
			continue
		}
		if best == nil || v < *best {
			v := v
			best = &v
		}
	}
	return best
}

func extractHeartRate(text string) *int {
	var best *int
	for _, m := range hrRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 30 || v > 250 {
			continue
		}
		if best == nil || v > *best {
			v := v
			best = &v
		}
	}
	return best
}

func extractSystolicBP(text string) *int {
	var best *int
	for _, m := range sbpRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 50 || v > 300 {
			continue
		}
		if best == nil || v > *best {
			v := v
			best = &v
		}
	}
	return best
}

// extractAge accepts an explicit "Age:" label or an "N years old" / "N y.o."
// phrasing; only the first match is used.
func extractAge(text string) *int {
	m := ageRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 120 {
		return nil
	}
	return &v
}

// extractChronicCount counts how many distinct conditions from the fixed
// vocabulary appear in the text. Zero hits leaves the field unobserved so
// the default applies downstream.
func extractChronicCount(text string) *int {
	count := 0
	for _, re := range chronicRe {
		if re.MatchString(text) {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &count
}

func round1(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}

// Summary renders the observed fields for logging.
func (e Extraction) Summary() string {
	var parts []string
	if e.Age != nil {
		parts = append(parts, "age="+strconv.Itoa(*e.Age))
	}
	if e.HeartRate != nil {
		parts = append(parts, "hr="+strconv.Itoa(*e.HeartRate))
	}
	if e.SystolicBP != nil {
		parts = append(parts, "sbp="+strconv.Itoa(*e.SystolicBP))
	}
	if e.OxygenSaturation != nil {
		parts = append(parts, "spo2="+strconv.Itoa(*e.OxygenSaturation))
	}
	if e.BodyTemperature != nil {
		parts = append(parts, "temp="+strconv.FormatFloat(*e.BodyTemperature, 'f', 1, 64))
	}
	if e.ChronicDiseaseCount != nil {
		parts = append(parts, "chronic="+strconv.Itoa(*e.ChronicDiseaseCount))
	}
	if len(parts) == 0 {
		return "no vitals recognized"
	}
	return strings.Join(parts, " ")
}
