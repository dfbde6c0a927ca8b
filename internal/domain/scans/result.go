package scans

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	FallbackConfidence     = 75
	FallbackRisk           = RiskModerate
	FallbackRecommendation = "Consult with a medical professional for proper diagnosis"
)

// greedy: first '{' to last '}', across newlines
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// FallbackResult is what the parser returns when the completion carries no
// usable JSON object.
func FallbackResult(raw string) AnalysisResult {
	return AnalysisResult{
		DetectedConditions: []string{},
		ConfidenceScore:    FallbackConfidence,
		RiskLevel:          FallbackRisk,
		Analysis:           raw,
		Recommendations:    []string{FallbackRecommendation},
	}
}

// ParseAnalysis extracts an AnalysisResult from a free-text completion.
// It never fails: anything it cannot read falls back field by field.
func ParseAnalysis(raw string) AnalysisResult {
	out := FallbackResult(raw)

	match := jsonObjectRe.FindString(raw)
	if match == "" {
		return out
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(match), &doc); err != nil {
		return out
	}

	if v, ok := stringList(doc["detectedConditions"]); ok {
		out.DetectedConditions = v
	}
	if v, ok := score(doc["confidenceScore"]); ok {
		out.ConfidenceScore = v
	}
	if v, ok := str(doc["riskLevel"]); ok {
		// case and padding are normalized; unknown values still render as "Unknown"
		out.RiskLevel = RiskLevel(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := str(doc["analysis"]); ok {
		out.Analysis = v
	}
	if v, ok := stringList(doc["recommendations"]); ok {
		out.Recommendations = v
	}
	return out
}

// present treats absent keys and explicit nulls alike.
func present(b json.RawMessage) bool {
	return len(b) > 0 && string(b) != "null"
}

func str(b json.RawMessage) (string, bool) {
	if !present(b) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}

// stringList accepts an array of strings; non-string items are dropped.
func stringList(b json.RawMessage) ([]string, bool) {
	if !present(b) {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// score accepts a number or a numeric string and clamps it to 0..100.
func score(b json.RawMessage) (float64, bool) {
	if !present(b) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		s, ok := str(b)
		if !ok {
			return 0, false
		}
		parsed, perr := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if perr != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Max(0, math.Min(100, f)), true
}
