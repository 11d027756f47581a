package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidResponse is returned when no usable JSON object can be located
// and decoded from the upstream reply. The raw decode error is never
// surfaced to clients.
var ErrInvalidResponse = errors.New("invalid AI response")

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON locates a JSON object within an untrusted LLM reply. The
// model may return bare JSON, wrap it in a markdown code fence, or bury it
// in prose; all three forms are handled, in that order.
func ExtractJSON(reply string) ([]byte, error) {
	reply = strings.TrimSpace(reply)

	if json.Valid([]byte(reply)) {
		return []byte(reply), nil
	}

	if m := fencedJSONRe.FindStringSubmatch(reply); m != nil {
		if json.Valid([]byte(m[1])) {
			return []byte(m[1]), nil
		}
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		candidate := reply[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}

	return nil, ErrInvalidResponse
}

// Normalize decodes an upstream reply and coerces it into a Result that
// satisfies every contract invariant. This is the sole enforcement point
// for the upstream shape: anything downstream trusts the output blindly.
func Normalize(reply string) (*Result, error) {
	data, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrInvalidResponse
	}

	res := &Result{
		Score:         clampScore(raw["score"], 50),
		Summary:       stringValue(raw["summary"]),
		Bugs:          normalizeBugs(raw["bugs"]),
		Optimizations: normalizeOptimizations(raw["optimizations"]),
		Positives:     normalizePositives(raw["positives"]),
		Metrics:       normalizeMetrics(raw["metrics"]),
	}

	return res, nil
}

func normalizeBugs(v any) []Finding {
	items, _ := v.([]any)
	bugs := make([]Finding, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := Finding{
			Severity:    NormalizeSeverity(stringValue(m["severity"])),
			Title:       stringValue(m["title"]),
			Description: stringValue(m["description"]),
			Suggestion:  stringValue(m["suggestion"]),
		}
		if line, ok := toFloat(m["line"]); ok && line > 0 {
			f.Line = int(line)
		}
		bugs = append(bugs, f)
	}
	return bugs
}

func normalizeOptimizations(v any) []Suggestion {
	items, _ := v.([]any)
	opts := make([]Suggestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s := Suggestion{
			Category:    NormalizeCategory(stringValue(m["category"])),
			Title:       stringValue(m["title"]),
			Description: stringValue(m["description"]),
			CodeExample: stringValue(m["code_example"]),
		}
		// Older model replies used camelCase for the example field.
		if s.CodeExample == "" {
			s.CodeExample = stringValue(m["codeExample"])
		}
		opts = append(opts, s)
	}
	return opts
}

// normalizePositives accepts both plain strings and {description: ...}
// objects, which older persisted results used interchangeably.
func normalizePositives(v any) []string {
	items, _ := v.([]any)
	positives := make([]string, 0, len(items))
	for _, item := range items {
		switch p := item.(type) {
		case string:
			if p != "" {
				positives = append(positives, p)
			}
		case map[string]any:
			if desc := stringValue(p["description"]); desc != "" {
				positives = append(positives, desc)
			}
		}
	}
	return positives
}

func normalizeMetrics(v any) Metrics {
	m, _ := v.(map[string]any)
	metrics := Metrics{
		Complexity:      NormalizeComplexity(stringValue(m["complexity"])),
		Readability:     clampScore(m["readability"], 50),
		Maintainability: clampScore(m["maintainability"], 50),
		Security:        clampScore(m["security"], 50),
	}
	for k, raw := range m {
		switch k {
		case "complexity", "readability", "maintainability", "security":
			continue
		}
		if n, ok := toFloat(raw); ok {
			if metrics.Extra == nil {
				metrics.Extra = make(map[string]float64)
			}
			metrics.Extra[k] = n
		}
	}
	return metrics
}

// clampScore coerces v to an integer in [0,100], using def when v is
// missing or not numeric.
func clampScore(v any, def int) int {
	n, ok := toFloat(v)
	if !ok {
		return def
	}
	score := int(n)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// toFloat coerces JSON-decoded values (float64, json.Number, numeric
// strings) to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
