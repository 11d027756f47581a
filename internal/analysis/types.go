// Package analysis implements the code-review pipeline: prompt construction,
// the LLM call, and normalization of the untrusted reply into the Result
// contract served to clients and persisted to history.
package analysis

import "encoding/json"

// Severity classifies how serious a reported bug is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// NormalizeSeverity maps arbitrary upstream severity strings onto the
// supported set, defaulting to medium.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// Category classifies an optimization suggestion.
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategoryReadability   Category = "readability"
	CategoryBestPractices Category = "best-practices"
	CategorySecurity      Category = "security"
)

// NormalizeCategory maps arbitrary upstream category strings onto the
// supported set, defaulting to best-practices.
func NormalizeCategory(s string) Category {
	switch Category(s) {
	case CategoryPerformance, CategoryReadability, CategoryBestPractices, CategorySecurity:
		return Category(s)
	default:
		return CategoryBestPractices
	}
}

// Complexity is the coarse complexity rating in Metrics.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// NormalizeComplexity maps arbitrary upstream complexity strings onto the
// supported set, defaulting to medium.
func NormalizeComplexity(s string) Complexity {
	switch Complexity(s) {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return Complexity(s)
	default:
		return ComplexityMedium
	}
}

// Finding is a single reported bug: severity, optional line number, and a
// suggested fix.
type Finding struct {
	Severity    Severity `json:"severity"`
	Line        int      `json:"line,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Suggestion is a single optimization recommendation.
type Suggestion struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CodeExample string   `json:"code_example,omitempty"`
}

// Metrics holds the per-dimension quality scores. Extra carries any
// additional numeric keys the upstream model reported; they are serialized
// inline alongside the fixed keys so clients can render them generically.
type Metrics struct {
	Complexity      Complexity
	Readability     int
	Maintainability int
	Security        int
	Extra           map[string]float64
}

// MarshalJSON serializes the fixed metric keys and any extra numeric keys
// as a single flat object.
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(m.Extra))
	for k, v := range m.Extra {
		out[k] = v
	}
	out["complexity"] = m.Complexity
	out["readability"] = m.Readability
	out["maintainability"] = m.Maintainability
	out["security"] = m.Security
	return json.Marshal(out)
}

// UnmarshalJSON restores Metrics from the flat object form, collecting
// unknown numeric keys into Extra.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if c, ok := raw["complexity"].(string); ok {
		m.Complexity = NormalizeComplexity(c)
	} else {
		m.Complexity = ComplexityMedium
	}
	m.Readability = clampScore(raw["readability"], 50)
	m.Maintainability = clampScore(raw["maintainability"], 50)
	m.Security = clampScore(raw["security"], 50)
	for k, v := range raw {
		switch k {
		case "complexity", "readability", "maintainability", "security":
			continue
		}
		if n, ok := toFloat(v); ok {
			if m.Extra == nil {
				m.Extra = make(map[string]float64)
			}
			m.Extra[k] = n
		}
	}
	return nil
}

// Result is the normalized analysis contract. Every instance that leaves
// this package satisfies the invariants: scores in [0,100], slices non-nil,
// enums within their supported sets.
type Result struct {
	Score         int          `json:"score"`
	Summary       string       `json:"summary"`
	Bugs          []Finding    `json:"bugs"`
	Optimizations []Suggestion `json:"optimizations"`
	Positives     []string     `json:"positives"`
	Metrics       Metrics      `json:"metrics"`
}

// ChatTurn is a single message in a chat-about-code session.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single analysis submission.
type Request struct {
	Code      string
	Language  string
	UserID    int64
	ProjectID int64
}

// ChatRequest is a single chat-about-code submission.
type ChatRequest struct {
	Code     string
	Language string
	Question string
	History  []ChatTurn
}
