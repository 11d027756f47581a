package analysis

import "strings"

// Language describes one supported language tag.
type Language struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// supportedLanguages is the fixed tag set. Order is presentation order.
var supportedLanguages = []Language{
	{ID: "python", Name: "Python", Extension: ".py"},
	{ID: "javascript", Name: "JavaScript", Extension: ".js"},
	{ID: "typescript", Name: "TypeScript", Extension: ".ts"},
	{ID: "java", Name: "Java", Extension: ".java"},
	{ID: "cpp", Name: "C++", Extension: ".cpp"},
	{ID: "c", Name: "C", Extension: ".c"},
	{ID: "go", Name: "Go", Extension: ".go"},
	{ID: "rust", Name: "Rust", Extension: ".rs"},
}

// SupportedLanguages returns the fixed language set.
func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// NormalizeLanguage lowercases the tag and falls back to python for
// anything outside the supported set, keeping prompt generation
// deterministic instead of failing the request.
func NormalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, l := range supportedLanguages {
		if l.ID == tag {
			return tag
		}
	}
	return "python"
}
