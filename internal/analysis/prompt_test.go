package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	code := "print('hi')"
	prompt := BuildAnalysisPrompt(code, "python")

	assert.Contains(t, prompt, "```python\nprint('hi')\n```")
	assert.Contains(t, prompt, "Analyze the following python code")
	assert.Contains(t, prompt, `"severity": "critical|high|medium|low"`)
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestBuildChatPrompt(t *testing.T) {
	t.Run("embeds code, question, and history", func(t *testing.T) {
		history := []ChatTurn{
			{Role: "user", Content: "what does this do?"},
			{Role: "assistant", Content: "it prints hi"},
		}
		prompt := BuildChatPrompt("print('hi')", "python", history, "is it safe?")

		assert.Contains(t, prompt, "```python\nprint('hi')\n```")
		assert.Contains(t, prompt, "user: what does this do?")
		assert.Contains(t, prompt, "assistant: it prints hi")
		assert.Contains(t, prompt, "Question: is it safe?")
	})

	t.Run("omits history section when empty", func(t *testing.T) {
		prompt := BuildChatPrompt("x = 1", "python", nil, "why?")
		assert.NotContains(t, prompt, "Conversation so far")
	})

	t.Run("caps history at ten turns", func(t *testing.T) {
		var history []ChatTurn
		for i := 0; i < 25; i++ {
			history = append(history, ChatTurn{Role: "user", Content: fmt.Sprintf("turn-%d", i)})
		}
		prompt := BuildChatPrompt("x = 1", "python", history, "why?")

		assert.NotContains(t, prompt, "turn-14")
		assert.Contains(t, prompt, "turn-15")
		assert.Contains(t, prompt, "turn-24")
		assert.Equal(t, 10, strings.Count(prompt, "turn-"))
	})
}

func TestTrimHistory(t *testing.T) {
	var history []ChatTurn
	for i := 0; i < 12; i++ {
		history = append(history, ChatTurn{Role: "user", Content: fmt.Sprintf("%d", i)})
	}

	trimmed := TrimHistory(history)
	require.Len(t, trimmed, 10)
	assert.Equal(t, "2", trimmed[0].Content)
	assert.Equal(t, "11", trimmed[9].Content)

	short := []ChatTurn{{Role: "user", Content: "only"}}
	assert.Equal(t, short, TrimHistory(short))
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"python", "python"},
		{"GO", "go"},
		{"  Rust ", "rust"},
		{"cobol", "python"},
		{"", "python"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in), "input %q", tt.in)
	}
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	require.Len(t, langs, 8)
	assert.Equal(t, "python", langs[0].ID)
	assert.Equal(t, ".py", langs[0].Extension)

	// Returned slice is a copy; mutating it must not affect the set.
	langs[0].ID = "mutated"
	assert.Equal(t, "python", SupportedLanguages()[0].ID)
}
