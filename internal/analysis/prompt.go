package analysis

import (
	"fmt"
	"strings"
)

// maxHistoryTurns caps how much rolling chat history is forwarded upstream.
const maxHistoryTurns = 10

const analysisSystemPrompt = `You are an expert code reviewer. Always respond with valid JSON only.`

const analysisPromptTemplate = `You are an expert code reviewer and software engineer. Analyze the following %[1]s code and provide a comprehensive review.

CODE TO ANALYZE:
` + "```%[1]s\n%[2]s\n```" + `

Provide your analysis in the following JSON format (ONLY return valid JSON, no markdown):
{
    "score": <number between 0-100>,
    "summary": "<brief 1-2 sentence summary of code quality>",
    "bugs": [
        {
            "severity": "critical|high|medium|low",
            "line": <line number or null if general>,
            "title": "<short bug title>",
            "description": "<detailed explanation in simple, student-friendly language>",
            "suggestion": "<how to fix it>"
        }
    ],
    "optimizations": [
        {
            "category": "performance|readability|best-practices|security",
            "title": "<short title>",
            "description": "<explanation in beginner-friendly terms>",
            "code_example": "<optional improved code snippet or null>"
        }
    ],
    "positives": [
        "<things done well in the code>"
    ],
    "metrics": {
        "complexity": "<low|medium|high>",
        "readability": <score 0-100>,
        "maintainability": <score 0-100>,
        "security": <score 0-100>
    }
}

Guidelines for your review:
1. Detect syntax errors, logical bugs, and potential runtime issues
2. Suggest performance improvements and optimizations
3. Recommend best practices and coding standards
4. Identify security vulnerabilities if any
5. Explain issues in simple, beginner-friendly language that a student can understand
6. Be constructive and helpful, not harsh
7. Assign a fair quality score based on overall code quality

Return ONLY the JSON object, no additional text or markdown formatting.`

// BuildAnalysisPrompt embeds the code and language tag into the fixed
// review instruction template. The template is a static asset; callers
// cannot alter the instructions.
func BuildAnalysisPrompt(code, language string) string {
	return fmt.Sprintf(analysisPromptTemplate, language, code)
}

// AnalysisSystemPrompt returns the system prompt for analysis requests.
func AnalysisSystemPrompt() string {
	return analysisSystemPrompt
}

const chatSystemPrompt = `You are a helpful programming assistant. Answer questions about the user's code clearly and concisely, in plain text.`

// BuildChatPrompt constructs the chat-about-code prompt from the code,
// language, capped rolling history, and the new question.
func BuildChatPrompt(code, language string, history []ChatTurn, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The user is working on the following %s code:\n\n", language)
	fmt.Fprintf(&b, "```%s\n%s\n```\n", language, code)

	if trimmed := TrimHistory(history); len(trimmed) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range trimmed {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	b.WriteString("\nAnswer the question about this code. Respond in plain text, no JSON.")

	return b.String()
}

// ChatSystemPrompt returns the system prompt for chat requests.
func ChatSystemPrompt() string {
	return chatSystemPrompt
}

// TrimHistory returns the most recent maxHistoryTurns turns.
func TrimHistory(history []ChatTurn) []ChatTurn {
	if len(history) <= maxHistoryTurns {
		return history
	}
	return history[len(history)-maxHistoryTurns:]
}
