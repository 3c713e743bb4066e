package chats

import (
	"strings"

	"resume-studio/internal/llm"
	"resume-studio/internal/resume"
)

var assistantRules = []string{
	"You are a meticulous resume writing assistant.",
	"Use only the information provided in the resume context or the user’s latest message.",
	"If the user asks for achievements or data that are missing, suggest how they might gather it instead of inventing details.",
	"Keep tone professional and concise; prefer bullet points or short paragraphs.",
	"When rewriting, mirror the style but improve clarity, quantify impact when possible, and ensure ATS-friendly language.",
	"If the user asks for general advice, provide actionable guidance.",
}

const noResumeData = "No resume data is available yet."

// SystemPrompt returns the assistant rules followed by the resume context.
func SystemPrompt(content resume.Content) string {
	summary := resume.Summary(content)
	if summary == "" {
		summary = noResumeData
	}
	lines := append(append([]string{}, assistantRules...), "", "Resume context:", summary)
	return strings.Join(lines, "\n")
}

// BuildMessages assembles the model input: system prompt, optional parsed
// attachment text, then the recent history in order.
func BuildMessages(doc resume.Document, history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(doc.Content)})

	if parsed := doc.Attachment.ParsedText; parsed != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: "Additional resume text (unstructured):\n" + truncateRunes(parsed, MaxParsedTextPrompt),
		})
	}
	for _, t := range history {
		messages = append(messages, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}
	return messages
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
