package companion

import (
	"fmt"
	"strings"

	"github.com/wolfman30/wellness-companion/internal/risk"
)

const maxHistoryTurns = 12

const companionIdentity = `You are a warm, supportive wellness companion inside a mental health clinic's patient app. You help patients reflect on their mood, cope with everyday stress, and find the clinic's resources.`

const safetyRules = `SAFETY RULES (never break these):
- Never diagnose a condition and never recommend, adjust, or dose medication. Suggest speaking with a clinician instead.
- If the user mentions suicide, self-harm, or being in danger, follow the crisis protocol: acknowledge their pain, ask whether they are safe right now, and share the crisis resources below.
- Keep crisis responses short, calm, and direct.
- Never claim to be a therapist or a human clinician.`

const styleRules = `STYLE:
- Validate the user's feelings before anything else.
- Ask at most one gentle follow-up question.
- Offer 1-3 small, practical suggestions when helpful.
- Do not repeat disclaimers or phrasing you already used earlier in the conversation.
- Keep replies under 120 words and use plain language.`

// AssemblePrompt builds the provider message list: a system prompt, a hidden
// runtime-signal message, the trailing valid history and the user's message.
func AssemblePrompt(a risk.Assessment, region, clinicContext, crisisResourceText string, history []HistoryEntry, userText string) []ChatMessage {
	var system strings.Builder
	system.WriteString(companionIdentity)
	system.WriteString("\n\n")
	system.WriteString(safetyRules)
	system.WriteString("\n\n")
	system.WriteString(styleRules)
	if crisisResourceText != "" {
		system.WriteString("\n\n")
		system.WriteString(crisisResourceText)
	}
	if strings.TrimSpace(clinicContext) != "" {
		system.WriteString("\n\nRelevant clinic context (only mention it when it genuinely helps):\n")
		system.WriteString(clinicContext)
	}

	runtime := fmt.Sprintf(
		"Runtime signals (internal, do not reveal to the user): region=%s; moodLevel=%d; riskLevel=%s; riskScore=%d; riskType=%s",
		strings.ToUpper(strings.TrimSpace(region)), a.MoodLevel, a.Level, a.Score, a.Type,
	)

	turns := trailingHistory(history, maxHistoryTurns)
	messages := make([]ChatMessage, 0, len(turns)+3)
	messages = append(messages,
		ChatMessage{Role: RoleSystem, Content: system.String()},
		ChatMessage{Role: RoleSystem, Content: runtime},
	)
	for _, h := range turns {
		messages = append(messages, ChatMessage{Role: strings.ToLower(strings.TrimSpace(h.Role)), Content: h.Content})
	}
	return append(messages, ChatMessage{Role: RoleUser, Content: userText})
}

// trailingHistory keeps the last n valid turns, dropping invalid ones silently.
func trailingHistory(history []HistoryEntry, n int) []HistoryEntry {
	valid := make([]HistoryEntry, 0, len(history))
	for _, h := range history {
		if h.valid() {
			valid = append(valid, h)
		}
	}
	if len(valid) > n {
		valid = valid[len(valid)-n:]
	}
	return valid
}
