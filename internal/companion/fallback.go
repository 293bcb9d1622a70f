package companion

import (
	"regexp"
	"strings"

	"github.com/wolfman30/wellness-companion/internal/contacts"
	"github.com/wolfman30/wellness-companion/internal/risk"
)

type moodSentence struct {
	level    int
	sentence string
}

// moodSentences must stay sorted by level.
var moodSentences = []moodSentence{
	{1, "I'm really sorry things feel this heavy right now. Thank you for trusting me with it."},
	{2, "That sounds really hard, and I'm sorry you're going through it."},
	{3, "It sounds like you're having a tough time, and that's completely understandable."},
	{4, "It sounds like a lot is weighing on you right now."},
	{5, "Thanks for checking in and sharing how things are going."},
	{7, "It's good to hear things are feeling a bit lighter."},
	{9, "I love hearing that you're doing so well!"},
}

// baseSentence picks the nearest defined level; ties go to the lower level.
func baseSentence(moodLevel int) string {
	best := moodSentences[0]
	bestDist := abs(moodLevel - best.level)
	for _, m := range moodSentences[1:] {
		if d := abs(moodLevel - m.level); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best.sentence
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type topic struct {
	signal      *regexp.Regexp
	suggestions []string
}

// topics is a priority list: the first matching topic supplies every
// suggestion, topics are never combined.
var topics = []topic{
	{
		signal: regexp.MustCompile(`(?i)\b(sleep|sleeping|insomnia|can'?t sleep|exhausted|restless)\b`),
		suggestions: []string{
			"Try keeping a consistent bedtime, even on weekends.",
			"Put screens away about 30 minutes before bed.",
			"If your mind is racing, jot your thoughts down before lying down.",
			"Keep caffeine to the morning.",
		},
	},
	{
		signal: regexp.MustCompile(`(?i)\b(panic|panicking|anxious|anxiety|nervous|on edge)\b`),
		suggestions: []string{
			"Try slow breathing: in for 4 counts, hold for 4, out for 6.",
			"Ground yourself by naming 5 things you can see and 4 things you can hear.",
			"Remind yourself that this feeling is uncomfortable but it will pass.",
		},
	},
	{
		signal: regexp.MustCompile(`(?i)\b(stress|stressed|stressful|overwhelmed|overwhelming|pressure|burn(ed|t)? out)\b`),
		suggestions: []string{
			"Pick just one small task to focus on next and set the rest aside for now.",
			"Take a five-minute break away from your screen.",
			"Write down what's on your plate so it isn't all living in your head.",
		},
	},
	{
		signal: regexp.MustCompile(`(?i)\b(sad|sadness|down|lonely|alone|crying|cry|empty|depressed)\b`),
		suggestions: []string{
			"Reach out to someone you feel comfortable with, even with a short message.",
			"Step outside for a few minutes of fresh air or light.",
			"Be as gentle with yourself as you would be with a friend.",
		},
	},
}

var genericSuggestions = []string{
	"Take a few slow, deep breaths.",
	"Drink a glass of water and have something to eat if you haven't.",
	"Go for a short walk or stretch for a few minutes.",
	"Write down one thing that's been on your mind.",
	"Do something small that usually brings you comfort.",
}

const maxSuggestions = 3

var reasonSignal = regexp.MustCompile(`(?i)\b(why|because)\b`)

const (
	closingReason = "It sounds like you've been trying to make sense of why this is happening. What feels most important to understand right now?"
	closingToday  = "What happened today that brought this up for you?"
)

// Fallback is the deterministic reply used when the provider is unavailable.
// High and critical risk always yield the crisis script.
func Fallback(text string, moodLevel int, level risk.Level, region string, contact *contacts.EmergencyContact) string {
	if level.IsCrisis() {
		return ComposeCrisis(region, contact)
	}

	base := baseSentence(moodLevel)
	closing := closingToday
	if reasonSignal.MatchString(text) {
		closing = closingReason
	}

	switch {
	case moodLevel >= 7:
		return base + "\n" + closing
	case moodLevel >= 5:
		return base + "\n\n" + closing
	}

	suggestions := genericSuggestions
	for _, t := range topics {
		if t.signal.MatchString(text) {
			suggestions = t.suggestions
			break
		}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nA few things that might help:")
	for _, s := range suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	b.WriteString("\n\n")
	b.WriteString(closing)
	return b.String()
}
