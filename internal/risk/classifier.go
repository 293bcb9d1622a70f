// Package risk classifies inbound chat text for mood and self-harm/crisis risk.
package risk

import (
	"regexp"
	"strings"
)

// Level is the ordinal self-harm/crisis risk of a message.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// IsCrisis reports whether the level bypasses the completion provider.
func (l Level) IsCrisis() bool {
	return l == LevelHigh || l == LevelCritical
}

// Type names the dominant risk signal in a message.
type Type string

const (
	TypeSuicidalIdeation Type = "suicidal-ideation"
	TypeSelfHarm         Type = "self-harm"
	TypeSubstanceAbuse   Type = "substance-abuse"
	TypeCrisis           Type = "crisis"
	TypeOther            Type = "other"
)

// DefaultMoodLevel is used when no mood keyword matches.
const DefaultMoodLevel = 5

// Assessment is the immutable classification of one message.
type Assessment struct {
	MoodLevel int   `json:"moodLevel"`
	Level     Level `json:"riskLevel"`
	Score     int   `json:"riskScore"`
	Type      Type  `json:"riskType"`
	IsHeavy   bool  `json:"isHeavy"`
}

// NeedsRecording reports whether the message warrants an alert and a risk-log entry.
func (a Assessment) NeedsRecording() bool {
	return a.Level != LevelLow || a.IsHeavy
}

type moodRule struct {
	re    *regexp.Regexp
	level int
}

// moodRules is a priority list: first match wins, later rules are never consulted.
var moodRules = []moodRule{
	{wordPattern("devastated", "miserable", "broken inside"), 1},
	{wordPattern("terrible", "awful", "depressed", "horrible"), 2},
	{wordPattern("sad", "down", "lonely", "empty", "upset"), 3},
	{wordPattern("anxious", "stressed", "worried", "overwhelmed", "nervous", "tired"), 4},
	{wordPattern("okay", "ok", "fine", "meh"), 5},
	{wordPattern("better", "alright"), 6},
	{wordPattern("good", "calm", "relaxed"), 7},
	{wordPattern("happy", "great", "grateful"), 8},
	{wordPattern("excited", "amazing", "wonderful"), 9},
	{wordPattern("fantastic", "ecstatic", "on top of the world"), 10},
}

var (
	suicideIntent = wordPattern(
		"kill myself", "killing myself", "end my life", "ending my life", "take my own life",
		"want to die", "wanna die", "suicide", "suicidal", "better off dead", "no reason to live",
	)
	selfHarm = wordPattern(
		"hurt myself", "hurting myself", "harm myself", "harming myself", "cut myself",
		"cutting myself", "self-harm", "self harm", "burn myself",
	)
	planSignal = wordPattern(
		"plan", "plans", "planned", "planning", "tonight", "right now", "today",
		"this weekend", "pills", "rope", "gun", "bridge", "goodbye note",
	)
	despair = wordPattern(
		"hopeless", "worthless", "despair", "no way out", "pointless",
	)
	heavySituation = wordPattern(
		"panic attack", "panic attacks", "abuse", "abused", "abusive", "assault", "assaulted",
		"raped", "violence", "can't cope", "cannot cope", "can not cope",
	)
	substanceUse = wordPattern(
		"drunk", "alcohol", "drinking", "overdose", "overdosed", "drugs", "high on",
		"relapse", "relapsed", "cocaine", "heroin", "opioids",
	)
)

// Classify is a total, deterministic function of the text.
func Classify(text string) Assessment {
	lowered := strings.ToLower(text)

	hasSuicide := suicideIntent.MatchString(lowered)
	hasSelfHarm := selfHarm.MatchString(lowered)
	hasPlan := planSignal.MatchString(lowered)

	var level Level
	switch {
	case hasSuicide && hasPlan:
		level = LevelCritical
	case hasSuicide || hasSelfHarm:
		level = LevelHigh
	case despair.MatchString(lowered):
		level = LevelMedium
	default:
		level = LevelLow
	}

	heavy := level != LevelLow || heavySituation.MatchString(lowered)

	var riskType Type
	switch {
	case hasSuicide:
		riskType = TypeSuicidalIdeation
	case hasSelfHarm:
		riskType = TypeSelfHarm
	case substanceUse.MatchString(lowered):
		riskType = TypeSubstanceAbuse
	case heavy:
		riskType = TypeCrisis
	default:
		riskType = TypeOther
	}

	// Score is intentionally not a function of level alone.
	var score int
	switch {
	case hasSuicide || level == LevelCritical:
		score = 10
	case level == LevelHigh:
		score = 8
	case level == LevelMedium && heavy:
		score = 6
	case level == LevelMedium:
		score = 5
	default:
		score = 2
	}

	return Assessment{
		MoodLevel: moodLevel(lowered),
		Level:     level,
		Score:     score,
		Type:      riskType,
		IsHeavy:   heavy,
	}
}

func moodLevel(lowered string) int {
	for _, rule := range moodRules {
		if rule.re.MatchString(lowered) {
			return rule.level
		}
	}
	return DefaultMoodLevel
}

// wordPattern compiles phrases into a single case-insensitive alternation
// anchored on word boundaries.
func wordPattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		escaped := regexp.QuoteMeta(p)
		escaped = strings.ReplaceAll(escaped, "'", "['’]")
		quoted = append(quoted, escaped)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
