package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEscalation(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLevel Level
		wantScore int
		wantType  Type
		wantHeavy bool
	}{
		{
			name:      "suicide intent with immediacy is critical",
			text:      "I want to end my life tonight",
			wantLevel: LevelCritical,
			wantScore: 10,
			wantType:  TypeSuicidalIdeation,
			wantHeavy: true,
		},
		{
			name:      "right now counts as immediacy",
			text:      "I want to kill myself right now",
			wantLevel: LevelCritical,
			wantScore: 10,
			wantType:  TypeSuicidalIdeation,
			wantHeavy: true,
		},
		{
			name:      "suicide intent without plan is high but scores 10",
			text:      "Sometimes I think about suicide",
			wantLevel: LevelHigh,
			wantScore: 10,
			wantType:  TypeSuicidalIdeation,
			wantHeavy: true,
		},
		{
			name:      "self-harm without immediacy is high",
			text:      "sometimes I want to hurt myself",
			wantLevel: LevelHigh,
			wantScore: 8,
			wantType:  TypeSelfHarm,
			wantHeavy: true,
		},
		{
			name:      "self-harm with a plan stays high",
			text:      "I plan to cut myself",
			wantLevel: LevelHigh,
			wantScore: 8,
			wantType:  TypeSelfHarm,
			wantHeavy: true,
		},
		{
			name:      "despair vocabulary is medium and heavy",
			text:      "I feel hopeless lately",
			wantLevel: LevelMedium,
			wantScore: 6,
			wantType:  TypeCrisis,
			wantHeavy: true,
		},
		{
			name:      "despair with substance use is typed substance-abuse",
			text:      "I keep drinking because everything is pointless",
			wantLevel: LevelMedium,
			wantScore: 6,
			wantType:  TypeSubstanceAbuse,
			wantHeavy: true,
		},
		{
			name:      "heavy situation alone stays low",
			text:      "I had a panic attack at work",
			wantLevel: LevelLow,
			wantScore: 2,
			wantType:  TypeCrisis,
			wantHeavy: true,
		},
		{
			name:      "curly apostrophe matches can't cope",
			text:      "I can’t cope with this anymore",
			wantLevel: LevelLow,
			wantScore: 2,
			wantType:  TypeCrisis,
			wantHeavy: true,
		},
		{
			name:      "ordinary message is low",
			text:      "I had a pretty normal day at work",
			wantLevel: LevelLow,
			wantScore: 2,
			wantType:  TypeOther,
			wantHeavy: false,
		},
		{
			name:      "empty text is low",
			text:      "",
			wantLevel: LevelLow,
			wantScore: 2,
			wantType:  TypeOther,
			wantHeavy: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantHeavy, got.IsHeavy)
		})
	}
}

func TestClassifyLowRiskScoreBound(t *testing.T) {
	for _, text := range []string{
		"Work was busy and I'm a bit tired",
		"Can you recommend a therapist near me?",
		"I'm feeling great about my progress",
		"planning a trip today",
	} {
		got := Classify(text)
		assert.Equal(t, LevelLow, got.Level, text)
		assert.LessOrEqual(t, got.Score, 2, text)
	}
}

func TestMoodLevelFirstMatchWins(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"I feel terrible", 2},
		{"I feel hopeless lately", DefaultMoodLevel},
		// "terrible" outranks "good" because its rule appears first.
		{"good morning, I feel terrible", 2},
		{"I'm happy but a little nervous", 4},
		{"fantastic news", 10},
		{"I downloaded the app", DefaultMoodLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text).MoodLevel, tt.text)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := "I feel worthless and I might overdose tonight"
	first := Classify(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(text))
	}
}

func TestNeedsRecording(t *testing.T) {
	assert.False(t, Assessment{Level: LevelLow}.NeedsRecording())
	assert.True(t, Assessment{Level: LevelLow, IsHeavy: true}.NeedsRecording())
	assert.True(t, Assessment{Level: LevelMedium}.NeedsRecording())
	assert.True(t, LevelCritical.IsCrisis())
	assert.False(t, LevelMedium.IsCrisis())
}
