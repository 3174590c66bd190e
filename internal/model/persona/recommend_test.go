package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emobotplus/emobot-client/internal/analysis/emotion"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name     string
		analysis emotion.Analysis
		want     Key
	}{
		{
			"high distress goes to empathy",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagSadness}, Intensity: emotion.IntensityHigh, NeedsSupport: true},
			KeyEmpathy,
		},
		{
			"three tags go to insight",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagJoy, emotion.TagAnger, emotion.TagFear}, Intensity: emotion.IntensityMedium},
			KeyInsight,
		},
		{
			"loneliness goes to insight",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagLoneliness}, Intensity: emotion.IntensityMedium},
			KeyInsight,
		},
		{
			"stress goes to solution",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagStress}, Intensity: emotion.IntensityMedium},
			KeySolution,
		},
		{
			"low intensity goes to solution",
			emotion.Analysis{Intensity: emotion.IntensityLow},
			KeySolution,
		},
		{
			"fear goes to cognitive",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagFear}, Intensity: emotion.IntensityMedium},
			KeyCognitive,
		},
		{
			"anger goes to cognitive",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagAnger}, Intensity: emotion.IntensityMedium},
			KeyCognitive,
		},
		{
			"default is empathy",
			emotion.Analysis{Intensity: emotion.IntensityMedium},
			KeyEmpathy,
		},
		{
			"joy alone is empathy",
			emotion.Analysis{Tags: []emotion.Tag{emotion.TagJoy}, Intensity: emotion.IntensityMedium},
			KeyEmpathy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.analysis))
		})
	}
}

// 规则有序，前面的规则永远压过后面的。
func TestRecommendRulePriority(t *testing.T) {
	// 孤独标签压过 needsSupport+high：归洞察型而非同理型。
	a := emotion.Analysis{
		Tags:         []emotion.Tag{emotion.TagLoneliness, emotion.TagFear},
		Intensity:    emotion.IntensityHigh,
		NeedsSupport: true,
	}
	assert.Equal(t, KeyInsight, Recommend(a))

	// 孤独 + 压力同现时洞察规则先命中。
	b := emotion.Analysis{
		Tags:      []emotion.Tag{emotion.TagStress, emotion.TagLoneliness},
		Intensity: emotion.IntensityMedium,
	}
	assert.Equal(t, KeyInsight, Recommend(b))

	// 压力 + 恐惧同现时解决型规则先命中。
	c := emotion.Analysis{
		Tags:      []emotion.Tag{emotion.TagFear, emotion.TagStress},
		Intensity: emotion.IntensityMedium,
	}
	assert.Equal(t, KeySolution, Recommend(c))
}

func TestRecommendIdempotent(t *testing.T) {
	a := emotion.Analyze("我覺得非常孤單又焦慮")
	first := Recommend(a)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Recommend(a))
	}
	assert.Equal(t, KeyInsight, first)
}
