package persona

import "github.com/emobotplus/emobot-client/internal/analysis/emotion"

// Recommend maps an emotion analysis to the persona type best suited to
// respond. The rules are ordered; the first match wins, so the same analysis
// always yields the same key. 孤独与多重情绪优先于一般的高强度困扰：
// 孤独的使用者要的是被理解脉络，而不只是安抚。
func Recommend(a emotion.Analysis) Key {
	switch {
	case len(a.Tags) >= 3 || a.Has(emotion.TagLoneliness):
		return KeyInsight
	case a.NeedsSupport && a.Intensity == emotion.IntensityHigh:
		return KeyEmpathy
	case a.Has(emotion.TagStress) || a.Intensity == emotion.IntensityLow:
		return KeySolution
	case a.Has(emotion.TagFear) || a.Has(emotion.TagAnger):
		return KeyCognitive
	default:
		return KeyEmpathy
	}
}
