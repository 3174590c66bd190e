package emotion

import "strings"

// Tag 是固定情绪词汇表中的一个标签。
type Tag string

const (
	TagJoy        Tag = "joy"
	TagSadness    Tag = "sadness"
	TagAnger      Tag = "anger"
	TagFear       Tag = "fear"
	TagStress     Tag = "stress"
	TagLoneliness Tag = "loneliness"
)

// Intensity 表示语气强度，由修饰词推断。
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Analysis 是对一条外发消息的即时分析结果：检出的情绪标签、强度，
// 以及是否需要情绪支持。结果不落盘，算完即用。
type Analysis struct {
	Tags         []Tag     `json:"tags"`
	Intensity    Intensity `json:"intensity"`
	NeedsSupport bool      `json:"needsSupport"`
}

// Has reports whether the analysis detected the given tag.
func (a Analysis) Has(tag Tag) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// tagOrder 固定标签的扫描与输出顺序，保证结果确定。
var tagOrder = []Tag{TagJoy, TagSadness, TagAnger, TagFear, TagStress, TagLoneliness}

// keywordBuckets 是数据驱动的词表：要扩充或本地化词汇，改这里即可，
// 不需要动任何控制流。
var keywordBuckets = map[Tag][]string{
	TagJoy: {
		"開心", "快樂", "高興", "興奮", "幸福", "太好了", "太棒了", "好耶",
		"happy", "glad", "great", "joy", "excited",
	},
	TagSadness: {
		"難過", "傷心", "低落", "失落", "沮喪", "想哭", "哭", "委屈", "心碎",
		"sad", "down", "cry", "depressed", "upset",
	},
	TagAnger: {
		"生氣", "憤怒", "火大", "氣死", "不爽", "討厭", "氣炸",
		"angry", "mad", "furious", "annoyed",
	},
	TagFear: {
		"焦慮", "害怕", "不安", "恐懼", "緊張", "擔心", "慌",
		"anxious", "afraid", "scared", "worried", "nervous",
	},
	TagStress: {
		"壓力", "好累", "疲憊", "喘不過氣", "忙不過來", "撐不住", "崩潰",
		"stress", "stressed", "tired", "exhausted", "overwhelmed",
	},
	TagLoneliness: {
		"孤單", "孤獨", "寂寞", "沒有人", "沒人懂", "一個人",
		"lonely", "alone", "isolated",
	},
}

// intensityScan 按低到高排列；扫描时后出现的级别覆盖先前的，
// 因此同句同时出现"有點"与"非常"时以高强度为准。
var intensityScan = []struct {
	Level Intensity
	Words []string
}{
	{IntensityLow, []string{"一點", "有點", "還好", "稍微", "些許", "a little", "a bit", "slightly", "somewhat"}},
	{IntensityHigh, []string{"非常", "超級", "極度", "真的很", "快要", "受不了", "really", "very", "extremely", "so much"}},
}

// distressTags 参与 NeedsSupport 判定的子集。
var distressTags = map[Tag]bool{
	TagSadness:    true,
	TagFear:       true,
	TagStress:     true,
	TagLoneliness: true,
}

// Analyze inspects one outgoing message for emotional keywords. It is pure
// and synchronous; empty input yields no tags, medium intensity and no
// support flag.
func Analyze(text string) Analysis {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Analysis{Intensity: IntensityMedium}
	}

	var tags []Tag
	for _, tag := range tagOrder {
		for _, word := range keywordBuckets[tag] {
			if strings.Contains(normalized, word) {
				tags = append(tags, tag)
				break
			}
		}
	}

	intensity := IntensityMedium
	for _, row := range intensityScan {
		for _, word := range row.Words {
			if strings.Contains(normalized, word) {
				intensity = row.Level
				break
			}
		}
	}

	needsSupport := false
	if intensity == IntensityHigh {
		for _, tag := range tags {
			if distressTags[tag] {
				needsSupport = true
				break
			}
		}
	}

	return Analysis{Tags: tags, Intensity: intensity, NeedsSupport: needsSupport}
}
