package persona

import "fmt"

// Key 是固定的四种 AI 夥伴类型，构建期确定，不可由用户扩展。
type Key string

const (
	KeyEmpathy   Key = "empathy"
	KeyInsight   Key = "insight"
	KeySolution  Key = "solution"
	KeyCognitive Key = "cognitive"
)

// Keys 按产品页面的展示顺序列出全部类型。
func Keys() []Key {
	return []Key{KeyEmpathy, KeyInsight, KeySolution, KeyCognitive}
}

// Valid reports whether k is one of the fixed persona types.
func Valid(k Key) bool {
	switch k {
	case KeyEmpathy, KeyInsight, KeySolution, KeyCognitive:
		return true
	}
	return false
}

// Persona captures the attributes rendered in session headers and cards.
type Persona struct {
	Key          Key    `json:"key"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Tagline      string `json:"tagline"`
	Subtitle     string `json:"subtitle"`
	Specialty    string `json:"specialty"`
	Approach     string `json:"approach"`
	AvatarLetter string `json:"avatarLetter"`

	// 后端失联时的剧本化回复，保证对话不中断。
	FallbackText    string `json:"-"`
	FallbackVideo   string `json:"-"`
	FallbackOffline string `json:"-"`
}

// Greeting 生成开场白，作为会话的第一条助手消息。
func (p Persona) Greeting(nickname string) string {
	if nickname == "" {
		nickname = "你"
	}
	return fmt.Sprintf("嗨 %s，我是 %s。今天想從哪裡開始呢？", nickname, p.Name)
}

// Seed provides the fixed product personas.
func Seed() []Persona {
	return []Persona{
		{
			Key:             KeyEmpathy,
			Name:            "Lumi",
			DisplayName:     "同理型 AI",
			Tagline:         "Lumi — 用溫柔與共感陪你說說話。",
			Subtitle:        "溫暖陪伴、情緒承接與安撫，讓你被好好地聽見與理解。",
			Specialty:       "孤獨感、低自尊、情感失落、自我懷疑、親密關係議題",
			Approach:        "擅長建立溫暖、接納的氛圍，引導使用者覺察情緒並與之共處",
			AvatarLetter:    "L",
			FallbackText:    "我在這裡陪著你。想先說說現在心裡最重的那個感覺嗎？",
			FallbackVideo:   "我在這裡，先一起做個小小的深呼吸。想和我說說剛剛最在意的一件事嗎？",
			FallbackOffline: "抱歉，目前連接有些問題。不過我還是想聽聽你想分享的內容。能先說說今天讓你印象最深刻的事嗎？",
		},
		{
			Key:             KeyInsight,
			Name:            "Solin",
			DisplayName:     "洞察型 AI",
			Tagline:         "Solin — 一起釐清、看見新的可能。",
			Subtitle:        "以溫柔的提問與重述，協助梳理線索、找出關鍵與洞見。",
			Specialty:       "反覆的人際模式、創傷經驗、自我價值疑問、夢境探索、內在空虛感",
			Approach:        "長於探索潛意識與潛藏動機，引導使用者對過往經驗進行深層理解",
			AvatarLetter:    "S",
			FallbackText:    "讓我們慢下來一點。剛剛那個念頭出現時，你注意到什麼？",
			FallbackVideo:   "先停一下也沒關係。回想剛才，最先浮現的畫面是什麼？",
			FallbackOffline: "抱歉，目前連接有些問題。不過我們還是可以繼續——剛剛的想法裡，哪一個最想被釐清？",
		},
		{
			Key:             KeySolution,
			Name:            "Niko",
			DisplayName:     "解決型 AI",
			Tagline:         "Niko — 一起做點能改變的事。",
			Subtitle:        "聚焦可行步驟與微目標，協助把感受轉成行動與支持。",
			Specialty:       "職場壓力、衝突處理、時間管理、短期決策困難、日常壓力應對",
			Approach:        "現實導向，強調目標設定與資源活用，能快速聚焦在問題解決上",
			AvatarLetter:    "N",
			FallbackText:    "收到，讓我們一步一步來。想先從今天最困擾你的情境開始聊聊嗎？",
			FallbackVideo:   "我在這裡，先一起做個小小的深呼吸。想和我說說剛剛最在意的一件事嗎？",
			FallbackOffline: "抱歉，目前連接有些問題。不過我還是想聽聽你想分享的內容。能先說說今天讓你印象最深刻的事嗎？",
		},
		{
			Key:             KeyCognitive,
			Name:            "Clara",
			DisplayName:     "認知型 AI",
			Tagline:         "Clara — 一起練習看見思緒的樣子。",
			Subtitle:        "以認知重建、想法檢核、替代想法等，幫你和腦內小劇場溫柔同桌。",
			Specialty:       "負面自我對話、焦慮、完美主義、拖延、情緒管理",
			Approach:        "結構明確、邏輯清晰，擅長分析非理性思考並提供認知重建步驟",
			AvatarLetter:    "C",
			FallbackText:    "我們可以先把剛剛的想法寫下來檢查看看：它是事實，還是一種解讀？",
			FallbackVideo:   "先暫停一下。剛剛腦中閃過的那句話，我們一起看看它站不站得住腳？",
			FallbackOffline: "抱歉，目前連接有些問題。不過我們可以先離線練習：把剛剛的念頭說出來，我們一起檢核它。",
		},
	}
}
