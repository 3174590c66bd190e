package chat

import "time"

// Sender 标识一条消息来自谁。
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// VoicePlaceholder 是语音输入落入消息日志时的占位文本。
const VoicePlaceholder = "[語音訊息]"

// Message is a single completed turn. Messages are created immutably when a
// turn resolves and appended to the session log; they are never edited in
// place. Suggestions only ever appears on assistant messages.
type Message struct {
	ID          string    `json:"id"`
	Sender      Sender    `json:"sender"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Clock renders the timestamp at display precision.
func (m Message) Clock() string {
	return m.Timestamp.Format("15:04")
}
