package chat

import "time"

// Mode 是会话的交互模式，开场后不可更换。
type Mode string

const (
	ModeText  Mode = "text"
	ModeVideo Mode = "video"
)

// State 是会话状态机的当前位置。所有"正在输入/禁用输入/录音中"之类的
// 界面开关都从这里推导，而不是各自维护布尔标志。
type State int

const (
	StateNotStarted State = iota
	StateAwaitingFirstSend
	StateSending
	StateAwaitingReply
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateAwaitingFirstSend:
		return "awaiting_first_send"
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// CanSend reports whether a new send may be initiated in this state. While a
// request is outstanding additional sends are refused, which is the single
// concurrency invariant the session upholds.
func (s State) CanSend() bool {
	return s == StateAwaitingFirstSend || s == StateIdle
}

// Session captures one transient conversation. It lives only while the chat
// screen is mounted and is discarded on navigation, never persisted.
type Session struct {
	ID        string    `json:"id"`
	Persona   string    `json:"persona"`
	Mode      Mode      `json:"mode"`
	State     State     `json:"state"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}
