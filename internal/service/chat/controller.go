package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emobotplus/emobot-client/internal/analysis/emotion"
	"github.com/emobotplus/emobot-client/internal/api"
	chatmodel "github.com/emobotplus/emobot-client/internal/model/chat"
	"github.com/emobotplus/emobot-client/internal/model/persona"
)

// Sender 是会话控制器对网关的最小依赖。
type Sender interface {
	SendChat(ctx context.Context, req api.SendChatRequest) (api.SendChatResponse, error)
}

// Notice 是一条对用户可见的瞬时状态提示（toast），与消息日志分开传递。
type Notice struct {
	Kind    api.Kind
	Message string
}

// Config 固定一个会话的 persona 与模式；两者开场后不可更换。
type Config struct {
	Persona  persona.Persona
	Mode     chatmodel.Mode
	Nickname string
	OnNotice func(Notice)
	Analyzer func(string) emotion.Analysis
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Controller 是会话状态机：持有有序消息日志，驱动发送流程，并保证
// 同一会话任意时刻至多一个在途请求。
type Controller struct {
	mu          sync.Mutex
	client      Sender
	persona     persona.Persona
	mode        chatmodel.Mode
	nickname    string
	onNotice    func(Notice)
	analyzer    func(string) emotion.Analysis
	log         *logrus.Logger
	now         func() time.Time
	sessionID   string
	createdAt   time.Time
	state       chatmodel.State
	messages    []chatmodel.Message
	lastRead    *emotion.Analysis
	recommended persona.Key
}

// NewController constructs a session bound to a persona and mode. The
// not_started → awaiting_first_send transition happens here.
func NewController(client Sender, cfg Config) *Controller {
	if cfg.Analyzer == nil {
		cfg.Analyzer = emotion.Analyze
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.OnNotice == nil {
		cfg.OnNotice = func(Notice) {}
	}
	if cfg.Mode == "" {
		cfg.Mode = chatmodel.ModeText
	}

	return &Controller{
		client:    client,
		persona:   cfg.Persona,
		mode:      cfg.Mode,
		nickname:  cfg.Nickname,
		onNotice:  cfg.OnNotice,
		analyzer:  cfg.Analyzer,
		log:       cfg.Logger,
		now:       cfg.Now,
		sessionID: uuid.NewString(),
		createdAt: cfg.Now(),
		state:     chatmodel.StateAwaitingFirstSend,
		messages:  make([]chatmodel.Message, 0, 16),
	}
}

// Snapshot 导出会话的当前视图，供界面一次性渲染。
func (c *Controller) Snapshot() chatmodel.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]chatmodel.Message, len(c.messages))
	copy(messages, c.messages)
	return chatmodel.Session{
		ID:        c.sessionID,
		Persona:   string(c.persona.Key),
		Mode:      c.mode,
		State:     c.state,
		Messages:  messages,
		CreatedAt: c.createdAt,
	}
}

// State returns the current state machine position.
func (c *Controller) State() chatmodel.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Persona returns the fixed persona of this session.
func (c *Controller) Persona() persona.Persona {
	return c.persona
}

// Messages returns a copy of the ordered message log.
func (c *Controller) Messages() []chatmodel.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]chatmodel.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// LastAnalysis returns the emotion reading of the most recent user turn.
func (c *Controller) LastAnalysis() (emotion.Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRead == nil {
		return emotion.Analysis{}, false
	}
	return *c.lastRead, true
}

// RecommendedPersona returns the persona hint derived from the latest user
// turn, for optional UI highlighting.
func (c *Controller) RecommendedPersona() (persona.Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recommended == "" {
		return "", false
	}
	return c.recommended, true
}

// Start 开场：合成一条助手问候并以 demo 标记上报后端。上报失败不影响
// 开场体验。返回 false 表示会话早已开始。
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != chatmodel.StateAwaitingFirstSend {
		c.mu.Unlock()
		return false
	}

	greeting := chatmodel.Message{
		ID:        uuid.NewString(),
		Sender:    chatmodel.SenderAssistant,
		Content:   c.persona.Greeting(c.nickname),
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, greeting)
	c.state = chatmodel.StateSending
	c.mu.Unlock()

	req := api.SendChatRequest{
		BotType: string(c.persona.Key),
		Mode:    string(c.mode),
		Message: greeting.Content,
		History: []api.ChatTurn{{Role: "assistant", Content: greeting.Content}},
		Demo:    true,
	}

	c.setState(chatmodel.StateAwaitingReply)
	if _, err := c.client.SendChat(ctx, req); err != nil {
		c.log.WithField("session", c.sessionID).WithError(err).Debug("greeting report failed")
	}
	c.setState(chatmodel.StateIdle)
	return true
}

// Send submits one user turn. It returns false without any side effect when
// a send is already outstanding or the text is empty; a first send on a
// fresh session triggers the greeting flow instead. All outcomes, reply or
// scripted fallback, land in the message log — raw errors never do.
func (c *Controller) Send(ctx context.Context, text string) bool {
	c.mu.Lock()
	if !c.state.CanSend() {
		c.mu.Unlock()
		return false
	}
	if c.state == chatmodel.StateAwaitingFirstSend {
		c.mu.Unlock()
		return c.Start(ctx)
	}
	if len([]rune(text)) == 0 || isBlank(text) {
		c.mu.Unlock()
		return false
	}

	userMsg := chatmodel.Message{
		ID:        uuid.NewString(),
		Sender:    chatmodel.SenderUser,
		Content:   text,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, userMsg)

	read := c.analyzer(text)
	c.lastRead = &read
	c.recommended = persona.Recommend(read)

	history := make([]api.ChatTurn, 0, len(c.messages))
	for _, m := range c.messages {
		role := "assistant"
		if m.Sender == chatmodel.SenderUser {
			role = "user"
		}
		history = append(history, api.ChatTurn{Role: role, Content: m.Content})
	}

	c.state = chatmodel.StateSending
	c.mu.Unlock()

	req := api.SendChatRequest{
		BotType: string(c.persona.Key),
		Mode:    string(c.mode),
		Message: text,
		History: history,
		Demo:    false,
	}

	c.setState(chatmodel.StateAwaitingReply)
	resp, err := c.client.SendChat(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && resp.OK && resp.Reply != "" {
		c.messages = append(c.messages, chatmodel.Message{
			ID:          uuid.NewString(),
			Sender:      chatmodel.SenderAssistant,
			Content:     resp.Reply,
			Timestamp:   c.now(),
			Suggestions: resp.SuggestedFollowUp,
		})
		c.state = chatmodel.StateIdle
		return true
	}

	c.appendFallbackLocked(err)
	c.state = chatmodel.StateIdle
	return true
}

// appendFallbackLocked 用剧本化回复顶替失败的回合，并另行发出状态提示。
func (c *Controller) appendFallbackLocked(err error) {
	kind := api.KindUnknown
	if apiErr, ok := api.AsError(err); ok {
		kind = apiErr.Kind
	}

	content := c.persona.FallbackText
	if c.mode == chatmodel.ModeVideo {
		content = c.persona.FallbackVideo
	}

	var notice Notice
	switch {
	case kind == api.KindNetworkUnreachable:
		content = c.persona.FallbackOffline
		notice = Notice{Kind: kind, Message: "連接問題，使用離線模式"}
	case kind == api.KindTimeout || kind == api.KindServerError:
		notice = Notice{Kind: kind, Message: "服務暫時不穩定，稍後會自動恢復"}
	case kind == api.KindClientError && isAuth(err):
		notice = Notice{Kind: kind, Message: "登入已過期，請重新登入"}
	case kind == api.KindValidationError:
		notice = Notice{Kind: kind, Message: err.Error()}
	default:
		notice = Notice{Kind: kind, Message: "暫時無法取得回覆"}
	}

	c.messages = append(c.messages, chatmodel.Message{
		ID:        uuid.NewString(),
		Sender:    chatmodel.SenderAssistant,
		Content:   content,
		Timestamp: c.now(),
	})

	c.log.WithFields(logrus.Fields{
		"session": c.sessionID,
		"kind":    kind,
	}).Warn("chat send degraded to scripted fallback")
	c.onNotice(notice)
}

func (c *Controller) setState(s chatmodel.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func isAuth(err error) bool {
	apiErr, ok := api.AsError(err)
	return ok && apiErr.Auth
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
