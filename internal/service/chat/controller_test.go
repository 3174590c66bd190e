package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emobotplus/emobot-client/internal/api"
	chatmodel "github.com/emobotplus/emobot-client/internal/model/chat"
	"github.com/emobotplus/emobot-client/internal/model/persona"
)

// fakeSender 按脚本应答，可选地在放行前阻塞，用来制造在途请求窗口。
type fakeSender struct {
	mu      sync.Mutex
	calls   []api.SendChatRequest
	resp    api.SendChatResponse
	err     error
	release chan struct{}
}

func (f *fakeSender) SendChat(ctx context.Context, req api.SendChatRequest) (api.SendChatResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPersona() persona.Persona {
	store := persona.NewMemoryStore(persona.Seed())
	p, _ := store.FindByKey(persona.KeyEmpathy)
	return p
}

func startedController(t *testing.T, sender Sender, cfg Config) *Controller {
	t.Helper()
	if cfg.Persona.Key == "" {
		cfg.Persona = testPersona()
	}
	c := NewController(sender, cfg)
	require.True(t, c.Start(context.Background()))
	return c
}

func TestNewControllerState(t *testing.T) {
	c := NewController(&fakeSender{}, Config{Persona: testPersona()})
	assert.Equal(t, chatmodel.StateAwaitingFirstSend, c.State())
	assert.Empty(t, c.Messages())
}

func TestStartAppendsGreetingAndReportsDemo(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true}}
	c := startedController(t, sender, Config{Nickname: "Amy"})

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, chatmodel.SenderAssistant, messages[0].Sender)
	assert.Equal(t, "嗨 Amy，我是 Lumi。今天想從哪裡開始呢？", messages[0].Content)

	require.Equal(t, 1, sender.callCount())
	assert.True(t, sender.calls[0].Demo)
	assert.Equal(t, "empathy", sender.calls[0].BotType)
	assert.Equal(t, chatmodel.StateIdle, c.State())
}

func TestStartTwiceIsNoop(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true}}
	c := startedController(t, sender, Config{})

	assert.False(t, c.Start(context.Background()))
	assert.Equal(t, 1, sender.callCount())
	assert.Len(t, c.Messages(), 1)
}

func TestStartSurvivesReportFailure(t *testing.T) {
	sender := &fakeSender{err: &api.Error{Kind: api.KindNetworkUnreachable}}
	c := startedController(t, sender, Config{})

	// 上报失败不产生回退消息，开场白照常入日志。
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, chatmodel.StateIdle, c.State())
}

func TestSendOnFreshSessionTriggersGreeting(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true}}
	c := NewController(sender, Config{Persona: testPersona(), Nickname: "Amy"})

	require.True(t, c.Send(context.Background(), "你好"))

	messages := c.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, chatmodel.SenderAssistant, messages[0].Sender)
	require.Equal(t, 1, sender.callCount())
	assert.True(t, sender.calls[0].Demo)
}

func TestSendAppendsUserAndAssistantMessages(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{
		OK:                true,
		Reply:             "我在聽，慢慢說。",
		SuggestedFollowUp: []string{"多說一點", "今天發生了什麼"},
	}}
	c := startedController(t, sender, Config{})

	require.True(t, c.Send(context.Background(), "今天有點難過"))

	messages := c.Messages()
	require.Len(t, messages, 3) // 开场白 + 用户 + 助手
	assert.Equal(t, chatmodel.SenderUser, messages[1].Sender)
	assert.Equal(t, "今天有點難過", messages[1].Content)
	assert.Equal(t, chatmodel.SenderAssistant, messages[2].Sender)
	assert.Equal(t, "我在聽，慢慢說。", messages[2].Content)
	assert.Equal(t, []string{"多說一點", "今天發生了什麼"}, messages[2].Suggestions)
	assert.Equal(t, chatmodel.StateIdle, c.State())

	// 历史包含用户这一条，角色映射正确。
	req := sender.calls[1]
	assert.False(t, req.Demo)
	require.NotEmpty(t, req.History)
	last := req.History[len(req.History)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "今天有點難過", last.Content)
}

func TestSendBlankIsNoop(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true}}
	c := startedController(t, sender, Config{})

	for _, text := range []string{"", "   ", "\n\t "} {
		assert.False(t, c.Send(context.Background(), text))
	}
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 1, sender.callCount())
}

func TestSendWhileBusyIsIgnored(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true, Reply: "好的"}}
	c := startedController(t, sender, Config{})
	sender.release = make(chan struct{})

	done := make(chan bool)
	go func() {
		done <- c.Send(context.Background(), "第一句")
	}()

	// 等第一条进入在途窗口。
	require.Eventually(t, func() bool {
		return c.State() == chatmodel.StateSending || c.State() == chatmodel.StateAwaitingReply
	}, time.Second, time.Millisecond)

	before := len(c.Messages())
	assert.False(t, c.Send(context.Background(), "第二句"), "busy send must be refused")
	assert.Len(t, c.Messages(), before, "refused send leaves the log untouched")

	close(sender.release)
	assert.True(t, <-done)

	// 只有第一句触发了网络调用（外加开场上报）。
	assert.Equal(t, 2, sender.callCount())
}

func TestSendFailureAppendsFallbackAndNotice(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantContent func(p persona.Persona) string
		wantMessage string
	}{
		{
			"network failure uses offline script",
			&api.Error{Kind: api.KindNetworkUnreachable, Message: "connection refused"},
			func(p persona.Persona) string { return p.FallbackOffline },
			"連接問題，使用離線模式",
		},
		{
			"timeout keeps persona text",
			&api.Error{Kind: api.KindTimeout},
			func(p persona.Persona) string { return p.FallbackText },
			"服務暫時不穩定，稍後會自動恢復",
		},
		{
			"server error keeps persona text",
			&api.Error{Kind: api.KindServerError, Status: 502},
			func(p persona.Persona) string { return p.FallbackText },
			"服務暫時不穩定，稍後會自動恢復",
		},
		{
			"auth failure asks to re-login",
			&api.Error{Kind: api.KindClientError, Status: 401, Auth: true},
			func(p persona.Persona) string { return p.FallbackText },
			"登入已過期，請重新登入",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notices []Notice
			sender := &fakeSender{err: tt.err}
			p := testPersona()
			c := NewController(sender, Config{
				Persona:  p,
				OnNotice: func(n Notice) { notices = append(notices, n) },
			})
			// 跳过开场，直接进入可发送状态。
			sender.err = nil
			sender.resp = api.SendChatResponse{OK: true}
			require.True(t, c.Start(context.Background()))
			sender.err = tt.err

			require.True(t, c.Send(context.Background(), "在嗎"))

			messages := c.Messages()
			last := messages[len(messages)-1]
			assert.Equal(t, chatmodel.SenderAssistant, last.Sender)
			assert.Equal(t, tt.wantContent(p), last.Content)

			require.Len(t, notices, 1)
			assert.Equal(t, tt.wantMessage, notices[0].Message)
			assert.Equal(t, chatmodel.StateIdle, c.State(), "session recovers after fallback")
		})
	}
}

func TestSendVideoModeFallback(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true}}
	p := testPersona()
	c := NewController(sender, Config{Persona: p, Mode: chatmodel.ModeVideo})
	require.True(t, c.Start(context.Background()))

	sender.err = &api.Error{Kind: api.KindTimeout}
	require.True(t, c.Send(context.Background(), "在嗎"))

	messages := c.Messages()
	assert.Equal(t, p.FallbackVideo, messages[len(messages)-1].Content)
	assert.Equal(t, "video", sender.calls[1].Mode)
}

func TestSendEmptyReplyFallsBack(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true, Reply: ""}}
	p := testPersona()
	c := startedController(t, sender, Config{})

	require.True(t, c.Send(context.Background(), "在嗎"))
	messages := c.Messages()
	assert.Equal(t, p.FallbackText, messages[len(messages)-1].Content)
}

func TestSnapshot(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true, Reply: "好的"}}
	c := startedController(t, sender, Config{})
	require.True(t, c.Send(context.Background(), "你好"))

	snap := c.Snapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "empathy", snap.Persona)
	assert.Equal(t, chatmodel.ModeText, snap.Mode)
	assert.Equal(t, chatmodel.StateIdle, snap.State)
	assert.Len(t, snap.Messages, 3)
	assert.False(t, snap.CreatedAt.IsZero())

	// 快照是拷贝，改它不影响控制器内部日志。
	snap.Messages[0].Content = "tampered"
	assert.NotEqual(t, "tampered", c.Messages()[0].Content)
}

func TestSendUpdatesAnalysisAndRecommendation(t *testing.T) {
	sender := &fakeSender{resp: api.SendChatResponse{OK: true, Reply: "我在"}}
	c := startedController(t, sender, Config{})

	_, ok := c.LastAnalysis()
	assert.False(t, ok)

	require.True(t, c.Send(context.Background(), "我覺得非常孤單又焦慮"))

	analysis, ok := c.LastAnalysis()
	require.True(t, ok)
	assert.True(t, analysis.NeedsSupport)

	key, ok := c.RecommendedPersona()
	require.True(t, ok)
	assert.Equal(t, persona.KeyInsight, key)
}
