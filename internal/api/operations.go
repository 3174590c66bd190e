package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// JoinResult 是登录成功后的凭证与身份。
type JoinResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Join authenticates with a participant id and nickname. On success the
// returned token is installed into the credential store, so every later call
// carries it automatically.
func (c *Client) Join(ctx context.Context, pid, nickname string) (JoinResult, error) {
	out, err := c.Do(ctx, Operation{
		Method:    http.MethodPost,
		Path:      "/api/auth/join",
		Body:      map[string]string{"pid": pid, "nickname": nickname},
		Retryable: true,
	})
	if err != nil {
		return JoinResult{}, err
	}

	var res JoinResult
	if err := out.Decode(&res); err != nil {
		return JoinResult{}, &Error{Kind: KindUnknown, Message: err.Error(), Status: out.Status}
	}

	if res.Token != "" {
		c.creds.Set(res.Token, res.User)
	}
	return res, nil
}

// MBTISnapshot 是后端记录的最新测验结果。
type MBTISnapshot struct {
	Raw     string `json:"raw"`
	Encoded []int  `json:"encoded,omitempty"`
}

// AssessmentSnapshot wraps the assessment fields the dashboard reads.
type AssessmentSnapshot struct {
	MBTI *MBTISnapshot `json:"mbti,omitempty"`
}

// RecommendationSnapshot 是后端记录的最近一次媒合与选择。
type RecommendationSnapshot struct {
	SelectedBot string `json:"selected_bot,omitempty"`
}

// Profile 聚合用户资料页需要的数据。
type Profile struct {
	User                 User                    `json:"user"`
	LatestAssessment     *AssessmentSnapshot     `json:"latest_assessment,omitempty"`
	LatestRecommendation *RecommendationSnapshot `json:"latest_recommendation,omitempty"`
}

// Me fetches the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	out, err := c.Do(ctx, Operation{
		Method:    http.MethodGet,
		Path:      "/api/user/profile",
		Retryable: true,
	})
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := out.Decode(&profile); err != nil {
		return Profile{}, &Error{Kind: KindUnknown, Message: err.Error(), Status: out.Status}
	}
	return profile, nil
}

// RankedBot 是媒合结果中的一项。
type RankedBot struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// MatchResponse 兼容后端两种媒合响应形状：ranked 列表或 scores 表。
type MatchResponse struct {
	Ranked []RankedBot        `json:"ranked,omitempty"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

// RunMatching asks the backend to score every persona for the current user.
func (c *Client) RunMatching(ctx context.Context) (MatchResponse, error) {
	out, err := c.Do(ctx, Operation{
		Method:    http.MethodPost,
		Path:      "/api/match/recommend",
		Retryable: true,
	})
	if err != nil {
		return MatchResponse{}, err
	}

	var resp MatchResponse
	if err := out.Decode(&resp); err != nil {
		return MatchResponse{}, &Error{Kind: KindUnknown, Message: err.Error(), Status: out.Status}
	}
	return resp, nil
}

// CommitChoice 提交最终选择的 AI 夥伴。该操作不幂等，绝不重试。
func (c *Client) CommitChoice(ctx context.Context, botType string) error {
	_, err := c.Do(ctx, Operation{
		Method:    http.MethodPost,
		Path:      "/api/match/choose",
		Body:      map[string]string{"bot_type": botType},
		Retryable: false,
	})
	return err
}

// ChatTurn 是发给后端的历史条目。
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SendChatRequest 是一次聊天回合的请求。
type SendChatRequest struct {
	BotType string     `json:"bot_type"`
	Mode    string     `json:"mode"`
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
	Demo    bool       `json:"demo"`
	Context string     `json:"context,omitempty"`
}

// SendChatResponse 是一次聊天回合的响应。
type SendChatResponse struct {
	OK                bool            `json:"ok"`
	Reply             string          `json:"reply"`
	EmotionalAnalysis json.RawMessage `json:"emotional_analysis,omitempty"`
	SuggestedFollowUp []string        `json:"suggested_follow_up,omitempty"`
}

// SendChat 发送一个聊天回合。除 Bearer Token 外还附带 X-User-Id，
// 便于后端按数字 id 归档会话记录。
func (c *Client) SendChat(ctx context.Context, req SendChatRequest) (SendChatResponse, error) {
	header := http.Header{}
	header.Set("X-User-Id", strconv.FormatInt(c.creds.User().ID, 10))

	out, err := c.Do(ctx, Operation{
		Method:    http.MethodPost,
		Path:      "/api/chat/send",
		Body:      req,
		Header:    header,
		Retryable: true,
	})
	if err != nil {
		return SendChatResponse{}, err
	}

	var resp SendChatResponse
	if err := out.Decode(&resp); err != nil {
		return SendChatResponse{}, &Error{Kind: KindUnknown, Message: err.Error(), Status: out.Status}
	}
	return resp, nil
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Do(ctx, Operation{
		Method:    http.MethodGet,
		Path:      "/api/health",
		Retryable: true,
	})
	return err
}
