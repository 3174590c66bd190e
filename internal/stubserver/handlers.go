package stubserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/emobotplus/emobot-client/internal/analysis/emotion"
	"github.com/emobotplus/emobot-client/internal/api"
	"github.com/emobotplus/emobot-client/internal/model/assessment"
	"github.com/emobotplus/emobot-client/internal/model/persona"
	"github.com/emobotplus/emobot-client/pkg/utils"
)

// handleJoin 注册或登录：签发 uuid token。
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PID      string `json:"pid"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var issues []utils.ValidationIssue
	if payload.PID == "" {
		issues = append(issues, utils.ValidationIssue{Loc: []string{"body", "pid"}, Msg: "field required"})
	}
	if payload.Nickname == "" {
		issues = append(issues, utils.ValidationIssue{Loc: []string{"body", "nickname"}, Msg: "field required"})
	}
	if len(issues) > 0 {
		utils.RespondValidation(w, issues)
		return
	}

	s.mu.Lock()
	s.nextID++
	record := &userRecord{User: api.User{ID: s.nextID, PID: payload.PID, Nickname: payload.Nickname}}
	token := uuid.NewString()
	s.users[token] = record
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  record.User,
	})
}

// handleProfile 返回用户资料与最近的测验/媒合记录。
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	record := recordFrom(r)

	s.mu.Lock()
	resp := map[string]any{"user": record.User}
	if record.Assessment != nil {
		resp["latest_assessment"] = map[string]any{"mbti": record.Assessment}
	}
	if record.SelectedBot != "" {
		resp["latest_recommendation"] = map[string]any{"selected_bot": record.SelectedBot}
	}
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleUpsert 保存测验结果。有意模仿线上后端的形状漂移：裸字串的
// mbti 会被 422 拒绝，嵌套对象与扁平字段两种编码都接受。
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	record := recordFrom(r)

	var payload struct {
		MBTI        json.RawMessage `json:"mbti"`
		MBTIRaw     string          `json:"mbti_raw"`
		MBTIEncoded []int           `json:"mbti_encoded"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var snapshot *api.MBTISnapshot

	switch {
	case len(payload.MBTI) > 0:
		var bare string
		if err := json.Unmarshal(payload.MBTI, &bare); err == nil {
			utils.RespondValidation(w, []utils.ValidationIssue{
				{Loc: []string{"body", "mbti"}, Msg: "value is not a valid dict"},
			})
			return
		}

		var nested api.MBTISnapshot
		if err := json.Unmarshal(payload.MBTI, &nested); err != nil || nested.Raw == "" {
			utils.RespondValidation(w, []utils.ValidationIssue{
				{Loc: []string{"body", "mbti", "raw"}, Msg: "field required"},
			})
			return
		}
		snapshot = &nested

	case payload.MBTIRaw != "":
		snapshot = &api.MBTISnapshot{Raw: payload.MBTIRaw, Encoded: payload.MBTIEncoded}

	default:
		utils.RespondValidation(w, []utils.ValidationIssue{
			{Loc: []string{"body", "mbti"}, Msg: "field required"},
		})
		return
	}

	if len(snapshot.Encoded) != 0 && len(snapshot.Encoded) != assessment.VectorLength {
		utils.RespondValidation(w, []utils.ValidationIssue{
			{Loc: []string{"body", "mbti", "encoded"}, Msg: "expected 4 elements"},
		})
		return
	}

	s.mu.Lock()
	record.Assessment = snapshot
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleRecommend 根据已存的编码向量给每个 persona 打分。没有测验
// 记录时退回 scores 表形状，让客户端的两条解析路径都被走到。
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	record := recordFrom(r)

	s.mu.Lock()
	snapshot := record.Assessment
	s.mu.Unlock()

	if snapshot == nil || len(snapshot.Encoded) != assessment.VectorLength {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"scores": map[string]float64{
				"empathy":   0.70,
				"insight":   0.62,
				"solution":  0.84,
				"cognitive": 0.55,
			},
		})
		return
	}

	v := snapshot.Encoded
	scores := map[persona.Key]float64{
		persona.KeyEmpathy:   55,
		persona.KeyInsight:   52,
		persona.KeySolution:  58,
		persona.KeyCognitive: 50,
	}
	if v[2] == 0 { // F 倾向
		scores[persona.KeyEmpathy] += 15
	} else {
		scores[persona.KeySolution] += 12
	}
	if v[1] == 1 { // N 倾向
		scores[persona.KeyInsight] += 14
	} else {
		scores[persona.KeySolution] += 5
	}
	if v[3] == 0 { // J 倾向
		scores[persona.KeyCognitive] += 13
	}
	if v[0] == 1 { // E 倾向
		scores[persona.KeyEmpathy] += 4
	} else {
		scores[persona.KeyInsight] += 6
	}

	ranked := make([]api.RankedBot, 0, len(scores))
	for key, score := range scores {
		ranked = append(ranked, api.RankedBot{Type: string(key), Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Type < ranked[j].Type
	})

	utils.RespondJSON(w, http.StatusOK, map[string]any{"ranked": ranked})
}

// handleChoose 记录最终选择。
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	record := recordFrom(r)

	var payload struct {
		BotType string `json:"bot_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !persona.Valid(persona.Key(payload.BotType)) {
		utils.RespondValidation(w, []utils.ValidationIssue{
			{Loc: []string{"body", "bot_type"}, Msg: "unknown bot type"},
		})
		return
	}

	s.mu.Lock()
	record.SelectedBot = payload.BotType
	record.User.SelectedBot = payload.BotType
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// scriptedReplies 按 persona 轮播的剧本回复。
var scriptedReplies = map[persona.Key][]string{
	persona.KeyEmpathy: {
		"謝謝你願意說出來。這聽起來真的不容易，我在這裡陪著你。",
		"你的感受是重要的。想多說一點當時的心情嗎？",
	},
	persona.KeyInsight: {
		"聽起來這件事背後還有別的線索。你覺得它和最近的什麼有關？",
		"如果把剛剛的感覺取一個名字，你會叫它什麼？",
	},
	persona.KeySolution: {
		"我們可以把它拆成幾個小步驟。你覺得今天能先做到哪一步？",
		"先從最小的改變開始。今晚有沒有一件五分鐘內能完成的事？",
	},
	persona.KeyCognitive: {
		"我們來檢查一下這個想法：它有什麼證據支持？有什麼證據反對？",
		"如果你的朋友有同樣的想法，你會怎麼對他說？",
	},
}

var suggestedFollowUps = map[persona.Key][]string{
	persona.KeyEmpathy:   {"我想多聊聊這個感覺", "今天發生了一件事"},
	persona.KeyInsight:   {"幫我整理一下思緒", "我想談談最近的模式"},
	persona.KeySolution:  {"給我一個可以做的小目標", "幫我排個優先順序"},
	persona.KeyCognitive: {"幫我檢查這個想法", "我想練習替代想法"},
}

// handleSend 返回剧本化回复，并附带情绪分析与建议追问。
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BotType string         `json:"bot_type"`
		Mode    string         `json:"mode"`
		Message string         `json:"message"`
		History []api.ChatTurn `json:"history"`
		Demo    bool           `json:"demo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := persona.Key(payload.BotType)
	if !persona.Valid(key) {
		key = persona.KeySolution
	}

	if payload.Demo {
		// 开场回合只做记录。
		utils.RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "reply": ""})
		return
	}

	if payload.Message == "" {
		utils.RespondValidation(w, []utils.ValidationIssue{
			{Loc: []string{"body", "message"}, Msg: "field required"},
		})
		return
	}

	lines := scriptedReplies[key]
	reply := lines[len(payload.History)%len(lines)]

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"ok":                  true,
		"reply":               reply,
		"emotional_analysis":  emotion.Analyze(payload.Message),
		"suggested_follow_up": suggestedFollowUps[key],
	})
}

// handleHealth 健康检查。
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}
