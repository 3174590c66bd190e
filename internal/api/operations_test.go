package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinInstallsCredentials(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/join", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "P001", payload["pid"])
		assert.Equal(t, "小明", payload["nickname"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-abc",
			"user":  User{ID: 42, PID: "P001", Nickname: "小明"},
		})
	}))

	res, err := client.Join(context.Background(), "P001", "小明")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", res.Token)
	assert.Equal(t, int64(42), res.User.ID)

	// 登录成功后凭证立即可用于后续调用。
	assert.Equal(t, "tok-abc", client.Credentials().Token())
	assert.Equal(t, "小明", client.Credentials().User().Nickname)
}

func TestJoinThenMeCarriesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/join", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-e2e",
			"user":  User{ID: 1, PID: "P002", Nickname: "阿豪"},
		})
	})
	mux.HandleFunc("/api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-e2e" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Profile{User: User{ID: 1, PID: "P002", Nickname: "阿豪"}})
	})
	client, _ := testClient(t, mux)

	_, err := client.Join(context.Background(), "P002", "阿豪")
	require.NoError(t, err)

	profile, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "阿豪", profile.User.Nickname)
}

func TestCommitChoiceRunsExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "solution", payload["bot_type"])
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.CommitChoice(context.Background(), "solution")
	require.Error(t, err)
	// 选择提交不幂等，服务端错误也不触发第二次。
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunMatchingDecodesBothShapes(t *testing.T) {
	t.Run("ranked", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"ranked": []RankedBot{{Type: "empathy", Score: 74}, {Type: "solution", Score: 63}},
			})
		}))

		resp, err := client.RunMatching(context.Background())
		require.NoError(t, err)
		require.Len(t, resp.Ranked, 2)
		assert.Equal(t, "empathy", resp.Ranked[0].Type)
		assert.Empty(t, resp.Scores)
	})

	t.Run("scores", func(t *testing.T) {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"scores": map[string]float64{"empathy": 0.7, "solution": 0.84},
			})
		}))

		resp, err := client.RunMatching(context.Background())
		require.NoError(t, err)
		assert.Empty(t, resp.Ranked)
		assert.Equal(t, 0.84, resp.Scores["solution"])
	})
}

func TestSendChatCarriesUserIDHeader(t *testing.T) {
	var gotHeader string
	var gotReq SendChatRequest
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-User-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SendChatResponse{OK: true, Reply: "我在聽。", SuggestedFollowUp: []string{"多說一點"}})
	}))

	client.Credentials().Set("tok", User{ID: 99, Nickname: "小美"})

	resp, err := client.SendChat(context.Background(), SendChatRequest{
		BotType: "empathy",
		Mode:    "text",
		Message: "今天有點累",
		History: []ChatTurn{{Role: "user", Content: "今天有點累"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "99", gotHeader)
	assert.Equal(t, "empathy", gotReq.BotType)
	assert.Equal(t, "今天有點累", gotReq.Message)
	assert.True(t, resp.OK)
	assert.Equal(t, "我在聽。", resp.Reply)
	assert.Equal(t, []string{"多說一點"}, resp.SuggestedFollowUp)
}

func TestHealth(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))

	require.NoError(t, client.Health(context.Background()))
}
