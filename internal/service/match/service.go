package match

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/emobotplus/emobot-client/internal/api"
	"github.com/emobotplus/emobot-client/internal/cache"
	"github.com/emobotplus/emobot-client/internal/model/persona"
)

// Backend 是媒合流程对网关的依赖。
type Backend interface {
	RunMatching(ctx context.Context) (api.MatchResponse, error)
	CommitChoice(ctx context.Context, botType string) error
}

// Score 是单个 persona 的适配度，统一到 0–100。
type Score struct {
	Type  persona.Key `json:"type"`
	Value float64     `json:"value"`
}

// Service 执行媒合并缓存最近一次结果，重进页面时避免多余的网络调用。
type Service struct {
	client Backend
	cache  *cache.Store
	log    *logrus.Logger
}

// NewService builds the matching service. cache may be nil.
func NewService(client Backend, store *cache.Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{client: client, cache: store, log: log}
}

// Recommend returns normalized persona scores, best first. Unless refresh is
// set, a cached result from the previous run is reused; the cache is
// best-effort only and never overrides the backend when it is reachable.
func (s *Service) Recommend(ctx context.Context, refresh bool) ([]Score, error) {
	if !refresh && s.cache != nil {
		var cached api.MatchResponse
		if s.cache.Get(cache.KeyMatchRecommend, &cached) {
			if scores := Normalize(cached); len(scores) > 0 {
				return scores, nil
			}
		}
	}

	resp, err := s.client.RunMatching(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(cache.KeyMatchRecommend, resp); err != nil {
			s.log.WithError(err).Debug("match cache write failed")
		}
	}
	return Normalize(resp), nil
}

// Commit 提交最终选择并记住它；提交本身不幂等，失败时不写缓存。
func (s *Service) Commit(ctx context.Context, key persona.Key) error {
	if !persona.Valid(key) {
		return &api.Error{Kind: api.KindInvalidInput, Message: "unknown persona type: " + string(key)}
	}

	if err := s.client.CommitChoice(ctx, string(key)); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Put(cache.KeySelectedBot, key); err != nil {
			s.log.WithError(err).Debug("selected bot cache write failed")
		}
	}
	return nil
}

// Chosen 返回缓存里记住的夥伴类型（若有）。
func (s *Service) Chosen() (persona.Key, bool) {
	if s.cache == nil {
		return "", false
	}
	var key persona.Key
	if !s.cache.Get(cache.KeySelectedBot, &key) || !persona.Valid(key) {
		return "", false
	}
	return key, true
}

// Normalize 把两种响应形状统一成按分数降序的列表。ranked 列表按原分数
// 采用；scores 表按最大值归一化到 0–100。
func Normalize(resp api.MatchResponse) []Score {
	var scores []Score

	if len(resp.Ranked) > 0 {
		for _, item := range resp.Ranked {
			key := persona.Key(item.Type)
			if !persona.Valid(key) {
				continue
			}
			scores = append(scores, Score{Type: key, Value: item.Score})
		}
	} else if len(resp.Scores) > 0 {
		max := 0.0
		for _, v := range resp.Scores {
			if v > max {
				max = v
			}
		}
		if max <= 0 {
			max = 1e-9
		}
		for t, v := range resp.Scores {
			key := persona.Key(t)
			if !persona.Valid(key) {
				continue
			}
			scores = append(scores, Score{Type: key, Value: v / max * 100.0})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Type < scores[j].Type
	})
	return scores
}

// Best 返回最高分的类型。
func Best(scores []Score) (persona.Key, bool) {
	if len(scores) == 0 {
		return "", false
	}
	return scores[0].Type, true
}
