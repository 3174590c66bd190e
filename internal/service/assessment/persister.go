package assessment

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emobotplus/emobot-client/internal/api"
	"github.com/emobotplus/emobot-client/internal/model/assessment"
)

// Doer 是持久化所需的网关切面。
type Doer interface {
	Do(ctx context.Context, op api.Operation) (*api.Outcome, error)
}

// Encoder 产出同一逻辑记录的一种候选 wire 编码。后端接受的形状历史上
// 漂移过（字串 → 物件 → 扁平），把每种编码做成独立函数便于单测，也便于
// 形状稳定后直接删掉一个候选。
type Encoder struct {
	Name   string
	Encode func(rec assessment.Record) any
}

// Candidates returns the candidate encodings in preference order.
func Candidates() []Encoder {
	return []Encoder{
		{
			Name: "bare-label",
			Encode: func(rec assessment.Record) any {
				return map[string]any{"mbti": rec.RawLabel}
			},
		},
		{
			Name: "nested-object",
			Encode: func(rec assessment.Record) any {
				return map[string]any{
					"mbti": map[string]any{
						"raw":     rec.RawLabel,
						"encoded": rec.Encoded,
					},
				}
			},
		},
		{
			Name: "flattened-fields",
			Encode: func(rec assessment.Record) any {
				return map[string]any{
					"mbti_raw":     rec.RawLabel,
					"mbti_encoded": rec.Encoded,
					"submitted_at": rec.SubmittedAt.UTC().Format(time.RFC3339),
				}
			},
		},
	}
}

// Persister 依序尝试候选编码，直到后端接受为止。
type Persister struct {
	client   Doer
	encoders []Encoder
	log      *logrus.Logger
}

// NewPersister builds a persister with the default candidate chain.
func NewPersister(client Doer, log *logrus.Logger) *Persister {
	if log == nil {
		log = logrus.New()
	}
	return &Persister{client: client, encoders: Candidates(), log: log}
}

// Persist validates the record locally, then attempts each candidate encoding
// as a single non-retryable call. The first accepted response wins; when all
// candidates are rejected the failure of the last one is returned, since it
// is the most informative.
func (p *Persister) Persist(ctx context.Context, rec assessment.Record) (*api.Outcome, error) {
	if err := rec.Validate(); err != nil {
		return nil, &api.Error{Kind: api.KindInvalidInput, Message: err.Error()}
	}

	var lastErr error
	for _, enc := range p.encoders {
		out, err := p.client.Do(ctx, api.Operation{
			Method:    http.MethodPost,
			Path:      "/api/assessments/upsert",
			Body:      enc.Encode(rec),
			Retryable: false,
		})
		if err == nil {
			return out, nil
		}

		p.log.WithFields(logrus.Fields{
			"encoding": enc.Name,
			"error":    err.Error(),
		}).Debug("assessment candidate rejected")
		lastErr = err
	}
	return nil, lastErr
}
