package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Operation 描述一次对后端的逻辑调用。Body 为 nil 时，POST/PUT/PATCH
// 会自动补一个空对象 {}，因为后端不接受缺失的请求体。
type Operation struct {
	Method    string
	Path      string
	Body      any
	Header    http.Header
	Retryable bool
}

// Outcome is the success half of a request result: the HTTP status plus the
// normalized body. JSON is set when the response declared a structured
// content type, Text otherwise. Malformed marks a declared-JSON body that
// failed to parse; that is a transport success and is never retried.
type Outcome struct {
	Status    int
	JSON      json.RawMessage
	Text      string
	Malformed bool
}

// Decode unmarshals the structured body into v.
func (o *Outcome) Decode(v any) error {
	if o.Malformed || len(o.JSON) == 0 {
		return fmt.Errorf("no structured body to decode (status %d)", o.Status)
	}
	return json.Unmarshal(o.JSON, v)
}

// Options 配置请求网关。
type Options struct {
	BaseURL string
	Timeout time.Duration
	Policy  Policy
	Logger  *logrus.Logger
}

// Client 是唯一的请求执行入口：统一处理超时、重试退避、鉴权头与
// 响应归一化。它不触碰任何会话或界面状态，那些属于调用方。
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	policy  Policy
	creds   *Credentials
	log     *logrus.Logger
}

// NewClient builds a gateway for the given backend base URL.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	policy := opts.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}

	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		policy:  policy,
		creds:   &Credentials{},
		log:     log,
	}
}

// Credentials exposes the session store so the login flow can write it.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Do executes one logical operation, retrying per policy when the operation
// is marked retryable. The returned error is always a *Error.
func (c *Client) Do(ctx context.Context, op Operation) (*Outcome, error) {
	payload, err := marshalBody(op)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Message: err.Error()}
	}

	url := c.baseURL + op.Path

	var lastErr *Error
	for attempt := 1; ; attempt++ {
		outcome, attemptErr := c.attempt(ctx, op, url, payload)
		if attemptErr == nil {
			return outcome, nil
		}
		lastErr = attemptErr

		if !op.Retryable || !c.policy.Allow(attemptErr.Kind, attempt) {
			break
		}

		delay := c.policy.Delay(attempt)
		c.log.WithFields(logrus.Fields{
			"method":  op.Method,
			"path":    op.Path,
			"attempt": attempt,
			"kind":    attemptErr.Kind,
			"delay":   delay.String(),
		}).Warn("request failed, retrying")

		if err := sleepCtx(ctx, delay); err != nil {
			break
		}
	}

	c.log.WithFields(logrus.Fields{
		"method": op.Method,
		"path":   op.Path,
		"kind":   lastErr.Kind,
		"status": lastErr.Status,
	}).Debug("request gave up")
	return nil, lastErr
}

// attempt 执行单次请求：带硬超时、鉴权头，并按内容类型归一化响应。
func (c *Client) attempt(ctx context.Context, op Operation, url string, payload []byte) (*Outcome, *Error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, url, body)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Message: err.Error()}
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range op.Header {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ClassifyTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ClassifyResponse(resp.StatusCode, raw)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if !json.Valid(raw) {
			return &Outcome{Status: resp.StatusCode, Text: string(raw), Malformed: true}, nil
		}
		return &Outcome{Status: resp.StatusCode, JSON: raw}, nil
	}

	return &Outcome{Status: resp.StatusCode, Text: string(raw)}, nil
}

// marshalBody 序列化请求体；带体方法缺省时补空对象。
func marshalBody(op Operation) ([]byte, error) {
	if op.Body != nil {
		return json.Marshal(op.Body)
	}

	switch op.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return []byte("{}"), nil
	}
	return nil, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
