package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ClassifyTransport 把没有拿到响应的失败归类：超时或网络不可达。
// 纯映射，无副作用。
func ClassifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request deadline exceeded"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "request deadline exceeded"}
	}

	return &Error{Kind: KindNetworkUnreachable, Message: err.Error()}
}

// ClassifyResponse 把非 2xx 响应归类，并在可能时提取字段级校验信息。
func ClassifyResponse(status int, body []byte) *Error {
	issues, message := parseErrorBody(body)

	e := &Error{
		Status: status,
		Issues: issues,
		Raw:    string(body),
	}
	if message == "" {
		message = http.StatusText(status)
	}
	e.Message = message

	switch {
	case status == http.StatusUnprocessableEntity || len(issues) > 0:
		e.Kind = KindValidationError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindClientError
		e.Auth = true
	case status >= 400 && status < 500:
		e.Kind = KindClientError
	case status >= 500 && status < 600:
		e.Kind = KindServerError
	default:
		e.Kind = KindUnknown
	}
	return e
}

// AsError unwraps err into the taxonomy type when possible.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody 兼容后端两种错误形状：FastAPI 风格的 detail（字符串或
// 校验问题列表）与简单的 {"error": "..."}。
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type validationIssue struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

func parseErrorBody(body []byte) ([]FieldIssue, string) {
	if len(body) == 0 || !json.Valid(body) {
		return nil, strings.TrimSpace(string(body))
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, ""
	}

	if len(parsed.Detail) > 0 {
		var asString string
		if err := json.Unmarshal(parsed.Detail, &asString); err == nil {
			return nil, asString
		}

		var asList []validationIssue
		if err := json.Unmarshal(parsed.Detail, &asList); err == nil && len(asList) > 0 {
			issues := make([]FieldIssue, 0, len(asList))
			for _, item := range asList {
				issues = append(issues, FieldIssue{Field: joinLoc(item.Loc), Message: item.Msg})
			}
			return issues, joinIssues(issues)
		}
	}

	return nil, parsed.Error
}

// joinLoc 把 ["body","mbti"] 形式的位置拼成 "body.mbti"。
func joinLoc(loc []json.RawMessage) string {
	parts := make([]string, 0, len(loc))
	for _, raw := range loc {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, ".")
}
