package api

import (
	"fmt"
	"strings"
)

// Kind 是固定的错误分类。所有对后端的调用失败都会被归入其中一类，
// 上层据此决定重试、提示或要求重新登录。
type Kind string

const (
	KindNetworkUnreachable Kind = "network_unreachable"
	KindTimeout            Kind = "timeout"
	KindClientError        Kind = "client_error"
	KindValidationError    Kind = "validation_error"
	KindServerError        Kind = "server_error"
	KindInvalidInput       Kind = "invalid_input"
	KindUnknown            Kind = "unknown"
)

// Retryable reports whether failures of this kind are worth another attempt.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkUnreachable, KindTimeout, KindServerError:
		return true
	default:
		return false
	}
}

// FieldIssue 表示一条字段级校验错误。
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the failure half of a request outcome. It carries the classified
// kind, an HTTP status when one was received, and field-level validation
// detail when the backend provided it.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Auth    bool
	Issues  []FieldIssue
	Raw     string
}

func (e *Error) Error() string {
	if len(e.Issues) > 0 {
		return joinIssues(e.Issues)
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Retryable mirrors Kind.Retryable for convenience at call sites.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// joinIssues 把字段级错误拼成 "field: message" 的可读形式。
func joinIssues(issues []FieldIssue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Field == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "; ")
}
