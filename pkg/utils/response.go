package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// RespondDetail 发送 FastAPI 风格的 {"detail": ...} 错误响应
func RespondDetail(w http.ResponseWriter, status int, detail interface{}) {
	RespondJSON(w, status, map[string]interface{}{"detail": detail})
}

// ValidationIssue 是一条 detail 列表里的字段级校验错误。
type ValidationIssue struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// RespondValidation 以 422 返回字段级校验错误列表
func RespondValidation(w http.ResponseWriter, issues []ValidationIssue) {
	RespondDetail(w, http.StatusUnprocessableEntity, issues)
}
