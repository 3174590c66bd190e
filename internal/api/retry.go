package api

import "time"

// Policy 决定一次失败之后是否继续尝试，以及等待多久。
// 只有可重试的错误类别（网络不可达、超时、服务端错误）才会进入退避。
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy matches the production defaults: three attempts total with a
// delay of attempt × 1s between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Allow reports whether the attempt just finished (1-based) may be followed
// by another one for a failure of the given kind.
func (p Policy) Allow(kind Kind, attempt int) bool {
	if !kind.Retryable() {
		return false
	}
	return attempt < p.MaxAttempts
}

// Delay 返回第 attempt 次失败后的退避时长，随次数线性增长。
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.BaseDelay
}
