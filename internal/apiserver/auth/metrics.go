package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authAttemptsTotal 认证结果计数，outcome 为 success 或拒绝原因
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardshop_auth_attempts_total",
			Help: "Authentication attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// sessionOpsTotal 会话令牌操作计数
	sessionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardshop_session_operations_total",
			Help: "Session token operations (login, extend, revoke, revoke_all)",
		},
		[]string{"operation"},
	)
)

func recordAuth(strategy Strategy, outcome string) {
	authAttemptsTotal.WithLabelValues(strategy.String(), outcome).Inc()
}

func recordSessionOp(op string) {
	sessionOpsTotal.WithLabelValues(op).Inc()
}
