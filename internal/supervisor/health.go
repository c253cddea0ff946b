package supervisor

import "time"

// taskHealth 记录单个循环的连续失败次数，只在该循环自己的 goroutine 中访问
type taskHealth struct {
	failures int
	degraded bool
}

func (h *taskHealth) recordFailure() int {
	h.failures++
	return h.failures
}

// recordSuccess 清零失败计数，之前处于 degraded 时返回 true
func (h *taskHealth) recordSuccess() bool {
	wasDegraded := h.degraded
	h.failures = 0
	h.degraded = false
	return wasDegraded
}

// backoff 第 n 次连续失败后等待 interval * 2^(n-1)，不超过 limit
func (h *taskHealth) backoff(interval, limit time.Duration) time.Duration {
	d := interval
	for i := 1; i < h.failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}
