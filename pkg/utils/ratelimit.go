package utils

import (
	"sync"
	"time"
)

// TokenBucket 进程内令牌桶限流器
// capacity 为突发容量，rate 为每秒补充的令牌数
type TokenBucket struct {
	mu       sync.Mutex
	capacity int64
	rate     int64
	tokens   float64
	lastFill time.Time
}

// NewTokenBucket 创建令牌桶，初始为满桶
func NewTokenBucket(capacity, rate int64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if rate <= 0 {
		rate = 1
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     rate,
		tokens:   float64(capacity),
		lastFill: time.Now(),
	}
}

// fillLocked 按流逝时间补充令牌，调用方需持锁
func (tb *TokenBucket) fillLocked(now time.Time) {
	elapsed := now.Sub(tb.lastFill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * float64(tb.rate)
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}
	tb.lastFill = now
}

// TryTakeN 尝试立即取 n 个令牌，不阻塞
func (tb *TokenBucket) TryTakeN(n int64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.fillLocked(time.Now())
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

// WaitN 等待取 n 个令牌，最多等待 timeout；取到返回 true
// 用轮询而非精确计算醒来时间，限流场景下 10ms 粒度足够
func (tb *TokenBucket) WaitN(n int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if tb.TryTakeN(n) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
