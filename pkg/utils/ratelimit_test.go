package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_Burst(t *testing.T) {
	// 容量 5，每秒补充 1 个令牌
	tb := NewTokenBucket(5, 1)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.TryTakeN(1), "token %d should be available", i)
	}
	// 桶已空
	assert.False(t, tb.TryTakeN(1))
}

func TestTokenBucket_Refill(t *testing.T) {
	tb := NewTokenBucket(2, 100)

	assert.True(t, tb.TryTakeN(2))
	assert.False(t, tb.TryTakeN(1))

	// 100 QPS 下 50ms 足够补充至少 1 个令牌
	time.Sleep(50 * time.Millisecond)
	assert.True(t, tb.TryTakeN(1))
}

func TestTokenBucket_WaitN(t *testing.T) {
	tb := NewTokenBucket(1, 50)

	assert.True(t, tb.TryTakeN(1))

	// 等待窗口内能拿到新令牌
	assert.True(t, tb.WaitN(1, 200*time.Millisecond))

	// 清空后，0 等待时长直接失败
	for tb.TryTakeN(1) {
	}
	assert.False(t, tb.WaitN(1, 0))
}
