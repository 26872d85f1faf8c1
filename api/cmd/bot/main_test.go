package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	assert.Zero(t, retryDelayFromError(nil))
	assert.Equal(t, 7*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("too many requests")))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}))
	assert.Equal(t, time.Second, retryDelayFromError(errors.New("bad gateway")))
}

func TestClampDelay(t *testing.T) {
	assert.Equal(t, time.Second, clampDelay(0, time.Second, 15*time.Second))
	assert.Equal(t, 15*time.Second, clampDelay(time.Minute, time.Second, 15*time.Second))
	assert.Equal(t, 3*time.Second, clampDelay(3*time.Second, time.Second, 15*time.Second))
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}

func TestShortHash(t *testing.T) {
	a := shortHash("123:token")
	assert.Len(t, a, 16)
	assert.Equal(t, a, shortHash("123:token"))
	assert.NotEqual(t, a, shortHash("123:other"))
	assert.NotContains(t, a, "token")
	// FNV-1a 64 offset basis for the empty input
	assert.Equal(t, "cbf29ce484222325", shortHash(""))
}
