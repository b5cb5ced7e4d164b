package http

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadiness_AllUpAndDisabled(t *testing.T) {
	h := newHealthChecker([]depCheck{
		{name: "db", timeout: time.Second, check: func(context.Context) error { return nil }},
		{name: "kafka", timeout: time.Second},
	})
	res, code := h.Readiness(context.Background())
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, "up", res["db"])
	assert.Equal(t, "disabled", res["kafka"])
}

func TestReadiness_DegradedAndCached(t *testing.T) {
	var calls atomic.Int32
	h := newHealthChecker([]depCheck{
		{name: "redis", timeout: time.Second, check: func(context.Context) error {
			calls.Add(1)
			return errors.New("connection refused")
		}},
	})
	res, code := h.Readiness(context.Background())
	assert.Equal(t, 503, code)
	assert.Equal(t, "degraded", res["status"])
	assert.Equal(t, "connection refused", res["redis"])

	_, code = h.Readiness(context.Background())
	assert.Equal(t, 503, code)
	assert.Equal(t, int32(1), calls.Load())

	h.Invalidate()
	h.Readiness(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}
