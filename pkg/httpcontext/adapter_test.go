package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appLogger "github.com/fastygo/sprintboard/pkg/logger"
)

func TestAttachCarriesRequestAndOwner(t *testing.T) {
	var req fasthttp.RequestCtx
	req.Request.Header.Set("X-Request-ID", "req-1")
	req.Request.Header.Set(HeaderOwnerID, "12")

	ctx, cancel := NewAdapter(time.Second).Attach(&req)
	defer cancel()

	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
	assert.Equal(t, "req-1", string(req.Response.Header.Peek("X-Request-ID")))

	core, logs := observer.New(zap.InfoLevel)
	appLogger.WithRequestID(ctx, zap.New(core)).Info("probe")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, int64(12), fields["owner_id"])
	}
}

func TestAttachGeneratesRequestID(t *testing.T) {
	var req fasthttp.RequestCtx
	_, cancel := NewAdapter(0).Attach(&req)
	defer cancel()

	assert.Len(t, string(req.Response.Header.Peek("X-Request-ID")), 36)
}
