package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanProducesTraceID(t *testing.T) {
	shutdown, err := Init(context.Background(), "tweetflow-test", "")
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.Empty(t, GetTraceID(context.Background()))

	ctx, span := StartSpan(context.Background(), "unit")
	defer span.End()

	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 32)

	child, childSpan := StartSpan(ctx, "child")
	defer childSpan.End()
	assert.Equal(t, traceID, GetTraceID(child))
}
