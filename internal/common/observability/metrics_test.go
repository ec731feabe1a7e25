package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopObservability(t *testing.T) {
	o := NewNoop()

	ctx, span := o.StartSpan(context.Background(), "quote.persist")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())

	o.RecordStage(ctx, "persist", "success", 15*time.Millisecond)
	o.Shutdown()
}
