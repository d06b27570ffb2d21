package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), "user-7", "viewer")
	id, role := ActorFromContext(ctx)
	assert.Equal(t, "user-7", id)
	assert.Equal(t, "viewer", role)
}
