package weather

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryErrorMatchesKind(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("wrapped: %w", NewError(Network, "geocode", cause))

	assert.ErrorIs(t, err, Network)
	assert.NotErrorIs(t, err, NotFound)
	assert.ErrorIs(t, err, cause)

	var qe *QueryError
	assert.ErrorAs(t, err, &qe)
	assert.Equal(t, "geocode", qe.Op)
	assert.Equal(t, "geocode: network: dial tcp: connection refused", qe.Error())
	assert.Equal(t, "forecast: malformed_response", NewError(MalformedResponse, "forecast", nil).Error())
}

func TestKindOf(t *testing.T) {
	_, ok := KindOf(nil)
	assert.False(t, ok)

	kind, ok := KindOf(NewError(NotFound, "geocode", nil))
	assert.True(t, ok)
	assert.Equal(t, NotFound, kind)

	kind, _ = KindOf(InvalidInput)
	assert.Equal(t, InvalidInput, kind)

	kind, _ = KindOf(context.DeadlineExceeded)
	assert.Equal(t, Network, kind)
}
