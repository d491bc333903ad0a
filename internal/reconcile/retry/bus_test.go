package retry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

func TestDispatchRoutesByActionKind(t *testing.T) {
	bus := NewBus()
	var got Request
	bus.Register(models.ActionWaiveFee, func(_ context.Context, req Request) error {
		got = req
		return nil
	})

	req := Request{
		ID:        "fa_abc",
		Type:      models.ActionWaiveFee,
		AccountID: "acc-1",
		Params:    json.RawMessage(`{"amount":25}`),
	}
	require.NoError(t, bus.Dispatch(context.Background(), req))
	assert.Equal(t, req, got)
}

func TestDispatchWithoutHandler(t *testing.T) {
	bus := NewBus()
	err := bus.Dispatch(context.Background(), Request{Type: models.ActionWaiveFee})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("resubmit failed")
	bus.Register(models.ActionWaiveFee, func(context.Context, Request) error { return boom })

	err := bus.Dispatch(context.Background(), Request{Type: models.ActionWaiveFee})
	assert.ErrorIs(t, err, boom)
}

func TestRegisterReplacesHandler(t *testing.T) {
	bus := NewBus()
	bus.Register(models.ActionWaiveFee, func(context.Context, Request) error {
		return errors.New("old handler")
	})
	bus.Register(models.ActionWaiveFee, func(context.Context, Request) error { return nil })

	assert.NoError(t, bus.Dispatch(context.Background(), Request{Type: models.ActionWaiveFee}))
}
