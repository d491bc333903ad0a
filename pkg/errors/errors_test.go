package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindLedgerUnavailable, KindNetworkTimeout, KindNetworkError, KindUnknown}
	terminal := []Kind{KindValidation, KindNotFound, KindInsufficientPrivileges, KindVersionConflict}

	for _, k := range retryable {
		assert.True(t, k.Retryable(), "kind %s", k)
	}
	for _, k := range terminal {
		assert.False(t, k.Retryable(), "kind %s", k)
	}
}

func TestNewAssignsIDAndTimestamp(t *testing.T) {
	e := New(KindValidation, "amount must be positive")
	assert.True(t, strings.HasPrefix(e.ID, "err_"), "id %q", e.ID)
	assert.Len(t, e.ID, len("err_")+8)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "validation: amount must be positive", e.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	e := Wrap(cause, KindNetworkError, "network request failed")
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "connection refused")
}

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "i/o deadline reached" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

func TestNormalize(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Normalize(nil))
	})

	t.Run("already normalized errors pass through", func(t *testing.T) {
		orig := New(KindVersionConflict, "stale version")
		assert.Same(t, orig, Normalize(orig))
		assert.Same(t, orig, Normalize(fmt.Errorf("calling ledger: %w", orig)))
	})

	t.Run("deadline exceeded becomes network-timeout", func(t *testing.T) {
		e := Normalize(context.DeadlineExceeded)
		assert.Equal(t, KindNetworkTimeout, e.Kind)
		assert.True(t, e.Kind.Retryable())
	})

	t.Run("net timeout becomes network-timeout", func(t *testing.T) {
		var netErr net.Error = fakeTimeout{}
		e := Normalize(netErr)
		assert.Equal(t, KindNetworkTimeout, e.Kind)
	})

	t.Run("unavailable message becomes ledger-unavailable", func(t *testing.T) {
		e := Normalize(stderrors.New("ledger Service Unavailable"))
		assert.Equal(t, KindLedgerUnavailable, e.Kind)
		assert.Equal(t, "ledger service is unavailable", e.Message)
	})

	t.Run("transport failures become network-error", func(t *testing.T) {
		e := Normalize(&net.OpError{Op: "dial", Err: stderrors.New("refused")})
		assert.Equal(t, KindNetworkError, e.Kind)

		e = Normalize(stderrors.New("read tcp 127.0.0.1: connection reset by peer"))
		assert.Equal(t, KindNetworkError, e.Kind)
	})

	t.Run("anything else becomes unknown with the original message", func(t *testing.T) {
		e := Normalize(stderrors.New("something odd happened"))
		assert.Equal(t, KindUnknown, e.Kind)
		assert.Equal(t, "something odd happened", e.Message)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "missing")))
	assert.Equal(t, KindUnknown, KindOf(stderrors.New("raw")))
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusNotFound, KindNotFound},
		{http.StatusForbidden, KindInsufficientPrivileges},
		{http.StatusUnauthorized, KindInsufficientPrivileges},
		{http.StatusConflict, KindVersionConflict},
		{http.StatusServiceUnavailable, KindLedgerUnavailable},
		{http.StatusInternalServerError, KindUnknown},
	}
	for _, tc := range cases {
		e := FromStatus(tc.status, "some-code", "message")
		assert.Equal(t, tc.kind, e.Kind, "status %d", tc.status)
		assert.Equal(t, "some-code", e.Context["ledger_error"])
	}

	t.Run("code stands in for an empty message", func(t *testing.T) {
		e := FromStatus(http.StatusConflict, "stale-version", "")
		assert.Equal(t, "stale-version", e.Message)
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindInsufficientPrivileges, http.StatusForbidden},
		{KindVersionConflict, http.StatusConflict},
		{KindLedgerUnavailable, http.StatusServiceUnavailable},
		{KindNetworkTimeout, http.StatusGatewayTimeout},
		{KindNetworkError, http.StatusBadGateway},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, ToHTTPStatus(tc.kind), "kind %s", tc.kind)
	}
}

func TestDetails(t *testing.T) {
	e := New(KindUnknown, "boom").WithContext("accountId", "acc-1")
	blob := string(e.Details())
	require.Contains(t, blob, e.ID)
	assert.Contains(t, blob, `"kind":"unknown"`)
	assert.Contains(t, blob, `"accountId":"acc-1"`)
}
