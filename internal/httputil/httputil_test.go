package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_Permanent(t *testing.T) {
	calls := 0
	perm := errors.New("bad request")
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return perm
	})
	assert.Equal(t, perm, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		return Retryable(errors.New("down"))
	})
	assert.True(t, IsRetryable(err))
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Second, func() error {
		return Retryable(errors.New("down"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	newReq := func() *http.Request {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/x", nil)
		return req
	}

	body, err := Do(srv.Client(), newReq())
	require.NoError(t, err)
	assert.Equal(t, "body", string(body))

	status = http.StatusBadGateway
	_, err = Do(srv.Client(), newReq())
	assert.True(t, IsRetryable(err))

	status = http.StatusNotFound
	_, err = Do(srv.Client(), newReq())
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
}
