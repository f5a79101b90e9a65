package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_SignsBody(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	event := &Event{Type: EventSnapshotReplaced, Timestamp: 1700000000, Data: map[string]string{"news_title": "x"}}
	require.NoError(t, Deliver(context.Background(), srv.URL, "s3cret", event))

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventSnapshotReplaced, decoded["type"])
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, Deliver(context.Background(), srv.URL, "", &Event{Type: EventSnapshotReplaced}))
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventSnapshotReplaced})
	assert.ErrorContains(t, err, "status 502")
}

func TestDeliverAsync_RetriesUntilSuccess(t *testing.T) {
	saved := retryDelays
	retryDelays = []time.Duration{0, time.Millisecond, time.Millisecond}
	defer func() { retryDelays = saved }()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	select {
	case <-DeliverAsync(srv.URL, "", &Event{Type: EventSnapshotReplaced}):
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestSign_KnownVector(t *testing.T) {
	// echo -n 'hello' | openssl dgst -sha256 -hmac key
	assert.Equal(t,
		"sha256=9307b3b915efb5171ff14d8cb55fbcc798c6c0ef1456d66ded1a6aa723a58b7b",
		Sign("key", []byte("hello")),
	)
}
