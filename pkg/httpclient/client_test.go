package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/ratelimit"
)

func TestSendOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "present", r.Header.Get("X-Kept"))
		require.Empty(t, r.Header.Get("X-Removed"))
		w.Header().Set("X-Reply", "ok")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := New(harconfig.ClientConfig{VerifyTLS: true}, ratelimit.New(nil))

	req := harmodel.RequestData{Method: "GET", URL: server.URL}
	headers := []harmodel.Header{{Name: "X-Kept", Value: "present"}}

	snap := client.Send(context.Background(), req, headers, nil)

	require.True(t, snap.OK())
	require.Equal(t, http.StatusTeapot, *snap.StatusCode)
	require.Equal(t, "hello", *snap.Body)
	require.Equal(t, "ok", snap.Headers["X-Reply"])
}

func TestSendTransportFailure(t *testing.T) {
	t.Parallel()

	client := New(harconfig.ClientConfig{VerifyTLS: true}, ratelimit.New(nil))
	req := harmodel.RequestData{Method: "GET", URL: "http://127.0.0.1:0/unreachable"}

	snap := client.Send(context.Background(), req, nil, nil)

	require.False(t, snap.OK())
	require.Nil(t, snap.StatusCode)
	require.NotEmpty(t, snap.Error)
}

func TestSendUsesOverrideBody(t *testing.T) {
	t.Parallel()

	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 128)
		n, _ := r.Body.Read(buf)
		received = string(buf[:n])
	}))
	defer server.Close()

	client := New(harconfig.ClientConfig{VerifyTLS: true}, ratelimit.New(nil))
	original := "original-body"
	req := harmodel.RequestData{Method: "POST", URL: server.URL, BodyText: &original}

	override := "trimmed-body"
	client.Send(context.Background(), req, nil, &override)

	require.Equal(t, "trimmed-body", received)
}
