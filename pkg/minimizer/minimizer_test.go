package minimizer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/harminx/harminx/pkg/comparator"
	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/httpclient"
	"github.com/harminx/harminx/pkg/ratelimit"
)

func newTestMinimizer(t *testing.T, server *httptest.Server, cfg harconfig.Config) *Minimizer {
	t.Helper()
	limiter := ratelimit.New(nil)
	client := httpclient.New(harconfig.ClientConfig{VerifyTLS: true}, limiter)
	cmp, err := comparator.New(cfg.Comparator)
	require.NoError(t, err)
	_ = server
	return New(client, cmp, cfg, logrus.New())
}

func requestFor(url string, headers []harmodel.Header, body *string, mime string) harmodel.RequestData {
	return harmodel.RequestData{
		Index:    1,
		Method:   http.MethodPost,
		URL:      url,
		Headers:  headers,
		BodyText: body,
		MimeType: mime,
	}
}

func TestProcessDropsUnneededHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 10

	m := newTestMinimizer(t, server, cfg)

	headers := []harmodel.Header{
		{Name: "X-Needless", Value: "1"},
		{Name: "Content-Type", Value: "text/plain"},
	}
	req := requestFor(server.URL, headers, nil, "")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.Len(t, result.Result.Headers, 0)
	require.Equal(t, 2, result.Result.HeaderCandidates)
}

func TestProcessKeepsHeaderServerDependsOn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Required") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 10

	m := newTestMinimizer(t, server, cfg)

	headers := []harmodel.Header{{Name: "X-Required", Value: "yes"}}
	req := requestFor(server.URL, headers, nil, "")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.Equal(t, headers, result.Result.Headers)
}

func TestProcessReducesJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 20

	m := newTestMinimizer(t, server, cfg)

	body := `{"id":1,"noise":"drop me","nested":{"a":1,"b":2}}`
	req := requestFor(server.URL, nil, &body, "application/json")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.NotNil(t, result.Result.BodyText)
	require.Equal(t, "{}", *result.Result.BodyText)
}

func TestProcessKeepsBodyFieldServerChecks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		if !strings.Contains(string(buf), `"required"`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 20

	m := newTestMinimizer(t, server, cfg)

	body := `{"required":"value"}`
	req := requestFor(server.URL, nil, &body, "application/json")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.Equal(t, body, *result.Result.BodyText)
}

func TestProcessRevertsWhenBaselineFails(t *testing.T) {
	cfg := harconfig.Default()
	m := newTestMinimizer(t, nil, cfg)

	headers := []harmodel.Header{{Name: "X-Foo", Value: "bar"}}
	req := requestFor("http://127.0.0.1:0/unreachable", headers, nil, "")

	result := m.Process(t.Context(), req)

	require.False(t, result.Result.Matched)
	require.Equal(t, headers, result.Result.Headers)
	require.Nil(t, result.Result.Response)
}

func TestProcessStripsIgnoredHeaderFromEveryProbe(t *testing.T) {
	seenIgnored := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Secret") != "" {
			seenIgnored = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 10
	cfg.Minimization.Headers.Ignore = []string{"x-secret"}

	m := newTestMinimizer(t, server, cfg)

	headers := []harmodel.Header{
		{Name: "X-Secret", Value: "do-not-send"},
		{Name: "X-Needless", Value: "1"},
	}
	req := requestFor(server.URL, headers, nil, "")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.False(t, seenIgnored, "ignored header must never be sent on any probe")
	for _, h := range result.Result.Headers {
		require.NotEqual(t, "x-secret", strings.ToLower(h.Name))
	}
}

func TestProcessRespectsZeroBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := harconfig.Default()
	cfg.MaxRoundsPerRequest = 0

	m := newTestMinimizer(t, server, cfg)

	headers := []harmodel.Header{{Name: "X-Foo", Value: "bar"}}
	req := requestFor(server.URL, headers, nil, "")

	result := m.Process(t.Context(), req)

	require.True(t, result.Result.Matched)
	require.Equal(t, headers, result.Result.Headers)
}
