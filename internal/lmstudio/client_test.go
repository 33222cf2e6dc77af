package lmstudio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/v1")
	assert.NoError(t, c.Ready(context.Background()))
}

func TestReady_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/v1")
	assert.ErrorContains(t, c.Ready(context.Background()), "500")
}

func TestReady_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/v1")
	assert.ErrorContains(t, c.Ready(context.Background()), "not reachable")
}

func TestWaitReady_EventuallySucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/v1")
	require.NoError(t, c.WaitReady(context.Background(), 10*time.Second))
	assert.GreaterOrEqual(t, calls, 2)
}

func TestWaitReady_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("http://127.0.0.1:1/v1")
	assert.Error(t, c.WaitReady(ctx, time.Minute))
}

func TestAgentEnv(t *testing.T) {
	env := NewClient("http://localhost:1234/v1/").AgentEnv()

	assert.Equal(t, "http://localhost:1234/v1", env["OPENAI_BASE_URL"])
	assert.Equal(t, "http://localhost:1234/v1", env["OPENAI_API_BASE"])
	assert.NotEmpty(t, env["OPENAI_API_KEY"])
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"banner", "lms - LM Studio CLI - v0.0.47\n", "v0.0.47"},
		{"fallback last line", "something\nv9.9.9\n", "v9.9.9"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVersion(tt.output))
		})
	}
}

func TestParseLoadedModel(t *testing.T) {
	output := `
You have 3 models.

mistralai/devstral-small-2512      24B    mistral3    12.54 GB    ✓ LOADED
qwen/qwen3-8b                      8B     qwen3       4.68 GB
`
	details := ParseLoadedModel(output)

	assert.Equal(t, "24B", details["Parameters"])
	assert.Equal(t, "mistral3", details["Architecture"])
	assert.Equal(t, "12.54 GB", details["Size"])
	assert.Equal(t, "mistralai/devstral-small-2512", details["Full Name"])
}

func TestParseLoadedModel_NoLoadedRow(t *testing.T) {
	assert.Empty(t, ParseLoadedModel("qwen/qwen3-8b    8B    qwen3    4.68 GB\n"))
}
