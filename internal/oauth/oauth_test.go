package oauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateState(t *testing.T) {
	state1, err := GenerateState()
	assert.NoError(t, err)
	assert.NotEmpty(t, state1)

	state2, err := GenerateState()
	assert.NoError(t, err)
	assert.NotEmpty(t, state2)

	// Each call should produce a different state
	assert.NotEqual(t, state1, state2)

	// State should be base64 URL encoded (44 chars for 32 bytes)
	assert.Len(t, state1, 44)
}

func TestRegistry_Lookup(t *testing.T) {
	registry := make(Registry)
	registry["github"] = NewGitHubProvider(configStub())

	p, ok := registry.Lookup("github")
	assert.True(t, ok)
	assert.Equal(t, "github", p.Name())

	_, ok = registry.Lookup("bitbucket")
	assert.False(t, ok)
}

func TestFetchJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "name": "test"}`))
	}))
	defer server.Close()

	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	err := fetchJSON(server.Client(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.ID)
	assert.Equal(t, "test", out.Name)
}

func TestFetchJSON_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var out map[string]any
	err := fetchJSON(server.Client(), server.URL, &out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
