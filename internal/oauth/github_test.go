package oauth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/config"
)

func configStub() config.OAuthConfig {
	return config.OAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost/callback",
	}
}

// roundTripperFunc lets a test intercept outbound provider API calls.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func interceptClient(handler http.HandlerFunc) *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			rec := httptest.NewRecorder()
			handler(rec, r)
			return rec.Result(), nil
		}),
	}
}

func TestGitHubProvider_Name(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{})
	assert.Equal(t, "github", provider.Name())
}

func TestGitHubProvider_GetConsentURL(t *testing.T) {
	provider := NewGitHubProvider(configStub())

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "redirect_uri=http")
	assert.Contains(t, url, "user%3Aemail")
}

func TestGitHubProvider_PrimaryEmail_PrefersPrimaryVerified(t *testing.T) {
	provider := NewGitHubProvider(configStub())
	client := interceptClient(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/user/emails"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"email": "secondary@example.com", "primary": false, "verified": true},
			{"email": "primary@example.com", "primary": true, "verified": true},
			{"email": "unverified@example.com", "primary": false, "verified": false}
		]`))
	})

	email, err := provider.primaryEmail(client)
	require.NoError(t, err)
	assert.Equal(t, "primary@example.com", email)
}

func TestGitHubProvider_PrimaryEmail_FallsBackToVerified(t *testing.T) {
	provider := NewGitHubProvider(configStub())
	client := interceptClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"email": "unverified@example.com", "primary": true, "verified": false},
			{"email": "verified@example.com", "primary": false, "verified": true}
		]`))
	})

	email, err := provider.primaryEmail(client)
	require.NoError(t, err)
	assert.Equal(t, "verified@example.com", email)
}

func TestGitHubProvider_PrimaryEmail_NoEmails(t *testing.T) {
	provider := NewGitHubProvider(configStub())
	client := interceptClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := provider.primaryEmail(client)
	assert.Error(t, err)
}
