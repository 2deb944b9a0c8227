package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestClient creates a test client with VCR recording
func setupTestClient(t *testing.T, fixtureName string) (*Client, *Recorder) {
	t.Helper()

	fixturesDir := filepath.Join("testdata", "fixtures")
	if _, err := os.Stat(fixturesDir); os.IsNotExist(err) {
		t.Skipf("fixtures directory not found. To record fixtures, run: MIRRORSYNC_VCR_MODE=record GITHUB_TOKEN=your_token go test ./pkg/github/...")
	}

	rec, err := NewRecorder(t, fixtureName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.Skipf("fixture %q not found. To record it, run: MIRRORSYNC_VCR_MODE=record GITHUB_TOKEN=your_token go test -v ./pkg/github/ -run %s", fixtureName, t.Name())
		}
		t.Fatalf("failed to create recorder: %v", err)
	}

	var token string
	if rec.IsRecording() {
		token = os.Getenv(TokenEnv)
		if token == "" {
			t.Fatal("GITHUB_TOKEN environment variable must be set when recording fixtures")
		}
	} else {
		// Dummy token for replay; it is filtered from recordings anyway
		token = "test-token"
	}

	client := NewClient(token,
		WithTimeout(10*time.Second),
		WithHTTPClient(rec.HTTPClient()),
	)

	return client, rec
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("tok")

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}

	tok, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok != "tok" {
		t.Errorf("Token() = %q, want %q", tok, "tok")
	}
}

func TestGitHubClientBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "default base URL untouched",
			baseURL: "",
			want:    "https://api.github.com/",
		},
		{
			name:    "custom URL without trailing slash",
			baseURL: "http://127.0.0.1:8080/api/v3",
			want:    "http://127.0.0.1:8080/api/v3/",
		},
		{
			name:    "custom URL with trailing slash",
			baseURL: "http://127.0.0.1:8080/api/v3/",
			want:    "http://127.0.0.1:8080/api/v3/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []ClientOption{}
			if tt.baseURL != "" {
				opts = append(opts, WithBaseURL(tt.baseURL))
			}
			client := NewClient("tok", opts...)

			got := client.GitHubClient().BaseURL.String()
			if got != tt.want {
				t.Errorf("BaseURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClientFromEnv(t *testing.T) {
	t.Run("with GITHUB_TOKEN set", func(t *testing.T) {
		t.Setenv(TokenEnv, "test-token-123")
		t.Setenv(AltTokenEnv, "")

		client, err := NewClientFromEnv()
		if err != nil {
			t.Fatalf("NewClientFromEnv() error = %v", err)
		}
		if client.token != "test-token-123" {
			t.Errorf("token = %q, want %q", client.token, "test-token-123")
		}
	})

	t.Run("falls back to GH_TOKEN", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		t.Setenv(AltTokenEnv, "gh-token-456")

		client, err := NewClientFromEnv()
		if err != nil {
			t.Fatalf("NewClientFromEnv() error = %v", err)
		}
		if client.token != "gh-token-456" {
			t.Errorf("token = %q, want %q", client.token, "gh-token-456")
		}
	})

	t.Run("GITHUB_TOKEN wins over GH_TOKEN", func(t *testing.T) {
		t.Setenv(TokenEnv, "primary")
		t.Setenv(AltTokenEnv, "fallback")

		client, err := NewClientFromEnv()
		if err != nil {
			t.Fatalf("NewClientFromEnv() error = %v", err)
		}
		if client.token != "primary" {
			t.Errorf("token = %q, want %q", client.token, "primary")
		}
	})

	t.Run("errors with no token in env", func(t *testing.T) {
		t.Setenv(TokenEnv, "")
		t.Setenv(AltTokenEnv, "")

		if _, err := NewClientFromEnv(); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestNewAppClientMissingKey(t *testing.T) {
	if _, err := NewAppClient(1234, 5678, filepath.Join(t.TempDir(), "no-such-key.pem")); err == nil {
		t.Fatal("expected error for missing key file, got nil")
	}
}

// TestFetchPRInfo exercises the recorded-fixture path end to end
func TestFetchPRInfo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, rec := setupTestClient(t, "fetch_pr_info")
	defer rec.Stop()

	ctx := context.Background()

	prInfo, err := client.FetchPRInfo(ctx, RepoRef{Owner: "mirrorsync", Name: "mirrorsync"}, 1)
	if err != nil {
		t.Fatalf("FetchPRInfo() error = %v", err)
	}

	if prInfo.Number != 1 {
		t.Errorf("Number = %v, want %v", prInfo.Number, 1)
	}
	if prInfo.HeadRef == "" {
		t.Error("HeadRef should not be empty")
	}
	if prInfo.BaseRef == "" {
		t.Error("BaseRef should not be empty")
	}
	if prInfo.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}
