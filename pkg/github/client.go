package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the default GitHub API base URL
	DefaultBaseURL = "https://api.github.com"

	// TokenEnv is the environment variable for the GitHub token
	TokenEnv = "GITHUB_TOKEN"

	// AltTokenEnv is the fallback environment variable (set by the gh CLI
	// and by the original Actions workflows)
	AltTokenEnv = "GH_TOKEN"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the GitHub API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets a custom HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithUserAgent sets the User-Agent header sent with API requests
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client wraps the GitHub API for the operations the sync pipeline consumes.
//
// Authentication is either a static token (PAT or Actions token) or a GitHub
// App installation (see NewAppClient). The underlying go-github client is
// lazy-loaded; a custom base URL can be injected for tests and GHE.
type Client struct {
	token        string
	baseURL      string
	userAgent    string
	httpClient   *http.Client
	timeout      time.Duration
	appTransport *ghinstallation.Transport
	githubClient *github.Client
}

// NewClient creates a new GitHub API client with the given token
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromEnv creates a new client using the token from environment
// variables, checking GITHUB_TOKEN first and GH_TOKEN second.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	token := os.Getenv(TokenEnv)
	if token == "" {
		token = os.Getenv(AltTokenEnv)
	}
	if token == "" {
		return nil, fmt.Errorf("%s or %s environment variable is required", TokenEnv, AltTokenEnv)
	}

	return NewClient(token, opts...), nil
}

// NewAppClient creates a client authenticated as a GitHub App installation.
// The private key is read from keyPath; tokens are minted per request and
// refreshed automatically by the installation transport.
func NewAppClient(appID, installationID int64, keyPath string, opts ...ClientOption) (*Client, error) {
	itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load GitHub App key: %w", err)
	}

	c := NewClient("", opts...)
	c.appTransport = itr
	if c.baseURL != DefaultBaseURL && c.baseURL != "" {
		itr.BaseURL = c.baseURL
	}
	return c, nil
}

// Token returns a token usable as a git HTTP password: the static token, or
// a freshly minted installation token when authenticated as a GitHub App.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.appTransport != nil {
		tok, err := c.appTransport.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to mint installation token: %w", err)
		}
		return tok, nil
	}
	return c.token, nil
}

// SetBaseURL updates the base URL for the GitHub API
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
	// Invalidate cached github client
	c.githubClient = nil
}

// GitHubClient returns the underlying go-github client (lazy-loaded)
func (c *Client) GitHubClient() *github.Client {
	if c.githubClient == nil {
		httpClient := c.httpClient
		if httpClient == nil {
			switch {
			case c.appTransport != nil:
				httpClient = &http.Client{Transport: c.appTransport, Timeout: c.timeout}
			default:
				ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
				httpClient = oauth2.NewClient(context.Background(), ts)
				httpClient.Timeout = c.timeout
			}
		}
		c.githubClient = github.NewClient(httpClient)
		if c.userAgent != "" {
			c.githubClient.UserAgent = c.userAgent
		}

		// Set custom base URL if configured (for tests and GHE)
		if c.baseURL != DefaultBaseURL && c.baseURL != "" {
			baseURL := c.baseURL
			// go-github requires a trailing slash
			if baseURL[len(baseURL)-1] != '/' {
				baseURL += "/"
			}
			if parsedURL, err := url.Parse(baseURL); err == nil {
				c.githubClient.BaseURL = parsedURL
			}
		}
	}
	return c.githubClient
}
