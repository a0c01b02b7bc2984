// Package directory pulls the user list from the upstream identity provider
// for batch sync. It speaks the provider's Graph-style directory API with a
// client-credentials bearer token.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/subject"
)

// AuthError means no usable access token could be acquired. A batch run
// treats this as fatal: no token, no sync.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to acquire provider access token: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Config holds the provider endpoints and client credentials.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	UsersURL     string
}

// User is one directory entry in the provider's schema.
type User struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
	Department        string `json:"department"`
	JobTitle          string `json:"jobTitle"`
	MobilePhone       string `json:"mobilePhone"`
	EmployeeHireDate  string `json:"employeeHireDate"`
	AccountEnabled    *bool  `json:"accountEnabled"`
}

// Subject converts a directory user into the engine's canonical form. The
// mail attribute wins over userPrincipalName; the job title doubles as the
// employee-type source, mirroring how the directory is populated.
func (u User) Subject() subject.Canonical {
	email := u.Mail
	if email == "" {
		email = u.UserPrincipalName
	}
	return subject.Canonical{
		ExternalID:      u.ID,
		FirstName:       u.GivenName,
		LastName:        u.Surname,
		Email:           subject.NormalizeEmail(email),
		RawDepartment:   u.Department,
		RawEmployeeType: u.JobTitle,
		Mobile:          u.MobilePhone,
		Title:           u.JobTitle,
		HireDate:        u.EmployeeHireDate,
	}
}

// Client fetches directory users. Tokens come from the client-credentials
// grant, acquired fresh per run under the caller's context.
type Client struct {
	cfg        Config
	httpClient *http.Client
	ccCfg      *clientcredentials.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for both the token endpoint
// and directory requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a directory client.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.ccCfg = &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	if cfg.Scope != "" {
		c.ccCfg.Scopes = []string{cfg.Scope}
	}
	return c
}

// ListUsers fetches the full user list, following paging links. Token
// acquisition fails closed with AuthError; cancelling ctx aborts the token
// request as well as the directory requests.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.ccCfg.TokenSource(tokenCtx).Token()
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	var all []User
	next := c.cfg.UsersURL
	for next != "" {
		page, nextLink, err := c.fetchPage(ctx, next, token.AccessToken)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		next = nextLink
	}
	slog.Info("Fetched users from directory", "count", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, url, accessToken string) ([]User, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read directory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("directory request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var page struct {
		Value    []User `json:"value"`
		NextLink string `json:"@odata.nextLink"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("failed to parse directory response: %w", err)
	}
	return page.Value, page.NextLink, nil
}
