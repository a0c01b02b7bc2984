package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RemoteAPIError is any non-2xx response from the ERP. The body is carried
// verbatim so callers can pass the downstream error through.
type RemoteAPIError struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("erp request failed with status %d: %s", e.StatusCode, string(e.Body))
}

// Client issues signed calls against the ERP employee REST resource. It never
// retries internally; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	signer     *Signer
	httpClient *http.Client
	creds      Credentials
	pageSize   int
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (e.g. for custom timeouts).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithBaseURL overrides the account-derived base URL. Tests point this at a
// local server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithSigner overrides the request signer.
func WithSigner(signer *Signer) ClientOption {
	return func(c *Client) { c.signer = signer }
}

// WithPageSize sets the page size used by ListEmployees.
func WithPageSize(n int) ClientOption {
	return func(c *Client) { c.pageSize = n }
}

// NewClient creates an ERP client for one account. The default base URL is
// derived from the account id the way the ERP derives its REST host:
// "9370186_SB1" becomes https://9370186-sb1.suitetalk.api.netsuite.com.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	host := strings.ToLower(strings.ReplaceAll(creds.AccountID, "_", "-"))
	c := &Client{
		baseURL:    fmt.Sprintf("https://%s.suitetalk.api.netsuite.com", host),
		signer:     NewSigner(creds),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
		pageSize:   1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) employeeURL(id string) string {
	url := c.baseURL + "/services/rest/record/v1/employee"
	if id != "" {
		url += "/" + id
	}
	return url
}

// do signs and performs one request. Non-2xx responses become RemoteAPIError.
func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The signature covers the URL without query parameters, matching what
	// the ERP validates for record-service calls.
	signURL := url
	if i := strings.IndexByte(signURL, '?'); i >= 0 {
		signURL = signURL[:i]
	}
	authHeader, err := c.signer.Sign(method, signURL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Return", "representation")
	req.Header.Set("Prefer", "transient")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read erp response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteAPIError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// CreateEmployee creates an employee and returns its internal id. The record
// is created with access enabled, the configured initial password pair, and
// isinactive explicitly false. Roles are included only when the caller set
// them on the payload.
func (c *Client) CreateEmployee(ctx context.Context, payload EmployeePayload) (string, error) {
	payload.GiveAccess = true
	payload.Password = c.creds.DefaultPassword
	payload.Password2 = c.creds.DefaultPassword
	payload.Inactive = Bool(false)

	body, err := c.do(ctx, http.MethodPost, c.employeeURL(""), payload)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	slog.Info("Employee created in ERP", "employeeId", created.ID, "email", payload.Email)
	return created.ID, nil
}

// GetEmployee reads one employee record.
func (c *Client) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	body, err := c.do(ctx, http.MethodGet, c.employeeURL(id), nil)
	if err != nil {
		return nil, err
	}

	var employee Employee
	if err := json.Unmarshal(body, &employee); err != nil {
		return nil, fmt.Errorf("failed to parse employee %s: %w", id, err)
	}
	if employee.ID == "" {
		employee.ID = id
	}
	return &employee, nil
}

// ListEmployees reads the full employee collection, following collection
// paging until hasMore is false. Batch sync calls this exactly once per run,
// before any write, to build its snapshot.
func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var all []Employee
	offset := 0
	for {
		url := fmt.Sprintf("%s?limit=%d&offset=%d", c.employeeURL(""), c.pageSize, offset)
		body, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		var page struct {
			Items   []Employee `json:"items"`
			HasMore bool       `json:"hasMore"`
			Count   int        `json:"count"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse employee list: %w", err)
		}

		all = append(all, page.Items...)
		if !page.HasMore || len(page.Items) == 0 {
			return all, nil
		}
		offset += len(page.Items)
	}
}

// UpdateEmployee patches only the fields set on the payload and returns the
// downstream response body so push-mode callers can pass it through. It never
// sends a full record replace; fields the engine does not manage stay
// untouched.
func (c *Client) UpdateEmployee(ctx context.Context, id string, fields EmployeePayload) ([]byte, error) {
	body, err := c.do(ctx, http.MethodPatch, c.employeeURL(id), fields)
	if err != nil {
		return nil, err
	}
	slog.Info("Employee updated in ERP", "employeeId", id)
	return body, nil
}

// DeactivateEmployee marks the record inactive. This is the only removal
// semantics the bridge supports; there is no hard delete.
func (c *Client) DeactivateEmployee(ctx context.Context, id string) error {
	_, err := c.UpdateEmployee(ctx, id, EmployeePayload{Inactive: Bool(true)})
	if err != nil {
		return err
	}
	slog.Info("Employee deactivated in ERP", "employeeId", id)
	return nil
}
