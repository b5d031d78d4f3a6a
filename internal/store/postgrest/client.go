// Package postgrest implements store.Store over a PostgREST query interface,
// the REST surface of the hosted backend.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tillpoint/internal/models"
	"tillpoint/internal/store"
)

// Relation names.
const (
	relUsers    = "users"
	relBusiness = "business_info"
	relBranches = "branches"
)

// Client talks to /rest/v1/<relation> with an API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ store.Store = (*Client)(nil)

// NewClient creates a new PostgREST client. A nil httpClient gets one with
// timeout applied.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// apiError is the error body PostgREST returns.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// quote wraps a filter value in double quotes so reserved characters
// (commas, parentheses, dots) survive inside or=() expressions.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func idFilter(id uint) string {
	return "eq." + strconv.FormatUint(uint64(id), 10)
}

// do sends one request and decodes a 2xx JSON body into out. It returns the
// response headers for callers that read Content-Range.
func (c *Client) do(ctx context.Context, method, relation string, query url.Values, body interface{}, prefer string, out interface{}) (http.Header, error) {
	endpoint := c.baseURL + "/rest/v1/" + relation
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s body: %w", relation, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, relation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusConflict || apiErr.Code == "23505" {
			return nil, fmt.Errorf("%s %s: %s: %w", method, relation, apiErr.Message, store.ErrDuplicate)
		}
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, relation, resp.StatusCode, apiErr.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", relation, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", idFilter(id))

	var users []models.User
	if _, err := c.do(ctx, http.MethodGet, relUsers, q, nil, "", &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return &users[0], nil
}

func (c *Client) FindActiveUsersByIdentifier(ctx context.Context, identifier string) ([]models.User, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("active", "eq.true")
	q.Set("or", fmt.Sprintf("(email.eq.%s,username.eq.%s)", quote(strings.ToLower(identifier)), quote(identifier)))
	q.Set("order", "user_id.asc")

	var users []models.User
	if _, err := c.do(ctx, http.MethodGet, relUsers, q, nil, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	q := url.Values{}
	q.Set("select", "user_id")
	q.Set("email", "eq."+strings.ToLower(email))
	q.Set("limit", "1")

	var rows []struct {
		UserID uint `json:"user_id"`
	}
	if _, err := c.do(ctx, http.MethodGet, relUsers, q, nil, "", &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (c *Client) ListActiveUsersByBusiness(ctx context.Context, businessID uint) ([]models.User, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("business_id", idFilter(businessID))
	q.Set("active", "eq.true")
	q.Set("order", "user_id.asc")

	var users []models.User
	if _, err := c.do(ctx, http.MethodGet, relUsers, q, nil, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListPendingApprovals(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("active", "eq.true")
	q.Set("private_preview", "eq.false")
	q.Set("role", "in.(owner,admin,Owner,Admin)")
	q.Set("order", "user_id.asc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var users []models.User
	header, err := c.do(ctx, http.MethodGet, relUsers, q, nil, "count=exact", &users)
	if err != nil {
		return nil, 0, err
	}
	return users, totalFromContentRange(header.Get("Content-Range"), len(users)), nil
}

// totalFromContentRange reads the total from "0-9/42". A missing or "*" total
// falls back to the page length.
func totalFromContentRange(v string, fallback int) int64 {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return int64(fallback)
	}
	total, err := strconv.ParseInt(v[i+1:], 10, 64)
	if err != nil {
		return int64(fallback)
	}
	return total
}

// insertRow encodes v and strips the generated key and timestamps so the
// database assigns them.
func insertRow(v interface{}, pk string) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	row := map[string]interface{}{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	delete(row, pk)
	delete(row, "created_at")
	delete(row, "updated_at")
	return row, nil
}

func (c *Client) insert(ctx context.Context, relation, pk string, in, out interface{}) error {
	row, err := insertRow(in, pk)
	if err != nil {
		return fmt.Errorf("encoding %s row: %w", relation, err)
	}

	raw := json.RawMessage{}
	if _, err := c.do(ctx, http.MethodPost, relation, nil, row, "return=representation", &raw); err != nil {
		return err
	}

	// PostgREST answers with an array of the inserted rows.
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil || len(rows) == 0 {
		return fmt.Errorf("decoding %s insert response: empty representation", relation)
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return fmt.Errorf("decoding %s insert response: %w", relation, err)
	}
	return nil
}

func (c *Client) CreateBusiness(ctx context.Context, business *models.Business) error {
	return c.insert(ctx, relBusiness, "business_id", business, business)
}

func (c *Client) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return c.insert(ctx, relBranches, "branch_id", branch, branch)
}

func (c *Client) CreateUser(ctx context.Context, user *models.User) error {
	return c.insert(ctx, relUsers, "user_id", user, user)
}

func (c *Client) updateUser(ctx context.Context, userID uint, fields map[string]interface{}) error {
	q := url.Values{}
	q.Set("user_id", idFilter(userID))
	q.Set("select", "user_id")

	var rows []struct {
		UserID uint `json:"user_id"`
	}
	if _, err := c.do(ctx, http.MethodPatch, relUsers, q, fields, "return=representation", &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Client) UpdatePasswordHash(ctx context.Context, userID uint, hash string) error {
	return c.updateUser(ctx, userID, map[string]interface{}{"password_hash": hash})
}

func (c *Client) UpdatePINHash(ctx context.Context, userID uint, hash string) error {
	return c.updateUser(ctx, userID, map[string]interface{}{"pin_hash": hash, "pin": nil})
}

func (c *Client) TouchLastUsed(ctx context.Context, userID uint, at time.Time) error {
	return c.updateUser(ctx, userID, map[string]interface{}{"last_used": at.UTC().Format(time.RFC3339Nano)})
}

func (c *Client) SetPrivatePreview(ctx context.Context, userID uint, approved bool) error {
	return c.updateUser(ctx, userID, map[string]interface{}{"private_preview": approved})
}

func (c *Client) SetActive(ctx context.Context, userID uint, active bool) error {
	return c.updateUser(ctx, userID, map[string]interface{}{"active": active})
}
