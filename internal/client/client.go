// Package client provides an HTTP client for the UniNest REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/enrollment"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/review"
	"github.com/uninest/uninest/internal/user"
)

// Client is an HTTP client for the UniNest API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Me returns the caller's user document.
func (c *Client) Me() (*user.User, error) {
	var u user.User
	if err := c.get("/api/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListOptions controls filtering for ListProperties.
type ListOptions struct {
	City          string
	University    string
	Landlord      string // landlord uid
	MaxRent       int64  // 0 = no limit
	AvailableOnly bool
	Limit         int
}

// ListProperties returns properties, optionally filtered.
func (c *Client) ListProperties(opts ListOptions) ([]*property.Property, error) {
	q := url.Values{}
	if opts.City != "" {
		q.Set("city", opts.City)
	}
	if opts.University != "" {
		q.Set("university", opts.University)
	}
	if opts.Landlord != "" {
		q.Set("landlord", opts.Landlord)
	}
	if opts.MaxRent > 0 {
		q.Set("max_rent", strconv.FormatInt(opts.MaxRent, 10))
	}
	if opts.AvailableOnly {
		q.Set("available", "true")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var props []*property.Property
	if err := c.get(withQuery("/api/properties", q), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns a property. Each call counts as a view.
func (c *Client) GetProperty(id string) (*property.Property, error) {
	var p property.Property
	if err := c.get("/api/properties/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListReviews returns the reviews of a property.
func (c *Client) ListReviews(propertyID string) ([]*review.Review, error) {
	var reviews []*review.Review
	if err := c.get("/api/properties/"+url.PathEscape(propertyID)+"/reviews", &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AddReview rates a property.
func (c *Client) AddReview(propertyID string, rating int64, comment string) (*review.Review, error) {
	body := map[string]any{"rating": rating, "comment": comment}
	var r review.Review
	if err := c.post("/api/properties/"+url.PathEscape(propertyID)+"/reviews", body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListInterests returns the caller's sent and received interests.
func (c *Client) ListInterests(status string) ([]*booking.Interest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var interests []*booking.Interest
	if err := c.get(withQuery("/api/interests", q), &interests); err != nil {
		return nil, err
	}
	return interests, nil
}

// CreateInterest applies to a property.
func (c *Client) CreateInterest(propertyID, message, moveInDate string) (*booking.Interest, error) {
	body := map[string]string{"propertyId": propertyID, "message": message, "moveInDate": moveInDate}
	var i booking.Interest
	if err := c.post("/api/interests", body, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// SetInterestStatus moves an interest to status.
func (c *Client) SetInterestStatus(id, status string) (*booking.Interest, error) {
	var i booking.Interest
	if err := c.send(http.MethodPatch, "/api/interests/"+url.PathEscape(id), map[string]string{"status": status}, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// Enroll turns an interest into an enrollment.
func (c *Client) Enroll(interestID string, in enrollment.EnrollInput) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	if err := c.post("/api/interests/"+url.PathEscape(interestID)+"/enroll", in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEnrollments returns the caller's enrollments. active filters by state
// when set.
func (c *Client) ListEnrollments(active *bool) ([]*enrollment.Enrollment, error) {
	q := url.Values{}
	if active != nil {
		q.Set("active", strconv.FormatBool(*active))
	}
	var list []*enrollment.Enrollment
	if err := c.get(withQuery("/api/enrollments", q), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Checkout ends the caller's tenancy.
func (c *Client) Checkout(enrollmentID string) (*enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	if err := c.post("/api/enrollments/"+url.PathEscape(enrollmentID)+"/checkout", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// RequestCLILogin asks the server to email a CLI login link.
func (c *Client) RequestCLILogin(email string) error {
	return c.post("/cli/auth", map[string]string{"email": email}, nil)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result any) error {
	return c.send(http.MethodGet, path, nil, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body, result any) error {
	return c.send(http.MethodPost, path, body, result)
}

// send performs a request with an optional JSON body.
func (c *Client) send(method, path string, body, result any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error   string   `json:"error"`
			Details []string `json:"details"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			for _, d := range errResp.Details {
				apiErr.Message += "; " + d
			}
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
