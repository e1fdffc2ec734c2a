package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// User is the provider-side representation of an identity.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// Client lists identities at the external provider. The bulk sync
// service diffs this listing against the local user table.
type Client interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// HTTPClient talks to the provider's REST API with a secret key.
type HTTPClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// wire shapes for the provider's user listing.
type wireEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type wireUser struct {
	ID                    string      `json:"id"`
	FirstName             string      `json:"first_name"`
	LastName              string      `json:"last_name"`
	ImageURL              string      `json:"image_url"`
	PrimaryEmailAddressID string      `json:"primary_email_address_id"`
	EmailAddresses        []wireEmail `json:"email_addresses"`
}

func (u *wireUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

const listPageSize = 100

// ListUsers pages through the provider's user listing until a short
// page signals the end.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]User, error) {
	var all []User
	offset := 0
	for {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, wu := range page {
			all = append(all, User{
				ID:        wu.ID,
				Email:     wu.primaryEmail(),
				FirstName: wu.FirstName,
				LastName:  wu.LastName,
				ImageURL:  wu.ImageURL,
			})
		}
		if len(page) < listPageSize {
			return all, nil
		}
		offset += listPageSize
	}
}

func (c *HTTPClient) listPage(ctx context.Context, offset int) ([]wireUser, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(listPageSize))
	q.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}

	var page []wireUser
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	return page, nil
}
