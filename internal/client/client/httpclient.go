package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/models"
	"github.com/dmitrijs2005/aquatrack/internal/common"
)

// HTTPClient talks to the aquatrack REST API. The access token travels as a
// bearer header, the refresh token as the refresh cookie; both are read from
// and written back to the TokenStore.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

func NewHTTPClient(baseURL string, timeout time.Duration, store TokenStore) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

type sessionResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		Email string `json:"email"`
	} `json:"user"`
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, in any, t models.Tokens) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.Access != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+t.Access)
	}
	if t.Refresh != "" {
		req.AddCookie(&http.Cookie{Name: common.RefreshTokenCookieName, Value: t.Refresh})
	}
	return req, nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, in any, t models.Tokens) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, in, t)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// decode reads a 2xx body into out or turns the answer into an error.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: msg.Message}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func refreshCookie(resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == common.RefreshTokenCookieName {
			return ck.Value
		}
	}
	return ""
}

// authorized performs a request on behalf of the stored session. A 401 makes
// it rotate the pair once and repeat the request with the new access token.
// withCookie also sends the refresh cookie, which logout needs.
func (c *HTTPClient) authorized(ctx context.Context, method, path string, in, out any, withCookie bool) error {
	t, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if t.Access == "" {
		return ErrNotLoggedIn
	}

	creds := func(t models.Tokens) models.Tokens {
		if withCookie {
			return models.Tokens{Access: t.Access, Refresh: t.Refresh}
		}
		return models.Tokens{Access: t.Access}
	}

	resp, err := c.send(ctx, method, path, in, creds(t))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusUnauthorized || t.Refresh == "" {
		return decode(resp, out)
	}
	resp.Body.Close()

	t, err = c.refresh(ctx, t)
	if err != nil {
		return err
	}

	resp, err = c.send(ctx, method, path, in, creds(t))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *HTTPClient) refresh(ctx context.Context, t models.Tokens) (models.Tokens, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/auth/refresh", nil, models.Tokens{Refresh: t.Refresh})
	if err != nil {
		return t, err
	}

	rotated := refreshCookie(resp)
	var s sessionResponse
	if err := decode(resp, &s); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.store.Clear(ctx)
			return t, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return t, err
	}

	t.Access = s.AccessToken
	if rotated != "" {
		t.Refresh = rotated
	}
	if err := c.store.Save(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

func (c *HTTPClient) Register(ctx context.Context, email string, password []byte) error {
	in := map[string]string{"email": email, "password": string(password)}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/register", in, models.Tokens{})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) error {
	in := map[string]string{"email": email, "password": string(password)}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/login", in, models.Tokens{})
	if err != nil {
		return err
	}

	rotated := refreshCookie(resp)
	var s sessionResponse
	if err := decode(resp, &s); err != nil {
		return err
	}

	return c.store.Save(ctx, models.Tokens{Access: s.AccessToken, Refresh: rotated, Email: s.User.Email})
}

// Logout ends the session on the server and forgets it locally. The local
// session is dropped even when the server refuses the call.
func (c *HTTPClient) Logout(ctx context.Context) error {
	remoteErr := c.authorized(ctx, http.MethodPost, "/api/auth/logout", nil, nil, true)
	if errors.Is(remoteErr, ErrNotLoggedIn) {
		return remoteErr
	}

	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	if errors.Is(remoteErr, ErrUnauthorized) {
		return nil
	}
	return remoteErr
}

func (c *HTTPClient) Current(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.authorized(ctx, http.MethodGet, "/api/users/current", nil, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) AddWater(ctx context.Context, date time.Time, amount int) (*models.WaterEntry, error) {
	in := map[string]any{"date": date.UTC().Format(time.RFC3339), "amount": amount}
	var e models.WaterEntry
	if err := c.authorized(ctx, http.MethodPost, "/api/water", in, &e, false); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) Day(ctx context.Context, day string) (*models.DaySummary, error) {
	path := "/api/water/day"
	if day != "" {
		path += "?" + url.Values{"date": {day}}.Encode()
	}
	var s models.DaySummary
	if err := c.authorized(ctx, http.MethodGet, path, nil, &s, false); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Month(ctx context.Context, month string) (*models.MonthSummary, error) {
	path := "/api/water/month"
	if month != "" {
		path += "?" + url.Values{"month": {month}}.Encode()
	}
	var s models.MonthSummary
	if err := c.authorized(ctx, http.MethodGet, path, nil, &s, false); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/healthz", nil, models.Tokens{})
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

type avatarUploadResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadURL"`
}

// AvatarUpload asks for a presigned PUT URL and the object key it targets.
func (c *HTTPClient) AvatarUpload(ctx context.Context) (string, string, error) {
	var r avatarUploadResponse
	if err := c.authorized(ctx, http.MethodPost, "/api/users/avatar", nil, &r, false); err != nil {
		return "", "", err
	}
	return r.Key, r.UploadURL, nil
}

func (c *HTTPClient) ConfirmAvatar(ctx context.Context, key string) (string, error) {
	var r struct {
		AvatarURL string `json:"avatarURL"`
	}
	if err := c.authorized(ctx, http.MethodPatch, "/api/users/avatar", map[string]string{"key": key}, &r, false); err != nil {
		return "", err
	}
	return r.AvatarURL, nil
}
