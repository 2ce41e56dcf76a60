// Package oauth exchanges Google authorization codes for profile data.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

var (
	ErrMissingCode  = errors.New("missing authorization code")
	ErrProfileFetch = errors.New("profile request failed")
)

// UserInfo is the part of the provider profile the login flow needs.
type UserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Timeout      time.Duration
}

type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
	timeout     time.Duration
	tracer      trace.Tracer
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		timeout:     cfg.Timeout,
		tracer:      otel.Tracer("aquatrack/server/oauth"),
	}
}

// AuthURL is where the browser is sent to consent.
func (p *GoogleProvider) AuthURL() string {
	return p.conf.AuthCodeURL("")
}

// Exchange trades code for an access token and fetches the profile with it.
// Each provider call is bounded by the configured timeout.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx, span := p.tracer.Start(ctx, "google.Exchange")
	defer span.End()

	tok, err := p.exchangeToken(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token exchange failed")
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	info, err := p.fetchProfile(ctx, tok)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("oauth.subject", info.ID))
	return info, nil
}

// bounded applies the provider timeout; zero means no limit.
func (p *GoogleProvider) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *GoogleProvider) exchangeToken(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()
	return p.conf.Exchange(ctx, code)
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, tok *oauth2.Token) (*UserInfo, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetch, resp.StatusCode)
	}

	// v2 userinfo answers with "id", the OpenID endpoint with "sub".
	var payload struct {
		ID      string `json:"id"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	info := &UserInfo{
		ID:      firstNonEmpty(payload.ID, payload.Sub),
		Email:   payload.Email,
		Name:    firstNonEmpty(payload.Name, payload.Email),
		Picture: payload.Picture,
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrProfileFetch)
	}
	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
