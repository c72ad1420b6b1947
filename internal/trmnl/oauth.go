package trmnl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wychoong/busboard/internal/infrastructure/config"
)

// ErrExchangeFailed is returned when the token endpoint rejects the
// authorization code or is unreachable.
var ErrExchangeFailed = errors.New("trmnl: token exchange failed")

// OAuthClient exchanges hub authorization codes for access tokens.
//
// The exchange is best-effort by design: the install-redirect handler
// logs a failure and redirects regardless, because the hub delivers the
// token again on the install-success webhook.
type OAuthClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewOAuthClient creates an OAuth client from configuration.
func NewOAuthClient(cfg config.TRMNLConfig) *OAuthClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}
	return &OAuthClient{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// Exchange posts the authorization code to the hub's token endpoint and
// returns the issued access token.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - code: Authorization code from the install redirect
//
// Returns:
//   - string: The access token
//   - error: ErrExchangeFailed (wrapped) on any transport or protocol failure
func (c *OAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: http %d", ErrExchangeFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrExchangeFailed, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token in response", ErrExchangeFailed)
	}

	return payload.AccessToken, nil
}
