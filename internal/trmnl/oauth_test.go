package trmnl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wychoong/busboard/internal/infrastructure/config"
)

func testOAuthClient(t *testing.T, handler http.HandlerFunc) *OAuthClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOAuthClient(config.TRMNLConfig{
		TokenURL:     srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2,
	})
}

func TestOAuthClient_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("posts form and returns access token", func(t *testing.T) {
		var gotForm map[string]string
		client := testOAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parsing form: %v", err)
			}
			gotForm = map[string]string{
				"code":       r.PostFormValue("code"),
				"client_id":  r.PostFormValue("client_id"),
				"grant_type": r.PostFormValue("grant_type"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "tok-123"}`))
		})

		token, err := client.Exchange(ctx, "auth-code")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if token != "tok-123" {
			t.Errorf("token = %q, want %q", token, "tok-123")
		}
		if gotForm["code"] != "auth-code" {
			t.Errorf("form code = %q, want %q", gotForm["code"], "auth-code")
		}
		if gotForm["client_id"] != "client-id" {
			t.Errorf("form client_id = %q, want %q", gotForm["client_id"], "client-id")
		}
		if gotForm["grant_type"] != "authorization_code" {
			t.Errorf("form grant_type = %q, want %q", gotForm["grant_type"], "authorization_code")
		}
	})

	t.Run("non-2xx returns ErrExchangeFailed", func(t *testing.T) {
		client := testOAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.Exchange(ctx, "bad-code")
		if !errors.Is(err, ErrExchangeFailed) {
			t.Errorf("Exchange() error = %v, want ErrExchangeFailed", err)
		}
	})

	t.Run("empty token returns ErrExchangeFailed", func(t *testing.T) {
		client := testOAuthClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		})

		_, err := client.Exchange(ctx, "auth-code")
		if !errors.Is(err, ErrExchangeFailed) {
			t.Errorf("Exchange() error = %v, want ErrExchangeFailed", err)
		}
	})

	t.Run("unreachable endpoint returns ErrExchangeFailed", func(t *testing.T) {
		client := NewOAuthClient(config.TRMNLConfig{
			TokenURL: "http://127.0.0.1:1",
			Timeout:  1,
		})

		_, err := client.Exchange(ctx, "auth-code")
		if !errors.Is(err, ErrExchangeFailed) {
			t.Errorf("Exchange() error = %v, want ErrExchangeFailed", err)
		}
	})
}
