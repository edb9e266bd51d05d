package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatalf("NewClient() err = %v", err)
	}
	return client, srv
}

func TestSignInWithPassword(t *testing.T) {
	access := testToken(t, "user-1", time.Now().Add(time.Hour))

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey header = %q, want anon", r.Header.Get("apikey"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.co" {
			t.Errorf("email = %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]any{"id": "user-1", "email": "a@b.co"},
		})
	}))

	session, err := client.SignInWithPassword(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword() err = %v", err)
	}
	if session.User == nil || session.User.ID != "user-1" {
		t.Fatalf("session user = %+v, want user-1", session.User)
	}
	if session.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be derived from the access token")
	}
}

func TestSignInClassifiesInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))

	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "wrong")
	if !IsInvalidCredentials(err) {
		t.Fatalf("err = %v, want invalid credentials kind", err)
	}
	if err.Error() != "invalid email or password" {
		t.Errorf("message = %q, want user-facing message", err.Error())
	}
}

func TestSignInClassifiesUnconfirmedAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code":"email_not_confirmed","msg":"Email not confirmed"}`))
	}))

	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "pw")
	if !IsUnconfirmedAccount(err) {
		t.Fatalf("err = %v, want unconfirmed account kind", err)
	}
}

func TestSignInClassifiesServerRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"msg":"boom"}`))
	}))

	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "pw")
	if KindOf(err) != KindServerRejected {
		t.Fatalf("kind = %v, want server rejected", KindOf(err))
	}
}

func TestNetworkFailureKind(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := client.SignInWithPassword(context.Background(), "a@b.co", "pw")
	if KindOf(err) != KindNetworkFailure {
		t.Fatalf("kind = %v, want network failure", KindOf(err))
	}
}

func TestSignUpHandlesBothEnvelopes(t *testing.T) {
	bare := `{"id":"user-2","email":"c@d.co"}`
	wrapped := `{"user":{"id":"user-3","email":"e@f.co"},"access_token":"x"}`

	for name, payload := range map[string]string{"bare": bare, "wrapped": wrapped} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/signup" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(payload))
			}))

			user, err := client.SignUp(context.Background(), "x@y.co", "pw", map[string]any{"email_confirmed": true})
			if err != nil {
				t.Fatalf("SignUp() err = %v", err)
			}
			if user.ID == "" {
				t.Fatal("SignUp() returned empty user id")
			}
		})
	}
}

func TestSignOutSendsBearer(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.SignOut(context.Background(), "token-1"); err != nil {
		t.Fatalf("SignOut() err = %v", err)
	}
	if gotAuth != "Bearer token-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestTokenSubject(t *testing.T) {
	token := testToken(t, "user-9", time.Now().Add(time.Hour))
	sub, err := TokenSubject(token)
	if err != nil {
		t.Fatalf("TokenSubject() err = %v", err)
	}
	if sub != "user-9" {
		t.Errorf("subject = %s, want user-9", sub)
	}
}
