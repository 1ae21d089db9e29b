package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"itinera/globals"
	"itinera/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

func signed(t *testing.T, secret []byte, userID string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Write([]byte("user=" + utils.GetUserIDFromRequest(r)))
}

func TestAuthenticate(t *testing.T) {
	globals.JwtSecret = []byte("test-secret")
	h := Authenticate(echoUser)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "unauthorized"},
		{"malformed", "Token abc", http.StatusUnauthorized, "unauthorized"},
		{"wrong secret", signed(t, []byte("other"), "u1"), http.StatusUnauthorized, "unauthorized"},
		{"valid", signed(t, globals.JwtSecret, "u1"), http.StatusOK, "user=u1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h(rr, req, nil)
			if rr.Code != tc.status || !strings.Contains(rr.Body.String(), tc.body) {
				t.Fatalf("got %d %q", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestOptionalAuthPassesThrough(t *testing.T) {
	globals.JwtSecret = []byte("test-secret")
	h := OptionalAuth(echoUser)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	if rr.Body.String() != "user=" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", signed(t, globals.JwtSecret, "u2"))
	rr = httptest.NewRecorder()
	h(rr, req, nil)
	if rr.Body.String() != "user=u2" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestRecoverAndHeaders(t *testing.T) {
	h := SecurityHeaders(Logging(Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"error":"internal_error"`) {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("security headers missing")
	}
}
