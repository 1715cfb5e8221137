package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      int64(7),
		"username": "alice",
		"exp":      exp.Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func protected() (http.Handler, *int64, *string) {
	var id int64
	var name string
	h := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetUserID(r.Context())
		name = GetUsername(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &id, &name
}

func TestRequireAuthCookie(t *testing.T) {
	h, id, name := protected()
	req := httptest.NewRequest(http.MethodGet, "/builds", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed(t, testSecret, time.Now().Add(time.Hour))})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if *id != 7 || *name != "alice" {
		t.Errorf("context user = %d %q", *id, *name)
	}
}

func TestRequireAuthBearer(t *testing.T) {
	h, _, _ := protected()
	req := httptest.NewRequest(http.MethodGet, "/builds", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     map[string]string
		wantStatus int
	}{
		{name: "no token browser", wantStatus: http.StatusSeeOther},
		{name: "no token json", header: map[string]string{"Accept": "application/json"}, wantStatus: http.StatusUnauthorized},
		{name: "no token htmx", header: map[string]string{"HX-Request": "true"}, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", token: signed(t, "other", time.Now().Add(time.Hour)), wantStatus: http.StatusSeeOther},
		{name: "expired", token: signed(t, testSecret, time.Now().Add(-time.Hour)), wantStatus: http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := protected()
			req := httptest.NewRequest(http.MethodGet, "/builds", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
