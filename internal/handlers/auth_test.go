package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pcbuilds/internal/database/dbtest"
	"pcbuilds/internal/repository"
)

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestSetupThenLogin(t *testing.T) {
	db := dbtest.Open(t)
	h := NewAuthHandler(repository.NewUserRepository(db), "secret")

	rec := postForm(h.Setup, url.Values{"username": {"admin"}, "email": {"a@b.c"}, "password": {"hunter22"}, "confirm_password": {"nope"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched passwords status = %d, want 400", rec.Code)
	}

	form := url.Values{"username": {"admin"}, "email": {"a@b.c"}, "password": {"hunter22"}, "confirm_password": {"hunter22"}}
	rec = postForm(h.Setup, form)
	if rec.Code != http.StatusSeeOther || tokenCookie(rec) == nil {
		t.Fatalf("setup status = %d, cookie = %v", rec.Code, tokenCookie(rec))
	}

	// A second setup is refused once a user exists.
	rec = postForm(h.Setup, form)
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("second setup redirect = %q, want /login", loc)
	}

	rec = postForm(h.Login, url.Values{"username": {"admin"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized || tokenCookie(rec) != nil {
		t.Errorf("bad login status = %d", rec.Code)
	}

	rec = postForm(h.Login, url.Values{"username": {"admin"}, "password": {"hunter22"}})
	if rec.Code != http.StatusSeeOther || tokenCookie(rec) == nil {
		t.Errorf("login status = %d", rec.Code)
	}
}
