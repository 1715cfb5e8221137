package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLocalesHaveSameKeys(t *testing.T) {
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	en, it := translations[LangEN], translations[LangIT]
	for k := range en {
		if _, ok := it[k]; !ok {
			t.Errorf("it.json missing %q", k)
		}
	}
	for k := range it {
		if _, ok := en[k]; !ok {
			t.Errorf("en.json missing %q", k)
		}
	}
}

func TestT(t *testing.T) {
	en := WithLocale(context.Background(), LangEN)
	it := WithLocale(context.Background(), LangIT)

	if got := T(en, "nav.parts"); got != "Parts" {
		t.Errorf("T(en) = %q", got)
	}
	if got := T(it, "nav.parts"); got != "Componenti" {
		t.Errorf("T(it) = %q", got)
	}
	if got := T(en, "no.such.key"); got != "no.such.key" {
		t.Errorf("missing key = %q", got)
	}
	if got := T(en, "import.help", 10); got == "import.help" || !strings.Contains(got, "10") {
		t.Errorf("formatted = %q", got)
	}
	if got := T(WithLocale(context.Background(), "fr"), "nav.parts"); got != "Parts" {
		t.Errorf("unsupported locale = %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{name: "default", want: LangEN},
		{name: "accept language", accept: "it-IT,it;q=0.9,en;q=0.8", want: LangIT},
		{name: "cookie wins", cookie: LangEN, accept: "it", want: LangEN},
		{name: "bad cookie", cookie: "xx", accept: "it", want: LangIT},
		{name: "region cookie", cookie: "IT-ch", want: LangIT},
		{name: "weights beat order", accept: "de;q=0.9, en;q=0.3, it-CH;q=0.5", want: LangIT},
		{name: "refused language", accept: "it;q=0, en;q=0.1", want: LangEN},
		{name: "no supported tag", accept: "fr-FR, de", want: DefaultLang},
		{name: "prefix is not a match", accept: "english, italiano", want: DefaultLang},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetLocale(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("locale = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := map[string]string{
		"it":    LangIT,
		"it-IT": LangIT,
		"EN_us": LangEN,
		" en ":  LangEN,
		"":      "",
		"fr":    "",
		"itx":   "",
		"*":     "",
	}
	for tag, want := range tests {
		if got := Match(tag); got != want {
			t.Errorf("Match(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestSetCookie(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "it", want: LangIT},
		{in: "it-IT", want: LangIT},
		{in: "klingon", want: DefaultLang},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		if got := SetCookie(rec, tt.in); got != tt.want {
			t.Errorf("SetCookie(%q) = %q, want %q", tt.in, got, tt.want)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != tt.want || !cookies[0].HttpOnly {
			t.Errorf("SetCookie(%q) cookies = %+v", tt.in, cookies)
		}
	}
}
