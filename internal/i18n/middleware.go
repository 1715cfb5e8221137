package i18n

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CookieName holds the language chosen through SetCookie.
const CookieName = "lang"

const cookieMaxAge = 365 * 24 * time.Hour

// Match returns the supported language for a tag such as "it-IT" or
// "EN_us", or "" when none applies.
func Match(tag string) string {
	base := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	for _, lang := range Supported {
		if base == lang {
			return lang
		}
	}
	return ""
}

// SetCookie remembers lang for later requests. Unsupported values fall
// back to DefaultLang. It returns the stored language.
func SetCookie(w http.ResponseWriter, lang string) string {
	if lang = Match(lang); lang == "" {
		lang = DefaultLang
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return lang
}

// Middleware picks the request language from the cookie, then from
// Accept-Language, and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(CookieName); err == nil {
			lang = Match(c.Value)
		}
		if lang == "" {
			lang = fromAcceptLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), lang)))
	})
}

type weightedTag struct {
	tag string
	q   float64
}

// fromAcceptLanguage honours q-values; tags with q=0 are refused.
func fromAcceptLanguage(header string) string {
	var tags []weightedTag
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		wt := weightedTag{tag: strings.TrimSpace(fields[0]), q: 1}
		for _, param := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				wt.q = q
			}
		}
		if wt.tag != "" && wt.q > 0 {
			tags = append(tags, wt)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].q > tags[j].q })
	for _, wt := range tags {
		if lang := Match(wt.tag); lang != "" {
			return lang
		}
	}
	return DefaultLang
}
