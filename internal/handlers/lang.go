package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"pcbuilds/internal/i18n"
)

type LangHandler struct{}

func NewLangHandler() *LangHandler {
	return &LangHandler{}
}

// GET /lang?lang=it - stores the language and returns to the referring page.
func (h *LangHandler) SetLang(w http.ResponseWriter, r *http.Request) {
	i18n.SetCookie(w, r.URL.Query().Get("lang"))
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the Referer path when it points at this host, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	back := url.URL{Path: ref.Path, RawQuery: ref.RawQuery}
	return back.String()
}
