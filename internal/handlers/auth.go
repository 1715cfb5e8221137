package handlers

import (
	"net/http"
	"time"

	"pcbuilds/internal/i18n"
	"pcbuilds/internal/repository"
	"pcbuilds/templates"

	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, jwtSecret: jwtSecret}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	count, _ := h.userRepo.Count(r.Context())
	if count == 0 {
		http.Redirect(w, r, "/setup", http.StatusSeeOther)
		return
	}
	templates.LoginPage("").Render(r.Context(), w)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.userRepo.GetByUsername(r.Context(), username)
	if err != nil || !h.userRepo.CheckPassword(user, password) {
		w.WriteHeader(http.StatusUnauthorized)
		templates.LoginPage(i18n.T(r.Context(), "auth.invalid_credentials")).Render(r.Context(), w)
		return
	}

	if err := h.setTokenCookie(w, user.ID, user.Username); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) SetupPage(w http.ResponseWriter, r *http.Request) {
	count, _ := h.userRepo.Count(r.Context())
	if count > 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	templates.SetupPage("").Render(r.Context(), w)
}

func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, _ := h.userRepo.Count(ctx)
	if count > 0 {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	var msg string
	switch {
	case username == "" || email == "" || password == "":
		msg = "auth.all_fields_required"
	case password != confirmPassword:
		msg = "auth.passwords_mismatch"
	case len(password) < 6:
		msg = "auth.password_too_short"
	}
	if msg != "" {
		w.WriteHeader(http.StatusBadRequest)
		templates.SetupPage(i18n.T(ctx, msg)).Render(ctx, w)
		return
	}

	if err := h.userRepo.Create(ctx, username, email, password); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		templates.SetupPage(i18n.T(ctx, "auth.create_failed", err.Error())).Render(ctx, w)
		return
	}

	user, err := h.userRepo.GetByUsername(ctx, username)
	if err != nil {
		templates.SetupPage(i18n.T(ctx, "auth.create_failed", err.Error())).Render(ctx, w)
		return
	}

	if err := h.setTokenCookie(w, user.ID, user.Username); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, userID int64, username string) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   86400, // 24 hours
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}
