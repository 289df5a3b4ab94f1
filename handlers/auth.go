package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tours-api/middleware"
	"tours-api/models"
	"tours-api/service"
	"tours-api/store"
	"tours-api/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12
const resetTokenTTL = 10 * time.Minute

type AuthHandler struct {
	DB              *store.DB
	Validate        *validator.Validate
	Mailer          *service.Mailer
	Logger          *zap.Logger
	JWTSecret       string
	JWTExpiresIn    time.Duration
	JWTCookieExpiry time.Duration
	SecureCookie    bool
}

type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Photo           string `json:"photo"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordPair struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Signup creates a user account. The role is always "user"; elevated roles
// are assigned through the admin-only user endpoints.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Photo:     req.Photo,
		Role:      models.RoleUser,
		Password:  string(hash),
		CreatedAt: time.Now(),
	}
	id, err := h.DB.Users.InsertOne(r.Context(), user)
	if err != nil {
		return err
	}
	user.ID = id
	return h.sendToken(w, user, http.StatusCreated, "Signup successfully!")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	user, err := h.DB.Users.ByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err == store.ErrNotFound {
		return utils.Unauthorized("Incorrect email or password")
	}
	if err != nil {
		return err
	}
	// A deactivated account fails the same way as a missing one.
	if !user.IsActive() {
		return utils.Unauthorized("Incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return utils.Unauthorized("Incorrect email or password")
	}
	return h.sendToken(w, user, http.StatusOK, "")
}

// Logout overwrites the jwt cookie with a short-lived dummy value.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Path:     "/",
	})
	respond(w, http.StatusOK, Envelope{Status: "success"})
	return nil
}

// ForgotPassword mails a single-use reset token; only its hash is stored.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	user, err := h.DB.Users.ByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err == store.ErrNotFound {
		return utils.NotFound("There is no user with that email address.")
	}
	if err != nil {
		return err
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	if err := h.DB.Users.SetResetToken(r.Context(), user.ID, HashResetToken(rawToken), expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", requestScheme(r), r.Host, rawToken)
	if err := h.Mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		h.Logger.Error("password reset mail", zap.String("email", user.Email), zap.Error(err))
		if clearErr := h.DB.Users.ClearResetToken(r.Context(), user.ID); clearErr != nil {
			h.Logger.Error("clear reset token", zap.Error(clearErr))
		}
		return utils.Internal("There was an error sending the email. Try again later!")
	}

	respond(w, http.StatusOK, Envelope{Status: "success", Message: "Token sent to email!"})
	return nil
}

// ResetPassword consumes the mailed token: it matches only by hash and only
// before expiry, then sets the new password and invalidates the token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	tokenHash := HashResetToken(chi.URLParam(r, "token"))
	user, err := h.DB.Users.ByResetToken(r.Context(), tokenHash, time.Now())
	if err == store.ErrNotFound {
		return utils.BadRequest("Token is invalid or has expired")
	}
	if err != nil {
		return err
	}

	var req passwordPair
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}
	if err := h.DB.Users.UpdatePassword(r.Context(), user.ID, string(hash), time.Now()); err != nil {
		return err
	}
	return h.sendToken(w, user, http.StatusOK, "")
}

// UpdatePassword lets a logged-in user rotate their password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return utils.Unauthorized("You are not logged in! Please log in to get access.")
	}
	var req struct {
		PasswordCurrent string `json:"passwordCurrent" validate:"required"`
		passwordPair
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return utils.BadRequest("Invalid JSON payload")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.PasswordCurrent)); err != nil {
		return utils.Unauthorized("Your current password is wrong.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return err
	}
	if err := h.DB.Users.UpdatePassword(r.Context(), user.ID, string(hash), time.Now()); err != nil {
		return err
	}
	return h.sendToken(w, user, http.StatusOK, "")
}

// sendToken issues a signed token in both the body and the http-only cookie.
func (h *AuthHandler) sendToken(w http.ResponseWriter, user *models.User, code int, message string) error {
	now := time.Now()
	claims := &middleware.Claims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.JWTExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.JWTSecret))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  now.Add(h.JWTCookieExpiry),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		Path:     "/",
	})
	respond(w, code, Envelope{
		Status:  "success",
		Message: message,
		Token:   token,
		Data:    map[string]interface{}{"user": user},
	})
	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashResetToken is the one-way form stored in place of the raw token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
