package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

// ResetStatus is flashed after every reset request, whether or not the address exists.
const ResetStatus = "If that address is registered, a reset link is on its way."

// ResetTokenTTL is how long a password-reset link stays usable.
const ResetTokenTTL = time.Hour

/* ================================ DTOs ================================= */

// Request body for POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// Request body for POST /forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=120"`
}

/* ============================== Handler ================================= */

type Handler struct {
	db      *gorm.DB
	secret  string
	pages   *inertia.Renderer
	log     *logrus.Logger
	limiter *keyedLimiter
	secure  bool
}

func NewHandler(db *gorm.DB, secret string, pages *inertia.Renderer, log *logrus.Logger, resetPerMinute int, secureCookies bool) *Handler {
	return &Handler{
		db:      db,
		secret:  secret,
		pages:   pages,
		log:     log,
		limiter: newKeyedLimiter(resetPerMinute),
		secure:  secureCookies,
	}
}

// HomeFor is where a user lands after signing in.
func HomeFor(role models.Role) string {
	if role == models.RoleAdmin {
		return "/admin/categories"
	}
	return "/profile"
}

/* ================================ Login ================================= */

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return h.pages.Render(c, "Auth/Login", fiber.Map{"canResetPassword": true})
}

// Login checks credentials, sets the session cookie and sends the user home.
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}

	// Normalize email
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	var u models.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", in.Email).First(&u).Error; err != nil {
		return validation.Fields(c, map[string]string{"email": "These credentials do not match our records."})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return validation.Fields(c, map[string]string{"email": "These credentials do not match our records."})
	}
	if !u.IsActive {
		return validation.Fields(c, map[string]string{"email": "This account has been disabled."})
	}

	token, err := IssueToken(h.secret, u.ID.String(), string(u.Role))
	if err != nil {
		return fiber.ErrInternalServerError
	}
	ck := &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if in.Remember {
		ck.Expires = time.Now().Add(TokenTTL)
	}
	c.Cookie(ck)

	if err := h.pages.Flash(c, flash.KindSuccess, "Welcome back, "+u.Name+"!"); err != nil {
		return err
	}
	return h.pages.Redirect(c, HomeFor(u.Role))
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(CookieName)
	if err := h.pages.Flash(c, flash.KindInfo, "You have been signed out."); err != nil {
		return err
	}
	return h.pages.Redirect(c, "/login")
}

// PruneLimiter forgets reset-rate state for clients idle longer than idle.
func (h *Handler) PruneLimiter(idle time.Duration) { h.limiter.Cleanup(idle) }

/* =========================== Password reset ============================= */

// ForgotPasswordPage renders the reset-request form.
func (h *Handler) ForgotPasswordPage(c *fiber.Ctx) error {
	return h.pages.Render(c, "Auth/ForgotPassword", fiber.Map{})
}

// ForgotPassword issues a reset token when the address exists. The response is
// the same either way so the form cannot be used to probe for accounts.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	if !h.limiter.Allow(c.IP()) {
		return fiber.NewError(fiber.StatusTooManyRequests, "Too many reset requests, try again later")
	}

	var in ForgotPasswordRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	var u models.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", in.Email).First(&u).Error
	switch {
	case err == nil:
		if err := h.issueReset(c, u); err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// same response as the happy path
	default:
		return fiber.ErrInternalServerError
	}

	if err := h.pages.Flash(c, flash.KindInfo, ResetStatus); err != nil {
		return err
	}
	return h.pages.Redirect(c, "/forgot-password")
}

func (h *Handler) issueReset(c *fiber.Ctx, u models.User) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fiber.ErrInternalServerError
	}
	token := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	rec := models.PasswordReset{
		UserID:    u.ID,
		TokenHash: string(hash),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}
	if err := h.db.WithContext(c.UserContext()).Create(&rec).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	// Delivery is handled by the mailer; never log the token itself.
	h.log.WithFields(logrus.Fields{
		"user_id":  u.ID,
		"reset_id": rec.ID,
	}).Info("password reset issued")
	return nil
}

/* ================================ Seed ================================== */

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func EnsureAdmin(db *gorm.DB, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Name:         name,
		IsActive:     true,
	}).Error
}
