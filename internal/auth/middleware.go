package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// CookieName is the HTTP-only cookie carrying the session JWT.
const CookieName = "auth_token"

// TokenTTL is how long a login stays valid.
const TokenTTL = 7 * 24 * time.Hour

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub  string `json:"sub"`  // user ID
	Role string `json:"role"` // customer | vendor | admin
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// IssueToken signs a JWT for the given user and role.
func IssueToken(secret, userID, role string) (string, error) {
	claims := &Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseToken validates tokenStr and returns its claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func tokenFrom(c *fiber.Ctx) string {
	if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Cookies(CookieName)
}

/* ============================== Middleware ============================== */

// LoadUser resolves the session cookie (or Bearer token) into the current user.
// Guests pass through untouched; RequireAuth decides whether that is allowed.
func LoadUser(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := tokenFrom(c)
		if tok == "" {
			return c.Next()
		}
		claims, err := ParseToken(secret, tok)
		if err != nil {
			return c.Next()
		}

		var u models.User
		if err := db.WithContext(c.UserContext()).First(&u, "id = ?", claims.Sub).Error; err != nil {
			return c.Next()
		}
		if !u.IsActive {
			return c.Next()
		}

		c.Locals("userID", u.ID.String())
		c.Locals("role", string(u.Role))
		c.Locals("user", &u)
		return c.Next()
	}
}

// RequireAuth rejects guests. Client visits get a 401 (the client redirects to
// login); plain browser loads are redirected directly.
func RequireAuth(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("userID") != nil {
			return c.Next()
		}
		if inertia.IsPageRequest(c) || c.Get(page.HeaderRequestedWith) == page.RequestedWithAJAX {
			return fiber.ErrUnauthorized
		}
		return c.Redirect(loginPath, fiber.StatusFound)
	}
}

// MustUserID reads the authenticated user ID from context or panics (programming error).
func MustUserID(c *fiber.Ctx) string {
	if v := c.Locals("userID"); v != nil {
		return v.(string)
	}
	panic(errors.New("user not in context"))
}

// MustRole reads the authenticated user role from context or panics (programming error).
func MustRole(c *fiber.Ctx) string {
	if v := c.Locals("role"); v != nil {
		return v.(string)
	}
	panic(errors.New("role not in context"))
}

// CurrentUser returns the signed-in user, or nil for guests.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}

// RequireRole ensures the authenticated user has one of the expected roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		have := models.Role(MustRole(c))
		for _, r := range roles {
			if have == r {
				return c.Next()
			}
		}
		return fiber.ErrForbidden
	}
}

/* ============================ Shared props ============================== */

// PublicUser maps a user to the shape exposed in page props.
func PublicUser(u *models.User, avatarURL string) *page.User {
	if u == nil {
		return nil
	}
	return &page.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		VendorStatus: u.VendorStatus,
		AvatarURL:    avatarURL,
	}
}

// ShareUser fills the `auth` prop for every rendered page.
func ShareUser(c *fiber.Ctx, props page.Props) error {
	return props.Set(page.PropAuth, page.Auth{User: PublicUser(CurrentUser(c), "")})
}

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// ErrorHandler returns a global Fiber error handler with a consistent JSON shape.
// Server-side failures are logged; client errors are not.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			if strings.TrimSpace(fe.Message) != "" {
				msg = fe.Message
			}
		}
		if code >= fiber.StatusInternalServerError {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"status": code,
			}).WithError(err).Error("request failed")
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Code:    httpCodeToString(code),
			Error:   true,
			Message: msg,
		})
	}
}
