package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/smebase/inventory-core/internal/app/errors"
	"github.com/smebase/inventory-core/internal/app/models"
	"github.com/smebase/inventory-core/internal/app/pkg"
	"github.com/smebase/inventory-core/internal/infrastructures"
)

// RequestContextKey is the fiber.Ctx locals key holding *models.RequestContext.
const RequestContextKey = "request_context"

// Claims carried by the access tokens the surrounding auth system issues.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	config *infrastructures.AppConfig
}

func NewAuthMiddleware(config *infrastructures.AppConfig) *AuthMiddleware {
	return &AuthMiddleware{config: config}
}

// Authenticate extracts and verifies the bearer token, then builds the
// request context every service call needs: the principal plus the request
// metadata that audit records denormalize. Missing, malformed or expired
// credentials are all Unauthenticated; role sufficiency is judged later by
// the access policy, never here.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return pkg.ErrorResponse(c, errors.NewUnauthenticatedError())
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	claims, err := m.parseToken(tokenStr)
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewUnauthenticatedError("Invalid or expired token"))
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.Valid() {
		return pkg.ErrorResponse(c, errors.NewUnauthenticatedError("Invalid token claims"))
	}

	rctx := &models.RequestContext{
		RequestID: requestID(c),
		Principal: models.Principal{
			UserID: userID,
			Email:  claims.Email,
			Role:   claims.Role,
		},
		Method:    c.Method(),
		Endpoint:  c.Path(),
		IPAddress: clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	c.Locals(RequestContextKey, rctx)

	return c.Next()
}

func (m *AuthMiddleware) parseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.config.JWT_SECRET), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateToken signs an access token for the given principal. Token
// issuance lives in the surrounding auth system; this exists for tooling and
// tests.
func GenerateToken(secret string, principal models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: principal.UserID.String(),
		Email:  principal.Email,
		Role:   principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   principal.UserID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// RequestContext pulls the authenticated request context out of fiber
// locals. Handlers behind Authenticate can rely on it being present.
func RequestContext(c *fiber.Ctx) *models.RequestContext {
	rctx, _ := c.Locals(RequestContextKey).(*models.RequestContext)
	return rctx
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	if id := c.Get(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

func clientIP(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xrip := c.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	return c.IP()
}
