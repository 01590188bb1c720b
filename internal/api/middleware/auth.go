package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"ahgapi/internal/db"
	"ahgapi/internal/models"
	"ahgapi/internal/utils/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

var log = logger.New("auth_middleware")

type AuthMiddleware struct {
	jwtSecret string
}

type Claims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	ClearanceLevel int    `json:"clearance_level"`
	jwt.RegisteredClaims
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			if err := m.resolveToken(c, token); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalMiddleware resolves the user when a token is present but lets
// anonymous requests through. Public browse endpoints use this so the
// access evaluator can still consider clearances for logged-in readers.
// A bad token degrades to anonymous rather than failing the request.
func (m *AuthMiddleware) OptionalMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := bearerToken(c); err == nil {
				if resolveErr := m.resolveToken(c, token); resolveErr != nil {
					log.Debug("Ignoring invalid token on public endpoint: %v", resolveErr)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
	}
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
	}
	return tokenParts[1], nil
}

// resolveToken validates the token and stores the caller's identity on
// the request context. It never invokes the handler chain.
func (m *AuthMiddleware) resolveToken(c echo.Context, tokenString string) error {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		log.Error("Error parsing JWT token: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
	}

	// Verify the session was issued server-side and not revoked
	session := &models.AuthSession{}
	if err := db.DB.Where("user_id = ? AND token = ?", claims.UserID, tokenString).First(session).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Session not found")
	}

	user := &models.User{}
	if err := db.DB.Where("id = ? AND is_deleted = ?", claims.UserID, false).First(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	c.Set("userID", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", string(user.Role))
	c.Set("clearanceLevel", claims.ClearanceLevel)

	return nil
}

// GetUserID Helper functions to get values from context
func GetUserID(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

func GetUserRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}

func GetClearanceLevel(c echo.Context) int {
	if level, ok := c.Get("clearanceLevel").(int); ok {
		return level
	}
	return 0
}
