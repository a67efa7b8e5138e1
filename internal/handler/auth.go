package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/johngachihi/parkgate/internal/utils"
)

// AuthHandler exchanges the shared operator key for a short-lived JWT.
// Only the bcrypt hash of the key is ever configured; there is no user
// table behind this, a single operator role administers the tariffs.
type AuthHandler struct {
	jwtSecret       string
	operatorKeyHash string
	accessTTLMin    int
}

func NewAuthHandler(jwtSecret, operatorKeyHash string, accessTTLMin int) *AuthHandler {
	return &AuthHandler{
		jwtSecret:       jwtSecret,
		operatorKeyHash: operatorKeyHash,
		accessTTLMin:    accessTTLMin,
	}
}

type tokenRequest struct {
	OperatorKey string `json:"operator_key"`
}

// Token handles POST /v1/auth/token. A correct operator key yields an
// access token; anything else is a 401.
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.OperatorKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "operator_key is required"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.operatorKeyHash), []byte(req.OperatorKey)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid operator key"})
	}

	tok, err := utils.NewAccessToken(h.jwtSecret, "operator", h.accessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}
