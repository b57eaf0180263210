package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

type CodeExchanger interface {
	Exchange(ctx context.Context, platform domain.Platform, code string) (*domain.Credential, error)
}

type OAuthHandler struct {
	exchanger CodeExchanger
}

func NewOAuthHandler(exchanger CodeExchanger) (*OAuthHandler, error) {
	if exchanger == nil {
		return nil, fmt.Errorf("code exchanger is required")
	}
	return &OAuthHandler{exchanger: exchanger}, nil
}

func RegisterOAuthRoutes(router fiber.Router, exchanger CodeExchanger) error {
	h, err := NewOAuthHandler(exchanger)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/oauth/:platform/callback", h.Callback)

	return nil
}

// Callback completes the authorization-code flow: the platform redirects
// here with ?code=, we exchange it for tokens and store the credential.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatformFromString(c.Params("platform"))
	if err != nil {
		return toHTTPError(err)
	}

	if errParam := strings.TrimSpace(c.Query("error")); errParam != "" {
		return toHTTPError(fmt.Errorf("%w: authorization denied: %s", domain.ErrValidation, errParam))
	}

	code := strings.TrimSpace(c.Query("code"))
	cred, err := h.exchanger.Exchange(c.Context(), platform, code)
	if err != nil {
		return toHTTPError(err)
	}

	resp := fiber.Map{
		"success":  true,
		"platform": platform.String(),
	}
	if cred.ExpiresAt != nil {
		resp["expiresAt"] = cred.ExpiresAt
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
