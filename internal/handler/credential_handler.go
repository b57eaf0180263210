package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tnrbusiness/outreach/internal/credential"
	"github.com/tnrbusiness/outreach/internal/domain"
)

type CredentialStore interface {
	Set(ctx context.Context, cred *domain.Credential) error
	Delete(ctx context.Context, platform domain.Platform) error
	List(ctx context.Context) ([]domain.Credential, error)
	Test(ctx context.Context, platform domain.Platform) (*credential.TestReport, error)
}

type CredentialHandler struct {
	store CredentialStore
}

func NewCredentialHandler(store CredentialStore) (*CredentialHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	return &CredentialHandler{store: store}, nil
}

func RegisterCredentialRoutes(router fiber.Router, store CredentialStore) error {
	h, err := NewCredentialHandler(store)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/credentials", h.ListCredentials)
	v1.Post("/credentials/:platform", h.SetCredential)
	v1.Delete("/credentials/:platform", h.DeleteCredential)
	v1.Post("/credentials/:platform/test", h.TestCredential)

	return nil
}

type setCredentialRequest struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	ExpiresAt    *string           `json:"expiresAt,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// credentialResponse never carries token material. Connected state and
// expiry are all a caller needs to drive a settings screen.
type credentialResponse struct {
	Platform  string     `json:"platform"`
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

func (h *CredentialHandler) ListCredentials(c *fiber.Ctx) error {
	creds, err := h.store.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]credentialResponse, 0, len(creds))
	for _, cred := range creds {
		data = append(data, credentialResponse{
			Platform:  cred.Platform.String(),
			Connected: true,
			ExpiresAt: cred.ExpiresAt,
			UpdatedAt: cred.UpdatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func (h *CredentialHandler) SetCredential(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatformFromString(c.Params("platform"))
	if err != nil {
		return toHTTPError(err)
	}

	var req setCredentialRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cred := &domain.Credential{
		Platform:     platform,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Metadata:     req.Metadata,
	}

	if req.ExpiresAt != nil && strings.TrimSpace(*req.ExpiresAt) != "" {
		expiresAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ExpiresAt))
		if err != nil {
			return toHTTPError(fmt.Errorf("%w: expiresAt must be RFC3339", domain.ErrValidation))
		}
		cred.ExpiresAt = &expiresAt
	}

	if err := h.store.Set(c.Context(), cred); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"platform": platform.String(),
	})
}

func (h *CredentialHandler) DeleteCredential(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatformFromString(c.Params("platform"))
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.store.Delete(c.Context(), platform); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"platform": platform.String(),
	})
}

func (h *CredentialHandler) TestCredential(c *fiber.Ctx) error {
	platform, err := domain.ParsePlatformFromString(c.Params("platform"))
	if err != nil {
		return toHTTPError(err)
	}

	report, err := h.store.Test(c.Context(), platform)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"platform": report.Platform.String(),
		"valid":    report.Valid,
		"reason":   report.Reason,
	})
}
