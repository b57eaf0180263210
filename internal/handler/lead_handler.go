package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
)

// EventEmitter raises fire-and-forget notification events.
type EventEmitter interface {
	Notify(ctx context.Context, kind domain.EventKind, payload map[string]any)
}

type LeadHandler struct {
	facade  RecordFacade
	emitter EventEmitter
}

func NewLeadHandler(facade RecordFacade, emitter EventEmitter) (*LeadHandler, error) {
	if facade == nil {
		return nil, fmt.Errorf("record facade is required")
	}
	return &LeadHandler{facade: facade, emitter: emitter}, nil
}

func RegisterLeadRoutes(router fiber.Router, facade RecordFacade, emitter EventEmitter) error {
	h, err := NewLeadHandler(facade, emitter)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/leads", h.SubmitLead)

	return nil
}

type leadRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Company  string   `json:"company,omitempty"`
	Website  string   `json:"website,omitempty"`
	Industry string   `json:"industry,omitempty"`
	Services []string `json:"services,omitempty"`
	Message  string   `json:"message,omitempty"`
}

func (h *LeadHandler) SubmitLead(c *fiber.Ctx) error {
	var req leadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return toHTTPError(fmt.Errorf("%w: name is required", domain.ErrValidation))
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return toHTTPError(fmt.Errorf("%w: a valid email is required", domain.ErrValidation))
	}

	fields := map[string]any{
		"name":  req.Name,
		"email": req.Email,
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if req.Company != "" {
		fields["company"] = req.Company
	}
	if req.Website != "" {
		fields["website"] = req.Website
	}
	if req.Industry != "" {
		fields["industry"] = req.Industry
	}
	if len(req.Services) > 0 {
		fields["services"] = strings.Join(req.Services, ", ")
	}
	if req.Message != "" {
		fields["message"] = req.Message
	}

	receipt, err := h.facade.Write(c.Context(), &domain.Record{Kind: domain.KindLead, Fields: fields})
	if err != nil {
		return toHTTPError(err)
	}

	if h.emitter != nil {
		payload := map[string]any{"lead_id": receipt.ID}
		for key, value := range fields {
			payload[key] = value
		}
		h.emitter.Notify(c.Context(), domain.EventNewLead, payload)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      receipt.ID,
		"source":  receipt.Source.String(),
	})
}
