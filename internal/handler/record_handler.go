package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tnrbusiness/outreach/internal/crm"
	"github.com/tnrbusiness/outreach/internal/domain"
)

type RecordFacade interface {
	Write(ctx context.Context, record *domain.Record) (*crm.Receipt, error)
	Read(ctx context.Context, kind domain.EntityKind, filter map[string]any) ([]domain.Record, domain.Source, error)
	Delete(ctx context.Context, kind domain.EntityKind, id string) error
	Reconcile(ctx context.Context) (*crm.ReconcileSummary, error)
}

type RecordHandler struct {
	facade  RecordFacade
	emitter EventEmitter
}

func NewRecordHandler(facade RecordFacade, emitter EventEmitter) (*RecordHandler, error) {
	if facade == nil {
		return nil, fmt.Errorf("record facade is required")
	}
	return &RecordHandler{facade: facade, emitter: emitter}, nil
}

func RegisterRecordRoutes(router fiber.Router, facade RecordFacade, emitter EventEmitter) error {
	h, err := NewRecordHandler(facade, emitter)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/records/reconcile", h.Reconcile)
	v1.Post("/records/:kind", h.CreateRecord)
	v1.Get("/records/:kind", h.ListRecords)
	v1.Delete("/records/:kind/:id", h.DeleteRecord)

	return nil
}

type recordResponse struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
	Source string         `json:"source"`
}

func (h *RecordHandler) CreateRecord(c *fiber.Ctx) error {
	kind, err := domain.ParseEntityKindFromString(c.Params("kind"))
	if err != nil {
		return toHTTPError(err)
	}

	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.facade.Write(c.Context(), &domain.Record{Kind: kind, Fields: fields})
	if err != nil {
		return toHTTPError(err)
	}

	if kind == domain.KindOrder && h.emitter != nil {
		h.emitter.Notify(c.Context(), domain.EventOrderConfirmed, map[string]any{
			"order_id": receipt.ID,
			"source":   receipt.Source.String(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      receipt.ID,
		"source":  receipt.Source.String(),
	})
}

func (h *RecordHandler) ListRecords(c *fiber.Ctx) error {
	kind, err := domain.ParseEntityKindFromString(c.Params("kind"))
	if err != nil {
		return toHTTPError(err)
	}

	filter := make(map[string]any)
	for key, values := range c.Queries() {
		if strings.TrimSpace(key) == "" || values == "" {
			continue
		}
		filter[key] = values
	}

	records, source, err := h.facade.Read(c.Context(), kind, filter)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]recordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, recordResponse{
			ID:     record.ID,
			Kind:   record.Kind.String(),
			Fields: record.Fields,
			Source: record.Source.String(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"source":  source.String(),
	})
}

func (h *RecordHandler) DeleteRecord(c *fiber.Ctx) error {
	kind, err := domain.ParseEntityKindFromString(c.Params("kind"))
	if err != nil {
		return toHTTPError(err)
	}

	id := strings.TrimSpace(c.Params("id"))
	if err := h.facade.Delete(c.Context(), kind, id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"id":      id,
	})
}

func (h *RecordHandler) Reconcile(c *fiber.Ctx) error {
	summary, err := h.facade.Reconcile(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"migrated": summary.Migrated,
		"failed":   summary.Failed,
	})
}
