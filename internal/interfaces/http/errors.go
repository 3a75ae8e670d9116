package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// ErrorResponse cuerpo de error estándar de la API.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondError mapea errores de dominio a códigos HTTP. Los errores tipados
// aportan detalles estructurados; el resto colapsa a su centinela.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"on_hand":    insufficient.OnHand,
				"reserved":   insufficient.Reserved,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
			},
		})
	}
	var missing *domain.ProductsNotFoundError
	if errors.As(err, &missing) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Code:    "PRODUCTS_NOT_FOUND",
			Message: missing.Error(),
			Details: map[string]any{"missing_ids": missing.MissingIDs},
		})
	}
	var shortage *domain.ShortageReasonError
	if errors.As(err, &shortage) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Code:    "SHORTAGE_REASON_REQUIRED",
			Message: shortage.Error(),
			Details: map[string]any{
				"product_id": shortage.ProductID,
				"shipped":    shortage.Shipped,
				"received":   shortage.Received,
			},
		})
	}
	var transition *domain.TransitionError
	if errors.As(err, &transition) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: transition.Error(),
			Details: map[string]any{
				"entity": transition.Entity,
				"id":     transition.ID,
				"from":   transition.From,
				"to":     transition.To,
			},
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
