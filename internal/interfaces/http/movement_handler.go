package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementHandler maneja las peticiones HTTP de entradas, salidas y ajustes.
type MovementHandler struct {
	uc *ledger.MovementUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *ledger.MovementUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

type stockInItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	BatchID   *string         `json:"batch_id,omitempty"`
}

type stockInRequest struct {
	LocationID    string               `json:"location_id"`
	Items         []stockInItemRequest `json:"items"`
	ReferenceType string               `json:"reference_type"`
	ReferenceID   *string              `json:"reference_id,omitempty"`
	Note          string               `json:"note,omitempty"`
}

// StockIn registra una entrada de stock (POST /api/v1/stock/in).
func (h *MovementHandler) StockIn(c *fiber.Ctx) error {
	var req stockInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in := ledger.StockInInput{
		TenantID:      GetTenantID(c),
		UserID:        GetUserID(c),
		LocationID:    req.LocationID,
		ReferenceType: entity.ReferenceType(req.ReferenceType),
		ReferenceID:   req.ReferenceID,
		Note:          req.Note,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, ledger.StockInItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			BatchID:   item.BatchID,
		})
	}
	res, err := h.uc.StockIn(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"movement_ids":   res.MovementIDs,
		"total_quantity": res.TotalQuantity,
	})
}

type stockOutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type stockOutRequest struct {
	LocationID    string                `json:"location_id"`
	Items         []stockOutItemRequest `json:"items"`
	ReferenceType string                `json:"reference_type"`
	ReferenceID   *string               `json:"reference_id,omitempty"`
	Note          string                `json:"note,omitempty"`
}

// StockOut registra una salida de stock (POST /api/v1/stock/out).
func (h *MovementHandler) StockOut(c *fiber.Ctx) error {
	var req stockOutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in := ledger.StockOutInput{
		TenantID:      GetTenantID(c),
		UserID:        GetUserID(c),
		LocationID:    req.LocationID,
		ReferenceType: entity.ReferenceType(req.ReferenceType),
		ReferenceID:   req.ReferenceID,
		Note:          req.Note,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, ledger.StockOutItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	res, err := h.uc.StockOut(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"movement_ids":   res.MovementIDs,
		"total_quantity": res.TotalQuantity,
		"total_cost":     res.TotalCost,
	})
}

type adjustItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"` // con signo: positivo entra, negativo sale
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

type adjustRequest struct {
	LocationID string              `json:"location_id"`
	Items      []adjustItemRequest `json:"items"`
	Reason     string              `json:"reason"`
	Note       string              `json:"note,omitempty"`
}

// Adjust registra un ajuste de inventario (POST /api/v1/stock/adjust).
func (h *MovementHandler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in := ledger.AdjustInput{
		TenantID:   GetTenantID(c),
		UserID:     GetUserID(c),
		LocationID: req.LocationID,
		Reason:     req.Reason,
		Note:       req.Note,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, ledger.AdjustItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	res, err := h.uc.Adjust(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"movement_ids": res.MovementIDs,
		"positive":     res.PositiveAdjustments,
		"negative":     res.NegativeAdjustments,
	})
}
