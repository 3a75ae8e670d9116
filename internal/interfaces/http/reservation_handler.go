package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// ReservationHandler maneja las peticiones HTTP de reservas de stock.
type ReservationHandler struct {
	uc *ledger.ReservationUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *ledger.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

type createReservationRequest struct {
	ProductID     string    `json:"product_id"`
	LocationID    string    `json:"location_id"`
	Quantity      int64     `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
	ReferenceType *string   `json:"reference_type,omitempty"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
}

// Create crea una reserva ACTIVE (POST /api/v1/reservations).
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Create(c.Context(), ledger.CreateReservationInput{
		TenantID:      GetTenantID(c),
		UserID:        GetUserID(c),
		ProductID:     req.ProductID,
		LocationID:    req.LocationID,
		Quantity:      req.Quantity,
		ExpiresAt:     req.ExpiresAt,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

type updateReservationRequest struct {
	Quantity      *int64     `json:"quantity,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ReferenceType *string    `json:"reference_type,omitempty"`
	ReferenceID   *string    `json:"reference_id,omitempty"`
}

// Update ajusta cantidad y/o expiración de una reserva ACTIVE
// (PATCH /api/v1/reservations/:id).
func (h *ReservationHandler) Update(c *fiber.Ctx) error {
	var req updateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Update(c.Context(), GetTenantID(c), c.Params("id"), ledger.UpdateReservationInput{
		Quantity:      req.Quantity,
		ExpiresAt:     req.ExpiresAt,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Release libera una reserva ACTIVE (POST /api/v1/reservations/:id/release).
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if err := h.uc.Release(c.Context(), GetTenantID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva liberada"})
}

// GetByID obtiene una reserva (GET /api/v1/reservations/:id).
func (h *ReservationHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.uc.Get(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
