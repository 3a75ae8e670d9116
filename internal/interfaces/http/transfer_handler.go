package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// TransferHandler maneja las peticiones HTTP de traslados entre ubicaciones.
type TransferHandler struct {
	uc *ledger.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *ledger.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

type transferItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type createTransferRequest struct {
	FromLocationID  string                `json:"from_location_id"`
	ToLocationID    string                `json:"to_location_id"`
	Note            string                `json:"note,omitempty"`
	Items           []transferItemRequest `json:"items"`
	ShipImmediately bool                  `json:"ship_immediately,omitempty"`
}

// Create crea un traslado en DRAFT (POST /api/v1/transfers); con
// ship_immediately el despacho se encadena en la misma transacción.
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var req createTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	in := ledger.CreateTransferInput{
		TenantID:        GetTenantID(c),
		UserID:          GetUserID(c),
		FromLocationID:  req.FromLocationID,
		ToLocationID:    req.ToLocationID,
		Note:            req.Note,
		ShipImmediately: req.ShipImmediately,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, ledger.CreateTransferItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	t, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// Ship despacha un traslado DRAFT (POST /api/v1/transfers/:id/ship).
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	if err := h.uc.Ship(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado despachado"})
}

type receiveItemRequest struct {
	ProductID        string  `json:"product_id"`
	ReceivedQuantity int64   `json:"received_quantity"`
	ShortageReason   *string `json:"shortage_reason,omitempty"`
}

type receiveTransferRequest struct {
	Items []receiveItemRequest `json:"items"`
}

// Receive confirma la recepción (POST /api/v1/transfers/:id/receive).
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var req receiveTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	items := make([]ledger.ReceiveItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ledger.ReceiveItemInput{
			ProductID:        item.ProductID,
			ReceivedQuantity: item.ReceivedQuantity,
			ShortageReason:   item.ShortageReason,
		})
	}
	if err := h.uc.Receive(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id"), items); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado recibido"})
}

// Cancel cancela un traslado DRAFT o IN_TRANSIT (POST /api/v1/transfers/:id/cancel).
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	if err := h.uc.Cancel(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado cancelado"})
}

// GetByID obtiene un traslado con sus líneas (GET /api/v1/transfers/:id).
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.uc.Get(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

// List traslados del tenant, más recientes primero (GET /api/v1/transfers).
func (h *TransferHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	list, err := h.uc.List(c.Context(), GetTenantID(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "transfers": list})
}
