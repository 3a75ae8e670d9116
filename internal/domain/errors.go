package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// InsufficientStockError detalla el primer producto sin disponibilidad suficiente.
// errors.Is(err, ErrInsufficientStock) y errors.Is(err, ErrInvalidInput) son true.
type InsufficientStockError struct {
	ProductID string
	OnHand    int64
	Reserved  int64
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"stock insuficiente para producto %s: disponible=%d (en mano=%d, reservado=%d), solicitado=%d",
		e.ProductID, e.Available, e.OnHand, e.Reserved, e.Requested,
	)
}

func (e *InsufficientStockError) Unwrap() []error {
	return []error{ErrInsufficientStock, ErrInvalidInput}
}

// ProductsNotFoundError lista los productos inexistentes (o borrados) en el tenant.
type ProductsNotFoundError struct {
	MissingIDs []string
}

func (e *ProductsNotFoundError) Error() string {
	return fmt.Sprintf("productos no encontrados: %s", strings.Join(e.MissingIDs, ", "))
}

func (e *ProductsNotFoundError) Unwrap() error { return ErrNotFound }

// ShortageReasonError recepción de traslado con faltante sin razón declarada.
type ShortageReasonError struct {
	ProductID string
	Shipped   int64
	Received  int64
}

func (e *ShortageReasonError) Error() string {
	return fmt.Sprintf(
		"faltante sin razón para producto %s: enviado=%d, recibido=%d, faltante=%d",
		e.ProductID, e.Shipped, e.Received, e.Shipped-e.Received,
	)
}

func (e *ShortageReasonError) Unwrap() error { return ErrInvalidInput }

// TransitionError transición de estado inválida (traslados y reservas).
type TransitionError struct {
	Entity string // "transfer" | "reservation"
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transición inválida de %s %s: %s -> %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrConflict }
