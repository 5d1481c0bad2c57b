package domain

import "errors"

// Errores de dominio del ledger de stock (sin dependencias externas).
// Se envuelven con fmt.Errorf("%w: ...") para nombrar el invariante violado;
// los llamadores comparan con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrInvalidArgument   = errors.New("argumento inválido")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidState      = errors.New("estado inválido para la operación")
	ErrInvalidSize       = errors.New("talla inválida")
	ErrPartialFailure    = errors.New("operación aplicada parcialmente")
)
