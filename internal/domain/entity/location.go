package entity

import "time"

// Location representa una bodega o punto donde se almacena stock (solo lectura para el ledger).
type Location struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
