package entity

import "time"

// StockRecord cantidad de un producto en una ubicación.
// Se crea de forma perezosa en la primera entrada a una ubicación sin stock; nunca se elimina.
type StockRecord struct {
	ProductID  string
	LocationID string
	Quantity   int
	Version    int64
	UpdatedAt  time.Time
}
