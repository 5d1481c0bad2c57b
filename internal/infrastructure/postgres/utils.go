package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isCheckViolation detecta el CHECK (quantity >= 0) de lotes y registros de stock.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// sizeRow forma JSONB de una talla (columna sizes).
type sizeRow struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

func encodeSizes(sizes []entity.BatchSize) ([]byte, error) {
	rows := make([]sizeRow, 0, len(sizes))
	for _, s := range sizes {
		rows = append(rows, sizeRow{Size: s.Size, Quantity: s.Quantity})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode sizes: %w", err)
	}
	return b, nil
}

func decodeSizes(raw []byte) ([]entity.BatchSize, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []sizeRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode sizes: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]entity.BatchSize, len(rows))
	for i, r := range rows {
		out[i] = entity.BatchSize{Size: r.Size, Quantity: r.Quantity}
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
