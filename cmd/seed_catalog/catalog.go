package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type productRow struct {
	ID        string
	SKU       string
	Name      string
	Category  string
	Price     decimal.Decimal
	Cost      decimal.Decimal
	Threshold int
	Profile   entity.SizeProfile
}

type locationRow struct {
	ID      string
	Name    string
	Address string
}

func readProducts(path string) ([]productRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseProducts(f)
}

func readLocations(path string) ([]locationRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseLocations(f)
}

// latin1Reader devuelve un lector CSV sobre la entrada decodificada desde ISO-8859-1.
func latin1Reader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

func parseProducts(r io.Reader) ([]productRow, error) {
	records, err := latin1Reader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	var out []productRow
	for i, rec := range records {
		if i == 0 && isHeader(rec) {
			continue
		}
		if len(rec) < 3 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := productRow{
			ID:   strings.TrimSpace(rec[0]),
			SKU:  strings.TrimSpace(rec[1]),
			Name: strings.TrimSpace(rec[2]),
		}
		if len(rec) > 3 {
			row.Category = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 {
			if row.Price, err = parseAmount(rec[4]); err != nil {
				return nil, fmt.Errorf("línea %d: precio: %w", i+1, err)
			}
		}
		if len(rec) > 5 {
			if row.Cost, err = parseAmount(rec[5]); err != nil {
				return nil, fmt.Errorf("línea %d: costo: %w", i+1, err)
			}
		}
		if len(rec) > 6 && strings.TrimSpace(rec[6]) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(rec[6]))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("línea %d: umbral inválido %q", i+1, rec[6])
			}
			row.Threshold = n
		}
		if len(rec) > 7 {
			profile := entity.SizeProfile(strings.ToLower(strings.TrimSpace(rec[7])))
			if !profile.Valid() {
				return nil, fmt.Errorf("línea %d: perfil de tallas desconocido %q", i+1, rec[7])
			}
			row.Profile = profile
		}
		out = append(out, row)
	}
	return out, nil
}

func parseLocations(r io.Reader) ([]locationRow, error) {
	records, err := latin1Reader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	var out []locationRow
	for i, rec := range records {
		if i == 0 && isHeader(rec) {
			continue
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := locationRow{ID: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			row.Address = strings.TrimSpace(rec[2])
		}
		out = append(out, row)
	}
	return out, nil
}

func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "id")
}

// parseAmount acepta coma decimal ("12.500,50") como la exporta el ERP.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func writeSQL(w io.Writer, products []productRow, locations []locationRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial del ledger (productos y ubicaciones)\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(locations) > 0 {
		b.WriteString("-- 1. Ubicaciones\n")
		b.WriteString("INSERT INTO locations (id, name, address) VALUES\n")
		for i, l := range locations {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s')", escapeSQL(l.ID), escapeSQL(l.Name), escapeSQL(l.Address))
			b.WriteString(separator(i, len(locations)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address;\n\n")
	}

	if len(products) > 0 {
		b.WriteString("-- 2. Productos\n")
		b.WriteString("INSERT INTO products (id, sku, name, category, price, cost_price, low_stock_threshold, size_profile) VALUES\n")
		for i, p := range products {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', %s, %s, %d, '%s')",
				escapeSQL(p.ID), escapeSQL(p.SKU), escapeSQL(p.Name), escapeSQL(p.Category),
				p.Price.String(), p.Cost.String(), p.Threshold, string(p.Profile))
			b.WriteString(separator(i, len(products)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,\n")
		b.WriteString("  category = EXCLUDED.category, price = EXCLUDED.price, cost_price = EXCLUDED.cost_price,\n")
		b.WriteString("  low_stock_threshold = EXCLUDED.low_stock_threshold, size_profile = EXCLUDED.size_profile;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func separator(i, n int) string {
	if i < n-1 {
		return ",\n"
	}
	return "\n"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
