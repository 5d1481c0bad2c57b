package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestParseProducts_Latin1(t *testing.T) {
	// "Champú" y "Niños" en ISO-8859-1 (ú = 0xFA, ñ = 0xF1).
	raw := []byte("id;sku;nombre;categoria;precio;costo;umbral;perfil_tallas\n" +
		"p1;CH-01;Champ\xfa;Cuidado;12.500,50;8000;5;\n" +
		"p2;ZN-02;Zapato Ni\xf1os;Calzado;45000;30000;2;kids\n" +
		";;;\n")

	rows, err := parseProducts(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Champú", rows[0].Name)
	assert.Equal(t, "12500.5", rows[0].Price.String())
	assert.Equal(t, 5, rows[0].Threshold)
	assert.Equal(t, entity.SizeProfileNone, rows[0].Profile)

	assert.Equal(t, "Zapato Niños", rows[1].Name)
	assert.Equal(t, entity.SizeProfileKids, rows[1].Profile)
}

func TestParseProducts_Errores(t *testing.T) {
	_, err := parseProducts(strings.NewReader("p1;S;N;C;0;0;-1;\n"))
	assert.Error(t, err, "umbral negativo")

	_, err = parseProducts(strings.NewReader("p1;S;N;C;0;0;1;xl\n"))
	assert.Error(t, err, "perfil desconocido")
}

func TestWriteSQL_EscapaComillas(t *testing.T) {
	var buf bytes.Buffer
	err := writeSQL(&buf,
		[]productRow{{ID: "p1", SKU: "S1", Name: "Crema D'Oro", Threshold: 1}},
		[]locationRow{{ID: "L1", Name: "Bodega", Address: "Calle 1"}},
	)
	require.NoError(t, err)

	sql := buf.String()
	assert.Contains(t, sql, "'Crema D''Oro'")
	assert.Contains(t, sql, "INSERT INTO locations (id, name, address) VALUES")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE")
	assert.Less(t, strings.Index(sql, "INSERT INTO locations"), strings.Index(sql, "INSERT INTO products"))
}
