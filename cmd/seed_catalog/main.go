// seed_catalog genera un script SQL para poblar productos y ubicaciones del ledger
// a partir de exportaciones CSV del ERP (codificadas en ISO-8859-1, separadas por ';').
//
// Uso: go run ./cmd/seed_catalog [productos.csv] [ubicaciones.csv]
// Por defecto busca productos.csv y ubicaciones.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/seeds/catalog.sql
//
// Columnas de productos.csv: id;sku;nombre;categoria;precio;costo;umbral;perfil_tallas
// Columnas de ubicaciones.csv: id;nombre;direccion
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	productsPath, locationsPath := "productos.csv", "ubicaciones.csv"
	if len(os.Args) > 1 {
		productsPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		locationsPath = os.Args[2]
	}

	products, err := readProducts(productsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer productos: %v\n", err)
		os.Exit(1)
	}
	locations, err := readLocations(locationsPath)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Leer ubicaciones: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "seeds", "catalog.sql")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, products, locations); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos, %d ubicaciones\n", outPath, len(products), len(locations))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
