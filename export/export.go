// Package export serializes the canonical record list into the tabular
// artifacts the UI offers for download. These are plain projections of the
// record sequence; no extraction logic lives here.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

// csvHeader is the fixed column set, in order.
var csvHeader = []string{"titulo", "precio", "url", "etiquetas"}

// CSV renders the products as comma-separated rows with a header line.
// Tags are joined with ", " inside their single column.
func CSV(products []models.Product) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}
	for _, p := range products {
		row := []string{
			p.Titulo,
			precioString(p.Precio),
			p.URL,
			strings.Join(p.Etiquetas, ", "),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonRow mirrors the CSV columns for the JSON artifact.
type jsonRow struct {
	Titulo    string `json:"titulo"`
	Precio    any    `json:"precio"`
	URL       string `json:"url"`
	Etiquetas string `json:"etiquetas"`
}

// JSON renders the products as a JSON array of the same four columns.
func JSON(products []models.Product) ([]byte, error) {
	rows := make([]jsonRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, jsonRow{
			Titulo:    p.Titulo,
			Precio:    p.Precio,
			URL:       p.URL,
			Etiquetas: strings.Join(p.Etiquetas, ", "),
		})
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("export: marshal json: %w", err)
	}
	return out, nil
}

// precioString formats the price cell: numbers keep their natural decimal
// form, the "N/D" placeholder passes through.
func precioString(v any) string {
	switch t := v.(type) {
	case float64:
		return fmt.Sprintf("%g", t)
	case string:
		return t
	case nil:
		return models.PrecioFallback
	default:
		return fmt.Sprintf("%v", t)
	}
}
