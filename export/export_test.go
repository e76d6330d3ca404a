package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Jmemijeabadi/wallmartofertasmx/models"
)

func sampleProducts() []models.Product {
	return []models.Product{
		{
			Titulo:    "Pantalla 55",
			Precio:    7999.0,
			URL:       "https://www.walmart.com.mx/ip/pantalla/1",
			Etiquetas: []string{"Rebaja", "Envío gratis"},
			Rebaja:    true,
		},
		{
			Titulo: "Horno",
			Precio: "N/D",
			URL:    "https://www.walmart.com.mx/ip/horno/2",
		},
	}
}

func TestCSV(t *testing.T) {
	out, err := CSV(sampleProducts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "titulo,precio,url,etiquetas" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "7999") || !strings.Contains(lines[1], "Rebaja, Envío gratis") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "N/D") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestCSV_Empty(t *testing.T) {
	out, err := CSV(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "titulo,precio,url,etiquetas" {
		t.Errorf("empty export should still carry the header, got %q", out)
	}
}

func TestJSON(t *testing.T) {
	out, err := JSON(sampleProducts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["titulo"] != "Pantalla 55" || rows[0]["precio"] != 7999.0 {
		t.Errorf("row = %v", rows[0])
	}
	if rows[1]["precio"] != "N/D" {
		t.Errorf("row = %v", rows[1])
	}
	if rows[0]["etiquetas"] != "Rebaja, Envío gratis" {
		t.Errorf("etiquetas = %v", rows[0]["etiquetas"])
	}
}

func TestJSON_Empty(t *testing.T) {
	out, err := JSON(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "[]" {
		t.Errorf("empty export should be an empty array, got %q", out)
	}
}
