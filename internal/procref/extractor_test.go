package procref

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestExtractFullForm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PAG FRETE DMD 0083/25", "DMD.0083/25"},
		{"PAG FRETE DMD.0083/25", "DMD.0083/25"},
		{"DMD0083/25 DESEMBARACO", "DMD.0083/25"},
		{"pagamento ref bnd 0093/24", "BND.0093/24"},
		{"IMPORTACAO ABCD 1234/23 LIQUIDACAO", "ABCD.1234/23"},
	}

	for _, tt := range tests {
		got, ok := extractAt(tt.input, fixedNow)
		if !ok {
			t.Errorf("extractAt(%q): expected a match", tt.input)
			continue
		}
		if got != tt.expected {
			t.Errorf("extractAt(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestExtractSeparatedFormDefaultsYear(t *testing.T) {
	got, ok := extractAt("TED FORNECEDOR DMD 0083", fixedNow)
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != "DMD.0083/25" {
		t.Errorf("Expected DMD.0083/25, got %q", got)
	}

	got, ok = extractAt("REF BND.0093 CAMBIO", fixedNow)
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != "BND.0093/25" {
		t.Errorf("Expected BND.0093/25, got %q", got)
	}
}

func TestExtractCompactForm(t *testing.T) {
	got, ok := extractAt("BND0093", fixedNow)
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != "BND.0093/25" {
		t.Errorf("Expected BND.0093/25, got %q", got)
	}
}

func TestExtractNoMatch(t *testing.T) {
	inputs := []string{
		"TRANSFERENCIA PIX",
		"",
		"TED 123",
		"PAGAMENTO BOLETO VENCIMENTO 10/03",
		"A1234", // single letter prefix
	}

	for _, input := range inputs {
		if got, ok := extractAt(input, fixedNow); ok {
			t.Errorf("extractAt(%q): expected no match, got %q", input, got)
		}
	}
}

func TestExtractFirstPatternWins(t *testing.T) {
	// The full form must win even when a compact-form candidate appears
	// earlier in the string.
	got, ok := extractAt("LOTE XYZ9999 REF DMD 0083/25", fixedNow)
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != "DMD.0083/25" {
		t.Errorf("Expected full form to win, got %q", got)
	}
}

func TestExtractLowercaseInput(t *testing.T) {
	got, ok := extractAt("pag frete dmd 0083/25", fixedNow)
	if !ok {
		t.Fatal("Expected a match for lowercase input")
	}
	if got != "DMD.0083/25" {
		t.Errorf("Expected DMD.0083/25, got %q", got)
	}
}

func TestExtractUsesCurrentYear(t *testing.T) {
	now := time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC)
	got, ok := extractAt("BND0093", now)
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != "BND.0093/31" {
		t.Errorf("Expected year 31, got %q", got)
	}
}

func TestExtractPublicEntry(t *testing.T) {
	expected := "BND.0093/" + time.Now().Format("06")
	got, ok := Extract("BND0093")
	if !ok {
		t.Fatal("Expected a match")
	}
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
