package header

import "testing"

func TestNormalizeEquivalence(t *testing.T) {
	groups := [][]string{
		{"Placa", "PLACA", " placa ", "pLaCa"},
		{"Km Saída", "KM SAIDA", "km   saida", "Km\tSaída"},
		{"Destinação Final", "DESTINACAO FINAL", "destinacao  final "},
		{"Região", "REGIAO", "regiao"},
	}
	for _, g := range groups {
		want := Normalize(g[0])
		for _, h := range g[1:] {
			if got := Normalize(h); got != want {
				t.Errorf("Normalize(%q) = %q, want %q", h, got, want)
			}
		}
	}
}

func TestNormalizeDistinct(t *testing.T) {
	if Equal("KM SAIDA", "KM CHEGADA") {
		t.Fatalf("distinct headers must not collide")
	}
}

func TestNormalizeOutput(t *testing.T) {
	if got := Normalize("  frete  corrigido "); got != "FRETE CORRIGIDO" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Normalize(""); got != "" {
		t.Fatalf("empty header should stay empty, got %q", got)
	}
}
