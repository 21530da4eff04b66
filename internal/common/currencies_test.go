package common

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCurrencies(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "currencies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp currencies file: %v", err)
	}
	return path
}

func TestLoadCurrencyConfig(t *testing.T) {
	path := writeTempCurrencies(t, `
currencies:
  - code: USD
    name: US Dollar
    symbol: "$"
    decimals: 2
  - code: GHS
    name: Ghanaian Cedi
    symbol: "GH₵"
    decimals: 2
`)

	currencies, err := LoadCurrencyConfig(path)
	if err != nil {
		t.Fatalf("LoadCurrencyConfig failed: %v", err)
	}
	if len(currencies) != 2 {
		t.Fatalf("Expected 2 currencies, got %d", len(currencies))
	}
	if currencies[0].Code != "USD" || currencies[0].Symbol != "$" {
		t.Errorf("Unexpected first currency: %+v", currencies[0])
	}
	if currencies[1].Decimals != 2 {
		t.Errorf("Expected 2 decimals, got %d", currencies[1].Decimals)
	}
}

func TestLoadCurrencyConfig_MissingFile(t *testing.T) {
	if _, err := LoadCurrencyConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadCurrencyConfig_RejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing code": `
currencies:
  - name: Mystery Money
    decimals: 2
`,
		"missing name": `
currencies:
  - code: XXX
    decimals: 2
`,
		"negative decimals": `
currencies:
  - code: XXX
    name: Broken
    decimals: -1
`,
	}
	for label, content := range cases {
		path := writeTempCurrencies(t, content)
		if _, err := LoadCurrencyConfig(path); err == nil {
			t.Errorf("%s: expected validation error", label)
		}
	}
}

func TestLoadCurrencyConfig_MalformedYaml(t *testing.T) {
	path := writeTempCurrencies(t, "currencies: [not: closed")
	if _, err := LoadCurrencyConfig(path); err == nil {
		t.Fatal("Expected parse error")
	}
}
