package common

import (
	"fmt"
	"os"
	"path/filepath"

	"escrow-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

type CurrencyConfig struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}

type CurrenciesConfig struct {
	Currencies []CurrencyConfig `yaml:"currencies"`
}

// LoadCurrencyConfig reads the currency registry seed file.
func LoadCurrencyConfig(currenciesFile string) ([]models.Currency, error) {
	var currenciesPath string
	if filepath.IsAbs(currenciesFile) {
		currenciesPath = currenciesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		currenciesPath = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(currenciesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	var config CurrenciesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}

	currencies := make([]models.Currency, 0, len(config.Currencies))
	for i, c := range config.Currencies {
		if c.Code == "" {
			return nil, fmt.Errorf("currency at index %d missing code", i)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("currency at index %d missing name", i)
		}
		if c.Decimals < 0 {
			return nil, fmt.Errorf("currency %s has negative decimals", c.Code)
		}
		currencies = append(currencies, models.Currency{
			Code:     c.Code,
			Name:     c.Name,
			Symbol:   c.Symbol,
			Decimals: c.Decimals,
		})
	}

	return currencies, nil
}
