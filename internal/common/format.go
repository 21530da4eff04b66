package common

import (
	"fmt"
	"strings"

	"escrow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// FormatAmount renders an amount at the currency's display precision, with
// the currency symbol when one is registered.
func FormatAmount(amount decimal.Decimal, currency *models.Currency) string {
	if currency == nil {
		return amount.String()
	}
	rendered := amount.StringFixed(int32(currency.Decimals))
	if currency.Symbol != "" {
		return currency.Symbol + rendered
	}
	return rendered + " " + currency.Code
}
