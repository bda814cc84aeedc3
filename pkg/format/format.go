// Package format renders estimator values as fixed-locale (pt-BR) display strings.
package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale is the only locale display strings are produced in.
var Locale = language.BrazilianPortuguese

// Printer formats numbers for Locale. A Printer is safe for concurrent use
// and is shared by all tool handlers.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer for Locale.
func NewPrinter() *Printer {
	return &Printer{p: message.NewPrinter(Locale)}
}

// Kg formats a CO2 mass, e.g. "12,00 kg".
func (p *Printer) Kg(v float64) string {
	return p.p.Sprintf("%.2f kg", v)
}

// Km formats a distance, e.g. "430,00 km".
func (p *Printer) Km(v float64) string {
	return p.p.Sprintf("%.2f km", v)
}

// Credits formats a credit count with four decimals.
func (p *Printer) Credits(v float64) string {
	return p.p.Sprintf("%.4f", v)
}

// Currency formats an amount in reais, e.g. "R$ 62,50".
func (p *Printer) Currency(v float64) string {
	return "R$ " + p.p.Sprintf("%.2f", v)
}

// Percent formats a percentage, e.g. "25,83%".
func (p *Printer) Percent(v float64) string {
	return p.p.Sprintf("%.2f", v) + "%"
}
