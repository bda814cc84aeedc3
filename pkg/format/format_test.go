package format

import (
	"strings"
	"sync"
	"testing"
)

func TestPrinter(t *testing.T) {
	p := NewPrinter()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"kg", p.Kg(12), "12,00 kg"},
		{"kg fraction", p.Kg(8.9), "8,90 kg"},
		{"km", p.Km(430), "430,00 km"},
		{"credits", p.Credits(1.25), "1,2500"},
		{"currency", p.Currency(62.5), "R$ 62,50"},
		{"percent", p.Percent(25.83), "25,83%"},
		{"negative percent", p.Percent(-112.5), "-112,50%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPrinter_LargeValuesUseCommaDecimal(t *testing.T) {
	p := NewPrinter()

	got := p.Currency(1234.5)
	if !strings.HasPrefix(got, "R$ ") || !strings.HasSuffix(got, ",50") {
		t.Errorf("Currency(1234.5) = %q, expected reais with comma decimal separator", got)
	}
}

func TestPrinterConcurrentUse(t *testing.T) {
	p := NewPrinter()

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := p.Currency(62.5); got != "R$ 62,50" {
					errs <- got
					return
				}
				if got := p.Kg(8.9); got != "8,90 kg" {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("unexpected output under concurrent use: %q", got)
	}
}
