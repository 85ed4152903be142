package funnel

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func percent(rate float64) float64 {
	return rate * 100
}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}
