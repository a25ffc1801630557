package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	pricePattern   = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]+)?)\$`)
	numberRegex    = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	ErrParseFailed = errors.New("parse_failed")
)

// ParsePrice extracts a price from model output. It first tries the strict
// $<number>$ envelope and falls back to the longest number in the text
// (e.g. "around 45 dollars").
func ParsePrice(text string) (decimal.Decimal, error) {
	if m := pricePattern.FindStringSubmatch(text); len(m) >= 2 {
		return toPrice(m[1])
	}
	matches := numberRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no price found", ErrParseFailed)
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) > len(best) {
			best = m
		}
	}
	return toPrice(best)
}

func toPrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", ErrParseFailed, d)
	}
	return d, nil
}
