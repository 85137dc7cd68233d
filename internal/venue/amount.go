package venue

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// OneToken is 10^decimals, the raw amount of one whole token.
func OneToken(decimals int32) string {
	return decimal.New(1, decimals).String()
}

// UnitPrice converts a swap of rawIn (inDecimals) for rawOut (outDecimals)
// into the price of one input token in output-token units.
func UnitPrice(rawIn string, inDecimals int32, rawOut string, outDecimals int32) (float64, error) {
	in, err := decimal.NewFromString(rawIn)
	if err != nil {
		return 0, fmt.Errorf("parse amount in %q: %w", rawIn, err)
	}
	out, err := decimal.NewFromString(rawOut)
	if err != nil {
		return 0, fmt.Errorf("parse amount out %q: %w", rawOut, err)
	}
	if !in.IsPositive() || !out.IsPositive() {
		return 0, errors.New("swap amounts must be positive")
	}

	price := out.Shift(-outDecimals).Div(in.Shift(-inDecimals))
	f, _ := price.Float64()
	return f, nil
}

// Units converts a raw integer amount to whole tokens.
func Units(raw string, decimals int32) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	f, _ := d.Shift(-decimals).Float64()
	return f, nil
}
