package sizing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PolicyName selects how the buy notional is derived from the
// available quote balance.
type PolicyName string

const (
	// HalfBalance spends half of the available quote balance.
	HalfBalance PolicyName = "half_balance"
	// EqualSplitTotal divides the available balance evenly across all
	// tracked markets.
	EqualSplitTotal PolicyName = "equal_split_total"
	// EqualSplitKRW divides the remaining quote balance evenly across
	// the markets that are still flat this tick.
	EqualSplitKRW PolicyName = "equal_split_krw"
)

// ErrBelowMinNotional means the computed order would be rejected by
// the exchange's minimum order size. It is a legitimate no-op outcome,
// not a failure.
var ErrBelowMinNotional = errors.New("computed notional below minimum order size")

var two = decimal.NewFromInt(2)

// Policy converts an available balance into an order notional,
// respecting the exchange minimum and leaving a small fee buffer so
// the order is not rejected for balance rounding after fees.
type Policy struct {
	Name        PolicyName
	MinNotional decimal.Decimal // e.g. 5000 KRW
	FeeBuffer   decimal.Decimal // multiplicative haircut, e.g. 0.9995
	Markets     int             // number of tracked markets
}

// NewPolicy builds a Policy, defaulting unset fields.
func NewPolicy(name PolicyName, minNotional, feeBuffer float64, markets int) Policy {
	if name == "" {
		name = HalfBalance
	}
	if minNotional <= 0 {
		minNotional = 5000
	}
	if feeBuffer <= 0 || feeBuffer > 1 {
		feeBuffer = 0.9995
	}
	if markets <= 0 {
		markets = 1
	}
	return Policy{
		Name:        name,
		MinNotional: decimal.NewFromFloat(minNotional),
		FeeBuffer:   decimal.NewFromFloat(feeBuffer),
		Markets:     markets,
	}
}

// BuyNotional computes the quote amount to spend on a buy. flatMarkets
// is the count of tracked markets currently without a position, used
// by the EqualSplitKRW policy. Returns ErrBelowMinNotional when the
// result would not clear the exchange floor.
func (p Policy) BuyNotional(available decimal.Decimal, flatMarkets int) (decimal.Decimal, error) {
	if available.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative available balance %s", available)
	}

	var notional decimal.Decimal
	switch p.Name {
	case EqualSplitTotal:
		notional = available.Div(decimal.NewFromInt(int64(p.Markets)))
	case EqualSplitKRW:
		if flatMarkets < 1 {
			flatMarkets = 1
		}
		notional = available.Div(decimal.NewFromInt(int64(flatMarkets)))
	default:
		notional = available.Div(two)
	}

	notional = notional.Mul(p.FeeBuffer).RoundDown(0)
	if notional.LessThan(p.MinNotional) {
		return decimal.Zero, ErrBelowMinNotional
	}
	return notional, nil
}

// SellVolume validates the full held quantity for a market sell. Sells
// always liquidate the whole balance.
func (p Policy) SellVolume(held decimal.Decimal) (decimal.Decimal, error) {
	if !held.IsPositive() {
		return decimal.Zero, fmt.Errorf("no balance held to sell")
	}
	return held, nil
}
