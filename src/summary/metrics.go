package summary

import "github.com/shopspring/decimal"

// Price averages are rounded to 4 decimal places, matching the tick
// resolution published by the exchange.
const avgPriceScale = 4

// -----------------------------------------------------------------------------

// avgPrice returns amount/quantity, or zero when quantity is not positive.
func avgPrice(amount decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return amount.DivRound(decimal.NewFromInt(quantity), avgPriceScale)
}

// -----------------------------------------------------------------------------

// holdingPrice returns (buyAmount - sellAmount) / netQuantity for a positive
// net position, zero otherwise.
func holdingPrice(buyAmount, sellAmount decimal.Decimal, netQuantity int64) decimal.Decimal {
	if netQuantity <= 0 {
		return decimal.Zero
	}
	return buyAmount.Sub(sellAmount).DivRound(decimal.NewFromInt(netQuantity), avgPriceScale)
}
