// Package lot folds ordered transactions for one (platform, security) key
// into a running weighted-average cost lot. The fold is pure: re-running it
// over the full ledger always reproduces the same LotState.
package lot

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
)

// Fold replays the transactions of one key in (trade date, ingestion
// sequence) order and returns the terminal lot state.
//
// A SELL that exceeds the open quantity is a detectable anomaly, not data:
// the lot is marked needs-review and the fold stops applying events for the
// key, leaving quantity and cost as they were before the bad sell.
func Fold(txns []model.Transaction) model.LotState {
	ordered := ordered(txns)

	var state model.LotState
	if len(ordered) > 0 {
		state.PlatformID = ordered[0].PlatformID
		state.SecurityID = ordered[0].SecurityID
	}

	for _, txn := range ordered {
		if state.NeedsReview {
			break
		}
		state = apply(state, txn)
	}

	return state
}

// History returns a snapshot of the lot state after every applied
// transaction, oldest first.
func History(txns []model.Transaction) []model.LotState {
	ordered := ordered(txns)

	var state model.LotState
	if len(ordered) > 0 {
		state.PlatformID = ordered[0].PlatformID
		state.SecurityID = ordered[0].SecurityID
	}

	snapshots := make([]model.LotState, 0, len(ordered))
	for _, txn := range ordered {
		if state.NeedsReview {
			break
		}
		state = apply(state, txn)
		snapshots = append(snapshots, state)
	}

	return snapshots
}

func ordered(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TradeDate.Equal(out[j].TradeDate) {
			return out[i].TradeDate.Before(out[j].TradeDate)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out
}

func apply(state model.LotState, txn model.Transaction) model.LotState {
	qty := txn.Quantity.Abs()

	switch txn.Type {
	case model.TransactionBuy:
		state = applyBuy(state, qty, txn.Price, txn.Fees())
	case model.TransactionSell:
		if qty.GreaterThan(state.Quantity) {
			state.NeedsReview = true
			return state
		}
		state = applySell(state, qty, txn.Price, txn.Fees())
	case model.TransactionDividend:
		income := qty.Mul(txn.Price).Sub(txn.TaxWithheld)
		state.DividendIncome = state.DividendIncome.Add(income)
	}

	state.LastTransactionDate = txn.TradeDate
	return state
}

// applyBuy capitalizes fees into cost basis: the new average is the total
// spent over the total held.
func applyBuy(state model.LotState, qty, price, fees decimal.Decimal) model.LotState {
	oldCost := decimal.Zero
	if state.AverageCost.Valid {
		oldCost = state.Quantity.Mul(state.AverageCost.Decimal)
	}

	newQty := state.Quantity.Add(qty)
	newCost := oldCost.Add(qty.Mul(price)).Add(fees)

	state.Quantity = newQty
	state.AverageCost = decimal.NewNullDecimal(newCost.Div(newQty))
	return state
}

// applySell realizes gains against the unchanged average cost; selling never
// moves the average of what remains. Sell-side fees reduce proceeds.
func applySell(state model.LotState, qty, price, fees decimal.Decimal) model.LotState {
	avg := decimal.Zero
	if state.AverageCost.Valid {
		avg = state.AverageCost.Decimal
	}

	gain := qty.Mul(price.Sub(avg)).Sub(fees)
	state.RealizedGainLoss = state.RealizedGainLoss.Add(gain)
	state.Quantity = state.Quantity.Sub(qty)

	if state.Quantity.IsZero() {
		state.AverageCost = decimal.NullDecimal{}
	}
	return state
}
