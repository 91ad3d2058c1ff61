package reconcileService

import (
	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
)

var oneDecimal = decimal.NewFromInt(1)

// UK stamp duty reserve tax on LSE purchases.
var stampDutyRate = decimal.RequireFromString("0.005")

type feeSchedule struct {
	Currency        string
	TradingFeePct   decimal.Decimal
	TradingFeeFixed decimal.Decimal
	FxFeePct        decimal.Decimal
	StampDuty       bool
}

// Published commission schedules per broker. Unknown brokers default to
// commission-free with no FX markup.
var feeSchedules = map[string]feeSchedule{
	"Trading212": {
		Currency:  "GBP",
		FxFeePct:  decimal.RequireFromString("0.0015"),
		StampDuty: true,
	},
	"Freetrade": {
		Currency:  "GBP",
		FxFeePct:  decimal.RequireFromString("0.0045"),
		StampDuty: true,
	},
	"HL": {
		Currency:        "GBP",
		TradingFeeFixed: decimal.RequireFromString("11.95"),
		FxFeePct:        decimal.RequireFromString("0.01"),
		StampDuty:       true,
	},
	"AJBell": {
		Currency:        "GBP",
		TradingFeeFixed: decimal.RequireFromString("9.95"),
		FxFeePct:        decimal.RequireFromString("0.0075"),
		StampDuty:       true,
	},
}

func defaultFeeSchedule(platformName string) feeSchedule {
	if schedule, ok := feeSchedules[platformName]; ok {
		return schedule
	}
	return feeSchedule{Currency: "GBP", StampDuty: true}
}

type computedFees struct {
	trading   decimal.Decimal
	fx        decimal.Decimal
	stampDuty decimal.Decimal
}

// computeFees applies the platform schedule to one trade. Dividends carry no
// fees, stamp duty applies to LSE purchases only, and the FX markup applies
// when the instrument trades in another currency.
func computeFees(rec model.RawRecord, platform dbModel.Platform, security dbModel.Security, txnType model.TransactionType) computedFees {
	fees := computedFees{}

	if txnType == model.TransactionDividend {
		return fees
	}

	gross := rec.Quantity.Abs().Mul(rec.Price)

	fees.trading = gross.Mul(platform.TradingFeePct).Add(platform.TradingFeeFixed)

	if security.Currency != "" && platform.Currency != "" && security.Currency != platform.Currency {
		fees.fx = gross.Mul(platform.FxFeePct)
	}

	if txnType == model.TransactionBuy && platform.StampDuty && security.Exchange == "LSE" {
		fees.stampDuty = gross.Mul(stampDutyRate)
	}

	return fees
}
