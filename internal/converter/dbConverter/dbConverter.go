package dbConverter

import (
	"database/sql"

	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
)

func ConvertPlatform(dbPlatform dbModel.Platform) model.Platform {
	return model.Platform{
		PlatformID:      dbPlatform.PlatformID,
		Name:            dbPlatform.Name,
		AccountType:     dbPlatform.AccountType,
		Currency:        dbPlatform.Currency,
		TradingFeePct:   dbPlatform.TradingFeePct,
		TradingFeeFixed: dbPlatform.TradingFeeFixed,
		FxFeePct:        dbPlatform.FxFeePct,
		StampDuty:       dbPlatform.StampDuty,
		CreatedAt:       dbPlatform.CreatedAt,
	}
}

func ConvertSecurity(dbSecurity dbModel.Security) model.Security {
	return model.Security{
		SecurityID:     dbSecurity.SecurityID,
		Ticker:         dbSecurity.Ticker,
		Exchange:       dbSecurity.Exchange,
		ISIN:           dbSecurity.ISIN,
		Currency:       dbSecurity.Currency,
		InstrumentType: dbSecurity.InstrumentType,
		CreatedAt:      dbSecurity.CreatedAt,
	}
}

func ConvertTransaction(dbTxn dbModel.Transaction) model.Transaction {
	return model.Transaction{
		TransactionID: dbTxn.TransactionID,
		PlatformID:    dbTxn.PlatformID,
		SecurityID:    dbTxn.SecurityID,
		Type:          model.TransactionType(dbTxn.Type),
		TradeDate:     dbTxn.TradeDate,
		Quantity:      dbTxn.Quantity,
		Price:         dbTxn.Price,
		TradingFees:   dbTxn.TradingFees,
		FxFees:        dbTxn.FxFees,
		StampDuty:     dbTxn.StampDuty,
		TaxWithheld:   dbTxn.TaxWithheld,
		Currency:      dbTxn.Currency,
		FxRate:        dbTxn.FxRate,
		Fingerprint:   dbTxn.Fingerprint,
		CreatedAt:     dbTxn.CreatedAt,
	}
}

// ConvertLotState prepares a fold result for persistence.
func ConvertLotState(state model.LotState) dbModel.Holding {
	holding := dbModel.Holding{
		PlatformID:       state.PlatformID,
		SecurityID:       state.SecurityID,
		Quantity:         state.Quantity,
		AverageCost:      state.AverageCost,
		RealizedGainLoss: state.RealizedGainLoss,
		DividendIncome:   state.DividendIncome,
		NeedsReview:      state.NeedsReview,
	}
	if !state.LastTransactionDate.IsZero() {
		holding.LastTransactionDate = sql.NullTime{Time: state.LastTransactionDate, Valid: true}
	}
	return holding
}

func ConvertHolding(dbHolding dbModel.Holding) model.LotState {
	state := model.LotState{
		PlatformID:       dbHolding.PlatformID,
		SecurityID:       dbHolding.SecurityID,
		Quantity:         dbHolding.Quantity,
		AverageCost:      dbHolding.AverageCost,
		RealizedGainLoss: dbHolding.RealizedGainLoss,
		DividendIncome:   dbHolding.DividendIncome,
		NeedsReview:      dbHolding.NeedsReview,
	}
	if dbHolding.LastTransactionDate.Valid {
		state.LastTransactionDate = dbHolding.LastTransactionDate.Time
	}
	return state
}
