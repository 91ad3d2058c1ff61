package postgres

import (
	"context"
	"log/slog"

	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
	"github.com/shubhamharia/investment-tracker/utils"
)

func (r *Postgres) UpsertHolding(ctx context.Context, holding dbModel.Holding) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpsertHolding"
	query := `
		INSERT INTO holdings(platform_id, security_id, quantity, average_cost, realized_gain_loss, dividend_income, last_txn_date, needs_review, dt_update)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (platform_id, security_id) DO UPDATE
		SET
			quantity = EXCLUDED.quantity,
			average_cost = EXCLUDED.average_cost,
			realized_gain_loss = EXCLUDED.realized_gain_loss,
			dividend_income = EXCLUDED.dividend_income,
			last_txn_date = EXCLUDED.last_txn_date,
			needs_review = EXCLUDED.needs_review,
			dt_update = now()
		`

	slog.Debug("UpsertHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", holding.PlatformID), slog.Int64("securityID", holding.SecurityID))
	defer func() {
		if err != nil {
			slog.Error("UpsertHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(
		ctx,
		query,
		holding.PlatformID,
		holding.SecurityID,
		holding.Quantity,
		holding.AverageCost,
		holding.RealizedGainLoss,
		holding.DividendIncome,
		holding.LastTransactionDate,
		holding.NeedsReview,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetHoldings returns all holdings, or only those of one platform when
// platformID is non-nil.
func (r *Postgres) GetHoldings(ctx context.Context, platformID *int64) (holdings []dbModel.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldings"
	query := `
		SELECT platform_id, security_id, quantity, average_cost, realized_gain_loss, dividend_income, last_txn_date, needs_review, dt_update
		FROM holdings
		WHERE $1::bigint IS NULL OR platform_id = $1
		ORDER BY platform_id, security_id
		`

	slog.Debug("GetHoldings start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, platformID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var holding dbModel.Holding
		err = rows.StructScan(&holding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, holding)
	}

	return holdings, nil
}

func (r *Postgres) DeleteHolding(ctx context.Context, platformID, securityID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHolding"
	query := `DELETE FROM holdings WHERE platform_id = $1 AND security_id = $2`

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID), slog.Int64("securityID", securityID))
	defer func() {
		if err != nil {
			slog.Error("DeleteHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, platformID, securityID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeleteHoldingsForPlatform(ctx context.Context, platformID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHoldingsForPlatform"
	query := `DELETE FROM holdings WHERE platform_id = $1`

	slog.Debug("DeleteHoldingsForPlatform start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID))
	defer func() {
		if err != nil {
			slog.Error("DeleteHoldingsForPlatform failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHoldingsForPlatform completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, platformID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeleteHoldingsForSecurity(ctx context.Context, securityID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHoldingsForSecurity"
	query := `DELETE FROM holdings WHERE security_id = $1`

	slog.Debug("DeleteHoldingsForSecurity start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("securityID", securityID))
	defer func() {
		if err != nil {
			slog.Error("DeleteHoldingsForSecurity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHoldingsForSecurity completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, securityID)
	if err != nil {
		return err
	}

	return nil
}
