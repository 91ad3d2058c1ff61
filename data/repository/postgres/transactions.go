package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shubhamharia/investment-tracker/data/repository"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
	"github.com/shubhamharia/investment-tracker/utils"
)

func (r *Postgres) InsertTransaction(ctx context.Context, txn dbModel.Transaction) (transactionID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertTransaction"
	query := `
		INSERT INTO transactions(platform_id, security_id, txn_type, trade_date, quantity, price, trading_fees, fx_fees, stamp_duty, tax_withheld, currency, fx_rate, fingerprint)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING transaction_id
		`

	slog.Debug("InsertTransaction start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		// a duplicate fingerprint is an expected outcome, not a failure
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error("InsertTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		txn.PlatformID,
		txn.SecurityID,
		txn.Type,
		txn.TradeDate,
		txn.Quantity,
		txn.Price,
		txn.TradingFees,
		txn.FxFees,
		txn.StampDuty,
		txn.TaxWithheld,
		txn.Currency,
		txn.FxRate,
		txn.Fingerprint,
	).Scan(&transactionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation on fingerprint
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return transactionID, nil
}

// GetTransactionsForKey returns every transaction of one lot, oldest first.
// Ties on trade_date break by transaction_id so replays are deterministic.
func (r *Postgres) GetTransactionsForKey(ctx context.Context, platformID, securityID int64) (txns []dbModel.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTransactionsForKey"
	query := `
		SELECT transaction_id, platform_id, security_id, txn_type, trade_date, quantity, price, trading_fees, fx_fees, stamp_duty, tax_withheld, currency, fx_rate, fingerprint, dt_create
		FROM transactions
		WHERE platform_id = $1 AND security_id = $2
		ORDER BY trade_date, transaction_id
		`

	slog.Debug("GetTransactionsForKey start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID), slog.Int64("securityID", securityID))
	defer func() {
		if err != nil {
			slog.Error("GetTransactionsForKey failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTransactionsForKey completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, platformID, securityID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var txn dbModel.Transaction
		err = rows.StructScan(&txn)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

// GetActiveKeys returns every distinct platform/security pair that has at
// least one transaction.
func (r *Postgres) GetActiveKeys(ctx context.Context) (keys []dbModel.KeyPair, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetActiveKeys"
	query := `
		SELECT DISTINCT platform_id, security_id
		FROM transactions
		ORDER BY platform_id, security_id
		`

	slog.Debug("GetActiveKeys start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetActiveKeys failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetActiveKeys completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var key dbModel.KeyPair
		err = rows.StructScan(&key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func (r *Postgres) RepointTransactionsPlatform(ctx context.Context, fromPlatformID, toPlatformID int64) (repointed int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.RepointTransactionsPlatform"
	query := `UPDATE transactions SET platform_id = $1 WHERE platform_id = $2`

	slog.Debug("RepointTransactionsPlatform start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("from", fromPlatformID), slog.Int64("to", toPlatformID))
	defer func() {
		if err != nil {
			slog.Error("RepointTransactionsPlatform failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("RepointTransactionsPlatform completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("repointed", repointed))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, toPlatformID, fromPlatformID)
	if err != nil {
		return 0, err
	}

	repointed, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return repointed, nil
}

func (r *Postgres) RepointTransactionsSecurity(ctx context.Context, fromSecurityID, toSecurityID int64) (repointed int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.RepointTransactionsSecurity"
	query := `UPDATE transactions SET security_id = $1 WHERE security_id = $2`

	slog.Debug("RepointTransactionsSecurity start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("from", fromSecurityID), slog.Int64("to", toSecurityID))
	defer func() {
		if err != nil {
			slog.Error("RepointTransactionsSecurity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("RepointTransactionsSecurity completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("repointed", repointed))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, toSecurityID, fromSecurityID)
	if err != nil {
		return 0, err
	}

	repointed, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return repointed, nil
}

func (r *Postgres) GetTransactionByID(ctx context.Context, transactionID int64) (txn dbModel.Transaction, err error) {
	query := `
		SELECT transaction_id, platform_id, security_id, txn_type, trade_date, quantity, price, trading_fees, fx_fees, stamp_duty, tax_withheld, currency, fx_rate, fingerprint, dt_create
		FROM transactions
		WHERE transaction_id = $1
		`

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, transactionID).StructScan(&txn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbModel.Transaction{}, repository.ErrNotFound
		}
		return dbModel.Transaction{}, err
	}

	return txn, nil
}

func (r *Postgres) DeleteTransaction(ctx context.Context, transactionID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteTransaction"
	query := `DELETE FROM transactions WHERE transaction_id = $1`

	slog.Debug("DeleteTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("transactionID", transactionID))
	defer func() {
		if err != nil {
			slog.Error("DeleteTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, transactionID)
	if err != nil {
		return err
	}

	return nil
}
