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

func (r *Postgres) InsertSecurity(ctx context.Context, security dbModel.Security) (securityID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertSecurity"
	query := `
		INSERT INTO securities(security_key, ticker, exchange, isin, currency, instrument_type, yahoo_symbol)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING security_id
		`

	slog.Debug("InsertSecurity start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", security.SecurityKey))
	defer func() {
		// losing an insert race is an expected outcome, not a failure
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error("InsertSecurity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertSecurity completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		security.SecurityKey,
		security.Ticker,
		security.Exchange,
		security.ISIN,
		security.Currency,
		security.InstrumentType,
		security.YahooSymbol,
	).Scan(&securityID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return securityID, nil
}

func (r *Postgres) GetSecurityByKey(ctx context.Context, key string) (security dbModel.Security, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetSecurityByKey"
	query := `
		SELECT security_id, security_key, ticker, exchange, isin, currency, instrument_type, yahoo_symbol, dt_create
		FROM securities
		WHERE security_key = $1
		`

	slog.Debug("GetSecurityByKey start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetSecurityByKey failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetSecurityByKey completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, key).StructScan(&security)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbModel.Security{}, repository.ErrNotFound
		}
		return dbModel.Security{}, err
	}

	return security, nil
}

func (r *Postgres) GetSecurityByID(ctx context.Context, securityID int64) (security dbModel.Security, err error) {
	query := `
		SELECT security_id, security_key, ticker, exchange, isin, currency, instrument_type, yahoo_symbol, dt_create
		FROM securities
		WHERE security_id = $1
		`

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, securityID).StructScan(&security)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbModel.Security{}, repository.ErrNotFound
		}
		return dbModel.Security{}, err
	}

	return security, nil
}

func (r *Postgres) GetAllSecurities(ctx context.Context) (securities []dbModel.Security, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAllSecurities"
	query := `
		SELECT security_id, security_key, ticker, exchange, isin, currency, instrument_type, yahoo_symbol, dt_create
		FROM securities
		ORDER BY dt_create, security_id
		`

	slog.Debug("GetAllSecurities start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetAllSecurities failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllSecurities completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var security dbModel.Security
		err = rows.StructScan(&security)
		if err != nil {
			return nil, err
		}
		securities = append(securities, security)
	}

	return securities, nil
}

// UpdateSecurityIdentity backfills ticker, exchange, isin and yahoo_symbol on the
// canonical row when a merged duplicate carried better identifiers.
func (r *Postgres) UpdateSecurityIdentity(ctx context.Context, securityID int64, security dbModel.Security) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateSecurityIdentity"
	query := `
		UPDATE securities
		SET
			ticker = $1,
			exchange = $2,
			isin = $3,
			yahoo_symbol = $4
		WHERE security_id = $5
		`

	slog.Debug("UpdateSecurityIdentity start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("securityID", securityID))
	defer func() {
		if err != nil {
			slog.Error("UpdateSecurityIdentity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateSecurityIdentity completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, security.Ticker, security.Exchange, security.ISIN, security.YahooSymbol, securityID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeleteSecurity(ctx context.Context, securityID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteSecurity"
	query := `DELETE FROM securities WHERE security_id = $1`

	slog.Debug("DeleteSecurity start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("securityID", securityID))
	defer func() {
		if err != nil {
			slog.Error("DeleteSecurity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteSecurity completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, securityID)
	if err != nil {
		return err
	}

	return nil
}
