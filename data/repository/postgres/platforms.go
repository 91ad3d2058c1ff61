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

func (r *Postgres) InsertPlatform(ctx context.Context, platform dbModel.Platform) (platformID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertPlatform"
	query := `
		INSERT INTO platforms(platform_key, name, account_type, currency, trading_fee_pct, trading_fee_fixed, fx_fee_pct, stamp_duty)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING platform_id
		`

	slog.Debug("InsertPlatform start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", platform.PlatformKey))
	defer func() {
		// losing an insert race is an expected outcome, not a failure
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error("InsertPlatform failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertPlatform completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		platform.PlatformKey,
		platform.Name,
		platform.AccountType,
		platform.Currency,
		platform.TradingFeePct,
		platform.TradingFeeFixed,
		platform.FxFeePct,
		platform.StampDuty,
	).Scan(&platformID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return platformID, nil
}

func (r *Postgres) GetPlatformByKey(ctx context.Context, key string) (platform dbModel.Platform, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPlatformByKey"
	query := `
		SELECT platform_id, platform_key, name, account_type, currency, trading_fee_pct, trading_fee_fixed, fx_fee_pct, stamp_duty, dt_create
		FROM platforms
		WHERE platform_key = $1
		`

	slog.Debug("GetPlatformByKey start", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetPlatformByKey failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPlatformByKey completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, key).StructScan(&platform)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbModel.Platform{}, repository.ErrNotFound
		}
		return dbModel.Platform{}, err
	}

	return platform, nil
}

func (r *Postgres) GetAllPlatforms(ctx context.Context) (platforms []dbModel.Platform, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAllPlatforms"
	query := `
		SELECT platform_id, platform_key, name, account_type, currency, trading_fee_pct, trading_fee_fixed, fx_fee_pct, stamp_duty, dt_create
		FROM platforms
		ORDER BY dt_create, platform_id
		`

	slog.Debug("GetAllPlatforms start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetAllPlatforms failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllPlatforms completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var platform dbModel.Platform
		err = rows.StructScan(&platform)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}

	return platforms, nil
}

func (r *Postgres) GetPlatformByID(ctx context.Context, platformID int64) (platform dbModel.Platform, err error) {
	query := `
		SELECT platform_id, platform_key, name, account_type, currency, trading_fee_pct, trading_fee_fixed, fx_fee_pct, stamp_duty, dt_create
		FROM platforms
		WHERE platform_id = $1
		`

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, platformID).StructScan(&platform)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbModel.Platform{}, repository.ErrNotFound
		}
		return dbModel.Platform{}, err
	}

	return platform, nil
}

func (r *Postgres) UpdatePlatformFees(ctx context.Context, platformID int64, fees dbModel.Platform) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdatePlatformFees"
	query := `
		UPDATE platforms
		SET
			trading_fee_pct = $1,
			trading_fee_fixed = $2,
			fx_fee_pct = $3,
			stamp_duty = $4
		WHERE platform_id = $5
		`

	slog.Debug("UpdatePlatformFees start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID))
	defer func() {
		if err != nil {
			slog.Error("UpdatePlatformFees failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdatePlatformFees completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, fees.TradingFeePct, fees.TradingFeeFixed, fees.FxFeePct, fees.StampDuty, platformID)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) DeletePlatform(ctx context.Context, platformID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeletePlatform"
	query := `DELETE FROM platforms WHERE platform_id = $1`

	slog.Debug("DeletePlatform start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID))
	defer func() {
		if err != nil {
			slog.Error("DeletePlatform failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeletePlatform completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, platformID)
	if err != nil {
		return err
	}

	return nil
}
