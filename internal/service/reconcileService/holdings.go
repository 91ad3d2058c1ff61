package reconcileService

import (
	"context"
	"log/slog"

	"github.com/shubhamharia/investment-tracker/internal/converter/dbConverter"
	"github.com/shubhamharia/investment-tracker/internal/lot"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
	"github.com/shubhamharia/investment-tracker/utils"
)

// ListHoldings joins stored lot states with cached quotes. Pass a nil
// platformID for the whole portfolio. Holdings without a usable quote come
// back with null market figures rather than being dropped. Fully sold
// positions stay out of the view: their rows persist for realized
// reporting (GetLotHistory), but a current-holdings listing shows only
// open lots.
func (s *ReconcileService) ListHoldings(ctx context.Context, platformID *int64) (views []model.HoldingView, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.ListHoldings"

	slog.Debug("ListHoldings start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ListHoldings finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(views)))
	}()

	holdings, err := s.repo.GetHoldings(ctx, platformID)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	if len(holdings) == 0 {
		return nil, nil
	}

	platforms, securities, err := s.loadDimensions(ctx)
	if err != nil {
		slog.Error("got error from loadDimensions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if sec, ok := securities[h.SecurityID]; ok && sec.YahooSymbol != "" {
			symbols = append(symbols, sec.YahooSymbol)
		}
	}

	quotes, err := s.cache.GetQuotes(ctx, symbols)
	if err != nil {
		// a dead cache degrades the view to unpriced, it does not fail it
		slog.Error("got error from cache.GetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		quotes = nil
		err = nil
	}

	views = make([]model.HoldingView, 0, len(holdings))
	for _, h := range holdings {
		dbPlatform, ok := platforms[h.PlatformID]
		if !ok {
			continue
		}
		dbSecurity, ok := securities[h.SecurityID]
		if !ok {
			continue
		}

		state := dbConverter.ConvertHolding(h)
		if !state.Open() {
			continue
		}

		var quote *model.Quote
		if dbSecurity.YahooSymbol != "" {
			if q, ok := quotes[dbSecurity.YahooSymbol]; ok {
				quote = &q
			}
		}

		views = append(views, lot.Project(
			dbConverter.ConvertPlatform(dbPlatform),
			dbConverter.ConvertSecurity(dbSecurity),
			state,
			quote,
		))
	}

	return views, nil
}

// PortfolioSummary aggregates every open holding into portfolio totals.
func (s *ReconcileService) PortfolioSummary(ctx context.Context) (model.PortfolioSummary, error) {
	views, err := s.ListHoldings(ctx, nil)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	return lot.Summarize(views), nil
}

func (s *ReconcileService) loadDimensions(ctx context.Context) (map[int64]dbModel.Platform, map[int64]dbModel.Security, error) {
	dbPlatforms, err := s.repo.GetAllPlatforms(ctx)
	if err != nil {
		return nil, nil, err
	}

	dbSecurities, err := s.repo.GetAllSecurities(ctx)
	if err != nil {
		return nil, nil, err
	}

	platforms := make(map[int64]dbModel.Platform, len(dbPlatforms))
	for _, p := range dbPlatforms {
		platforms[p.PlatformID] = p
	}

	securities := make(map[int64]dbModel.Security, len(dbSecurities))
	for _, sec := range dbSecurities {
		securities[sec.SecurityID] = sec
	}

	return platforms, securities, nil
}
