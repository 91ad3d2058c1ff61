package reconcileService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shubhamharia/investment-tracker/internal/externalApi"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/utils"
)

// RefreshQuotes pulls a fresh price for every quotable security and caches
// the batch. One bad symbol is logged and skipped so the rest of the
// portfolio still prices.
func (s *ReconcileService) RefreshQuotes(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.RefreshQuotes"

	slog.Debug("RefreshQuotes start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshQuotes finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	securities, err := s.repo.GetAllSecurities(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllSecurities", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	quotes := make([]model.Quote, 0, len(securities))
	for _, security := range securities {
		if security.YahooSymbol == "" {
			continue
		}

		quote, err := s.quoteApi.GetQuote(ctx, security.YahooSymbol)
		if err != nil {
			if errors.Is(err, externalApi.ErrNotFound) {
				slog.Warn("no quote for symbol", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", security.YahooSymbol))
				continue
			}
			slog.Error("got error from quoteApi.GetQuote", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", security.YahooSymbol), slog.String("err", err.Error()))
			continue
		}

		// cache under the symbol we query with, the provider may echo a
		// different casing
		quote.Ticker = security.YahooSymbol
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil
	}

	if err := s.cache.SetQuotes(ctx, quotes); err != nil {
		slog.Error("got error from cache.SetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("quotes refreshed", slog.String("rqID", rqID), slog.Int("quotes", len(quotes)))

	return nil
}
