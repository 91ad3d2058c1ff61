package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/shubhamharia/investment-tracker/config"
	"github.com/shubhamharia/investment-tracker/internal/externalApi"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/yahooModel"
	"github.com/shubhamharia/investment-tracker/utils"
)

var pencePerPound = decimal.NewFromInt(100)

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuoteApi.Url).
		SetRetryCount(cfg.API.QuoteApi.RetryCount).
		SetRetryWaitTime(cfg.API.QuoteApi.RetryWait).
		SetRetryMaxWaitTime(cfg.API.QuoteApi.RetryMax).
		SetHeader("User-Agent", "Mozilla/5.0 (investment-tracker)")
	return &YahooApi{client: client}
}

// GetQuote fetches the latest market price for one symbol. LSE quotes come
// back in pence and are converted to pounds.
func (a *YahooApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v8/finance/chart/%s", symbol)
	params := map[string]string{
		"interval": "1d",
		"range":    "1d",
	}

	slog.Debug("start YahooApi.GetQuote request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return model.Quote{}, externalApi.ErrNotFound
	}

	rawChart := yahooModel.RawChartResponse{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.RawChartResponse", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	quote, err := a.parseRawChart(rawChart)
	if err != nil {
		slog.Error("can't parse raw chart data", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return model.Quote{}, err
	}

	slog.Debug("YahooApi.GetQuote request complete", slog.String("rqID", rqId))

	return quote, nil
}

func (a *YahooApi) parseRawChart(rawChart yahooModel.RawChartResponse) (model.Quote, error) {
	if rawChart.Chart.Error != nil {
		if rawChart.Chart.Error.Code == "Not Found" {
			return model.Quote{}, externalApi.ErrNotFound
		}
		return model.Quote{}, fmt.Errorf("chart error %s: %s", rawChart.Chart.Error.Code, rawChart.Chart.Error.Description)
	}

	if len(rawChart.Chart.Result) == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	meta := rawChart.Chart.Result[0].Meta
	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	if meta.Currency == "GBp" {
		price = price.Div(pencePerPound)
	}

	return model.Quote{
		Ticker: meta.Symbol,
		Price:  price,
		AsOf:   time.Unix(meta.RegularMarketTime, 0).UTC(),
	}, nil
}
