package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/shubhamharia/investment-tracker/config"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/utils"
)

const quoteKeyPrefix = "quote:"

// RedisCache keeps the latest known quote per ticker. A stale-but-present
// quote is better than blocking the projector on the oracle.
type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetQuotes start", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, quote := range quotes {
		quoteJson, err := json.Marshal(quote)
		if err != nil {
			slog.Error(
				"can't marshall quote in SetQuotes",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.Any("quote", quote),
			)
			return errors.New("can't marshall quote")
		}

		pipe.Set(ctx, quoteKeyPrefix+quote.Ticker, quoteJson, r.cfg.Cache.QuotesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetQuotes completed", slog.String("rqID", rqID))

	return nil
}

// GetQuotes returns every cached quote it can find; missing tickers are
// simply absent from the map, never an error.
func (r *RedisCache) GetQuotes(ctx context.Context, tickers []string) (map[string]model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetQuotes start", slog.String("rqID", rqID), slog.Int("tickers", len(tickers)))

	if len(tickers) == 0 {
		return map[string]model.Quote{}, nil
	}

	keys := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		keys = append(keys, quoteKeyPrefix+ticker)
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	quotes := make(map[string]model.Quote, len(tickers))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		quote := model.Quote{}
		if err := json.Unmarshal([]byte(raw), &quote); err != nil {
			slog.Error(
				"can't unmarshall quote in GetQuotes",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.String("resultFromRedis", raw),
			)
			continue
		}
		quotes[tickers[i]] = quote
	}

	slog.Debug("GetQuotes finished", slog.String("rqID", rqID), slog.Int("found", len(quotes)))

	return quotes, nil
}
