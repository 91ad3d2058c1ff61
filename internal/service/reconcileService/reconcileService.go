package reconcileService

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/shubhamharia/investment-tracker/config"
	"github.com/shubhamharia/investment-tracker/data/repository"
	"github.com/shubhamharia/investment-tracker/internal/converter/dbConverter"
	"github.com/shubhamharia/investment-tracker/internal/importer"
	"github.com/shubhamharia/investment-tracker/internal/ledger"
	"github.com/shubhamharia/investment-tracker/internal/lot"
	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
	"github.com/shubhamharia/investment-tracker/internal/normalizer"
	"github.com/shubhamharia/investment-tracker/internal/service"
	"github.com/shubhamharia/investment-tracker/utils"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error

	InsertPlatform(ctx context.Context, platform dbModel.Platform) (platformID int64, err error)
	GetPlatformByKey(ctx context.Context, key string) (dbModel.Platform, error)
	GetPlatformByID(ctx context.Context, platformID int64) (dbModel.Platform, error)
	GetAllPlatforms(ctx context.Context) ([]dbModel.Platform, error)
	UpdatePlatformFees(ctx context.Context, platformID int64, fees dbModel.Platform) error
	DeletePlatform(ctx context.Context, platformID int64) error

	InsertSecurity(ctx context.Context, security dbModel.Security) (securityID int64, err error)
	GetSecurityByKey(ctx context.Context, key string) (dbModel.Security, error)
	GetSecurityByID(ctx context.Context, securityID int64) (dbModel.Security, error)
	GetAllSecurities(ctx context.Context) ([]dbModel.Security, error)
	UpdateSecurityIdentity(ctx context.Context, securityID int64, security dbModel.Security) error
	DeleteSecurity(ctx context.Context, securityID int64) error

	InsertTransaction(ctx context.Context, txn dbModel.Transaction) (transactionID int64, err error)
	GetTransactionByID(ctx context.Context, transactionID int64) (dbModel.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID int64) error
	GetTransactionsForKey(ctx context.Context, platformID, securityID int64) ([]dbModel.Transaction, error)
	GetActiveKeys(ctx context.Context) ([]dbModel.KeyPair, error)
	RepointTransactionsPlatform(ctx context.Context, fromPlatformID, toPlatformID int64) (int64, error)
	RepointTransactionsSecurity(ctx context.Context, fromSecurityID, toSecurityID int64) (int64, error)

	UpsertHolding(ctx context.Context, holding dbModel.Holding) error
	GetHoldings(ctx context.Context, platformID *int64) ([]dbModel.Holding, error)
	DeleteHolding(ctx context.Context, platformID, securityID int64) error
	DeleteHoldingsForPlatform(ctx context.Context, platformID int64) error
	DeleteHoldingsForSecurity(ctx context.Context, securityID int64) error
}

type Cache interface {
	SetQuotes(ctx context.Context, quotes []model.Quote) error
	GetQuotes(ctx context.Context, tickers []string) (map[string]model.Quote, error)
}

type QuoteApi interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, views []model.HoldingView, summary model.PortfolioSummary) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type ReconcileService struct {
	repo         Repository
	cache        Cache
	quoteApi     QuoteApi
	reportGen    ReportGenerator
	cloudStorage CloudStorage // nil when uploads are disabled
	norm         *normalizer.Normalizer
	cfg          *config.Config
}

func New(repo Repository, cache Cache, quoteApi QuoteApi, reportGen ReportGenerator, cloudStorage CloudStorage, norm *normalizer.Normalizer, cfg *config.Config) *ReconcileService {
	return &ReconcileService{
		repo:         repo,
		cache:        cache,
		quoteApi:     quoteApi,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
		norm:         norm,
		cfg:          cfg,
	}
}

// preparedRecord is one import row after the parallel normalize stage.
type preparedRecord struct {
	rec         model.RawRecord
	txnType     model.TransactionType
	platform    normalizer.PlatformIdentity
	securityKey string
	exchange    string
	instrument  string
	yahooSymbol string
	err         error
}

// ImportTransactions ingests a CSV batch. Rows are normalized concurrently,
// then inserted oldest first so fold replays stay deterministic. A repeated
// row lands on the fingerprint unique constraint and counts as a duplicate,
// never an error.
func (s *ReconcileService) ImportTransactions(ctx context.Context, r io.Reader) (summary model.ImportSummary, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.ImportTransactions"

	slog.Debug("ImportTransactions start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ImportTransactions finished", slog.String("rqID", rqID), slog.String("op", op),
			slog.Int("accepted", summary.Accepted), slog.Int("duplicates", summary.Duplicates), slog.Int("failed", summary.Failed))
	}()

	records, failures, err := importer.ReadCSV(r)
	if err != nil {
		slog.Error("got error from importer.ReadCSV", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.ImportSummary{}, err
	}

	summary.Failures = failures
	summary.Failed = len(failures)

	prepared := s.prepareRecords(records)

	platforms := make(map[string]dbModel.Platform)
	securities := make(map[string]dbModel.Security)
	touched := make(map[dbModel.KeyPair]struct{})

	for _, p := range prepared {
		if p.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, model.ImportFailure{Line: p.rec.Line, Reason: p.err.Error()})
			continue
		}

		platform, ok := platforms[p.platform.Key]
		if !ok {
			platform, err = s.getOrCreatePlatform(ctx, p.platform)
			if err != nil {
				slog.Error("got error from getOrCreatePlatform", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
				return model.ImportSummary{}, err
			}
			platforms[p.platform.Key] = platform
		}

		security, ok := securities[p.securityKey]
		if !ok {
			security, err = s.getOrCreateSecurity(ctx, p)
			if err != nil {
				slog.Error("got error from getOrCreateSecurity", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
				return model.ImportSummary{}, err
			}
			securities[p.securityKey] = security
		}

		txn := s.buildTransaction(p, platform, security)

		_, err = s.repo.InsertTransaction(ctx, txn)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				summary.Duplicates++
				err = nil
				continue
			}
			slog.Error("got error from repo.InsertTransaction", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.ImportSummary{}, err
		}

		summary.Accepted++
		touched[dbModel.KeyPair{PlatformID: platform.PlatformID, SecurityID: security.SecurityID}] = struct{}{}
	}

	for key := range touched {
		if err = s.rebuildHolding(ctx, key.PlatformID, key.SecurityID); err != nil {
			slog.Error("got error from rebuildHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.ImportSummary{}, err
		}
	}

	return summary, nil
}

// prepareRecords runs validation and identity normalization over a worker
// pool. Output order matches input order.
func (s *ReconcileService) prepareRecords(records []model.RawRecord) []preparedRecord {
	prepared := make([]preparedRecord, len(records))

	workers := s.cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	wg := sync.WaitGroup{}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				prepared[i] = s.prepareRecord(records[i])
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return prepared
}

func (s *ReconcileService) prepareRecord(rec model.RawRecord) preparedRecord {
	p := preparedRecord{rec: rec}

	if err := ledger.Validate(rec); err != nil {
		p.err = err
		return p
	}

	p.txnType = ledger.NormalizeType(rec.Type)
	p.platform = s.norm.Platform(rec.Platform)
	p.exchange = importer.InferExchangeFromISIN(rec.ISIN, rec.Ticker)
	p.instrument = importer.InferInstrumentType(rec.Ticker)
	p.yahooSymbol = importer.YahooSymbol(rec.Ticker, p.exchange)
	p.securityKey = s.norm.Security(rec.Ticker, p.exchange, rec.ISIN)

	return p
}

func (s *ReconcileService) getOrCreatePlatform(ctx context.Context, identity normalizer.PlatformIdentity) (dbModel.Platform, error) {
	platform, err := s.repo.GetPlatformByKey(ctx, identity.Key)
	if err == nil {
		return platform, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return dbModel.Platform{}, err
	}

	fees := defaultFeeSchedule(identity.Name)
	candidate := dbModel.Platform{
		PlatformKey:     identity.Key,
		Name:            identity.Name,
		AccountType:     identity.AccountType,
		Currency:        fees.Currency,
		TradingFeePct:   fees.TradingFeePct,
		TradingFeeFixed: fees.TradingFeeFixed,
		FxFeePct:        fees.FxFeePct,
		StampDuty:       fees.StampDuty,
	}

	platformID, err := s.repo.InsertPlatform(ctx, candidate)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// lost an insert race, the row exists now
			return s.repo.GetPlatformByKey(ctx, identity.Key)
		}
		return dbModel.Platform{}, err
	}

	candidate.PlatformID = platformID
	return candidate, nil
}

func (s *ReconcileService) getOrCreateSecurity(ctx context.Context, p preparedRecord) (dbModel.Security, error) {
	security, err := s.repo.GetSecurityByKey(ctx, p.securityKey)
	if err == nil {
		return security, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return dbModel.Security{}, err
	}

	currency := p.rec.InstrumentCurrency
	if currency == "" {
		currency = p.rec.Currency
	}

	candidate := dbModel.Security{
		SecurityKey:    p.securityKey,
		Ticker:         p.rec.Ticker,
		Exchange:       p.exchange,
		ISIN:           p.rec.ISIN,
		Currency:       currency,
		InstrumentType: p.instrument,
		YahooSymbol:    p.yahooSymbol,
	}

	securityID, err := s.repo.InsertSecurity(ctx, candidate)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.repo.GetSecurityByKey(ctx, p.securityKey)
		}
		return dbModel.Security{}, err
	}

	candidate.SecurityID = securityID
	return candidate, nil
}

func (s *ReconcileService) buildTransaction(p preparedRecord, platform dbModel.Platform, security dbModel.Security) dbModel.Transaction {
	txnType := p.txnType

	quantity := p.rec.Quantity.Abs()
	if txnType == model.TransactionSell {
		quantity = quantity.Neg()
	}

	fees := computeFees(p.rec, platform, security, txnType)

	fxRate := p.rec.FxRate
	if fxRate.IsZero() {
		fxRate = oneDecimal
	}

	return dbModel.Transaction{
		PlatformID:  platform.PlatformID,
		SecurityID:  security.SecurityID,
		Type:        string(txnType),
		TradeDate:   p.rec.Date,
		Quantity:    quantity,
		Price:       p.rec.Price,
		TradingFees: fees.trading,
		FxFees:      fees.fx,
		StampDuty:   fees.stampDuty,
		TaxWithheld: p.rec.TaxWithheld,
		Currency:    platform.Currency,
		FxRate:      fxRate,
		Fingerprint: ledger.Fingerprint(platform.PlatformKey, security.SecurityKey, p.rec.Date, txnType, quantity, p.rec.Price),
	}
}

// rebuildHolding replays the full ledger of one key and overwrites the
// projection. A key left with no transactions loses its holdings row.
func (s *ReconcileService) rebuildHolding(ctx context.Context, platformID, securityID int64) error {
	dbTxns, err := s.repo.GetTransactionsForKey(ctx, platformID, securityID)
	if err != nil {
		return err
	}

	if len(dbTxns) == 0 {
		return s.repo.DeleteHolding(ctx, platformID, securityID)
	}

	txns := make([]model.Transaction, 0, len(dbTxns))
	for _, dbTxn := range dbTxns {
		txns = append(txns, dbConverter.ConvertTransaction(dbTxn))
	}

	state := lot.Fold(txns)
	state.PlatformID = platformID
	state.SecurityID = securityID

	return s.repo.UpsertHolding(ctx, dbConverter.ConvertLotState(state))
}

// RemoveTransaction deletes one ledger row as an explicit correction and
// replays the affected key.
func (s *ReconcileService) RemoveTransaction(ctx context.Context, transactionID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.RemoveTransaction"

	slog.Debug("RemoveTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("transactionID", transactionID))
	defer func() {
		slog.Debug("RemoveTransaction finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	txn, err := s.repo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.GetTransactionByID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := s.repo.DeleteTransaction(ctx, transactionID); err != nil {
		slog.Error("got error from repo.DeleteTransaction", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.rebuildHolding(ctx, txn.PlatformID, txn.SecurityID)
}

// UpdatePlatformFees replaces one platform's fee schedule. Fees already
// snapshotted into ledger rows keep their historical values.
func (s *ReconcileService) UpdatePlatformFees(ctx context.Context, platformID int64, fees model.Platform) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.UpdatePlatformFees"

	slog.Debug("UpdatePlatformFees start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID))
	defer func() {
		slog.Debug("UpdatePlatformFees finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if _, err := s.repo.GetPlatformByID(ctx, platformID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}

	err := s.repo.UpdatePlatformFees(ctx, platformID, dbModel.Platform{
		TradingFeePct:   fees.TradingFeePct,
		TradingFeeFixed: fees.TradingFeeFixed,
		FxFeePct:        fees.FxFeePct,
		StampDuty:       fees.StampDuty,
	})
	if err != nil {
		slog.Error("got error from repo.UpdatePlatformFees", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// GetLotHistory replays one key's ledger and returns the state after every
// event, oldest first.
func (s *ReconcileService) GetLotHistory(ctx context.Context, platformID, securityID int64) ([]model.LotState, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.GetLotHistory"

	slog.Debug("GetLotHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("platformID", platformID), slog.Int64("securityID", securityID))
	defer func() {
		slog.Debug("GetLotHistory finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	dbTxns, err := s.repo.GetTransactionsForKey(ctx, platformID, securityID)
	if err != nil {
		slog.Error("got error from repo.GetTransactionsForKey", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(dbTxns))
	for _, dbTxn := range dbTxns {
		txns = append(txns, dbConverter.ConvertTransaction(dbTxn))
	}

	return lot.History(txns), nil
}
