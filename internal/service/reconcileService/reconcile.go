package reconcileService

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/internal/model/dbModel"
	"github.com/shubhamharia/investment-tracker/utils"
)

// Reconcile collapses duplicate platforms and securities created before
// identity normalization settled. Each duplicate group merges inside its own
// transaction: the oldest row survives, ledger rows are repointed to it, and
// the affected holdings are replayed from scratch. A group that cannot be
// merged safely is reported, not forced.
func (s *ReconcileService) Reconcile(ctx context.Context) (report model.MergeReport, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.Reconcile"

	report.StartedAt = time.Now().UTC()

	slog.Info("Reconcile start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		report.FinishedAt = time.Now().UTC()
		slog.Info("Reconcile finished", slog.String("rqID", rqID), slog.String("op", op),
			slog.Int("platformsMerged", report.PlatformsMerged),
			slog.Int("securitiesMerged", report.SecuritiesMerged),
			slog.Int("transactionsRepointed", report.TransactionsRepointed),
			slog.Int("skippedGroups", len(report.SkippedGroups)))
	}()

	touched := make(map[dbModel.KeyPair]struct{})

	if err = s.mergePlatforms(ctx, &report, touched); err != nil {
		slog.Error("got error from mergePlatforms", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.MergeReport{}, err
	}

	if err = s.mergeSecurities(ctx, &report, touched); err != nil {
		slog.Error("got error from mergeSecurities", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.MergeReport{}, err
	}

	for key := range touched {
		if err = s.rebuildHolding(ctx, key.PlatformID, key.SecurityID); err != nil {
			slog.Error("got error from rebuildHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.MergeReport{}, err
		}
	}

	return report, nil
}

func (s *ReconcileService) mergePlatforms(ctx context.Context, report *model.MergeReport, touched map[dbModel.KeyPair]struct{}) error {
	platforms, err := s.repo.GetAllPlatforms(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]dbModel.Platform)
	order := make([]string, 0)
	for _, p := range platforms {
		key := s.norm.Platform(p.Name + "_" + p.AccountType).Key
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		if reason := platformMergeBlocked(group); reason != "" {
			report.SkippedGroups = append(report.SkippedGroups, model.SkippedGroup{Key: key, Kind: "platform", Reason: reason})
			continue
		}

		// GetAllPlatforms orders by dt_create then id, so the canonical
		// row is simply the first.
		canonical := group[0]

		for _, dup := range group[1:] {
			err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
				repointed, err := s.repo.RepointTransactionsPlatform(ctx, dup.PlatformID, canonical.PlatformID)
				if err != nil {
					return err
				}
				report.TransactionsRepointed += int(repointed)

				if err := s.repo.DeleteHoldingsForPlatform(ctx, dup.PlatformID); err != nil {
					return err
				}

				return s.repo.DeletePlatform(ctx, dup.PlatformID)
			})
			if err != nil {
				return fmt.Errorf("merge platform %d into %d: %w", dup.PlatformID, canonical.PlatformID, err)
			}
			report.PlatformsMerged++
		}

		if err := s.markTouchedForPlatform(ctx, canonical.PlatformID, touched); err != nil {
			return err
		}
	}

	return nil
}

func (s *ReconcileService) mergeSecurities(ctx context.Context, report *model.MergeReport, touched map[dbModel.KeyPair]struct{}) error {
	securities, err := s.repo.GetAllSecurities(ctx)
	if err != nil {
		return err
	}

	groups := s.groupSecurities(securities)

	for _, group := range groups {
		if len(group.members) < 2 {
			continue
		}

		if reason := securityMergeBlocked(group.members); reason != "" {
			report.SkippedGroups = append(report.SkippedGroups, model.SkippedGroup{Key: group.key, Kind: "security", Reason: reason})
			continue
		}

		canonical := group.members[0]

		for _, dup := range group.members[1:] {
			err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
				repointed, err := s.repo.RepointTransactionsSecurity(ctx, dup.SecurityID, canonical.SecurityID)
				if err != nil {
					return err
				}
				report.TransactionsRepointed += int(repointed)

				if err := s.repo.DeleteHoldingsForSecurity(ctx, dup.SecurityID); err != nil {
					return err
				}

				if upgraded, ok := upgradeIdentity(canonical, dup); ok {
					if err := s.repo.UpdateSecurityIdentity(ctx, canonical.SecurityID, upgraded); err != nil {
						return err
					}
					canonical = upgraded
				}

				return s.repo.DeleteSecurity(ctx, dup.SecurityID)
			})
			if err != nil {
				return fmt.Errorf("merge security %d into %d: %w", dup.SecurityID, canonical.SecurityID, err)
			}
			report.SecuritiesMerged++
		}

		if err := s.markTouchedForSecurity(ctx, canonical.SecurityID, touched); err != nil {
			return err
		}
	}

	return nil
}

type securityGroup struct {
	key     string
	members []dbModel.Security
}

// groupSecurities buckets securities that are the same instrument. ISIN wins
// when present; rows without one fold into an ISIN group sharing their
// ticker and exchange, which is how a ticker-only import meets its later
// ISIN-bearing twin.
func (s *ReconcileService) groupSecurities(securities []dbModel.Security) []securityGroup {
	index := make(map[string]int)
	groups := make([]securityGroup, 0)

	symbolToGroup := make(map[string]string)

	add := func(key string, sec dbModel.Security) {
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, securityGroup{key: key})
		}
		groups[i].members = append(groups[i].members, sec)
	}

	for _, sec := range securities {
		if sec.ISIN == "" {
			continue
		}
		key := s.norm.Security(sec.Ticker, sec.Exchange, sec.ISIN)
		add(key, sec)
		if sec.Ticker != "" {
			symbolToGroup[s.norm.Security(sec.Ticker, sec.Exchange, "")] = key
		}
	}

	for _, sec := range securities {
		if sec.ISIN != "" {
			continue
		}
		symKey := s.norm.Security(sec.Ticker, sec.Exchange, "")
		if isinKey, ok := symbolToGroup[symKey]; ok {
			add(isinKey, sec)
			continue
		}
		add(symKey, sec)
	}

	// keep members oldest first inside each group
	for i := range groups {
		members := groups[i].members
		sort.SliceStable(members, func(a, b int) bool {
			if !members[a].CreatedAt.Equal(members[b].CreatedAt) {
				return members[a].CreatedAt.Before(members[b].CreatedAt)
			}
			return members[a].SecurityID < members[b].SecurityID
		})
	}

	return groups
}

// upgradeIdentity backfills identifiers the canonical row is missing from a
// duplicate that has them.
func upgradeIdentity(canonical, dup dbModel.Security) (dbModel.Security, bool) {
	changed := false
	if canonical.ISIN == "" && dup.ISIN != "" {
		canonical.ISIN = dup.ISIN
		changed = true
	}
	if canonical.YahooSymbol == "" && dup.YahooSymbol != "" {
		canonical.YahooSymbol = dup.YahooSymbol
		changed = true
	}
	if canonical.Exchange == "" && dup.Exchange != "" {
		canonical.Exchange = dup.Exchange
		changed = true
	}
	return canonical, changed
}

func platformMergeBlocked(group []dbModel.Platform) string {
	currency := group[0].Currency
	for _, p := range group[1:] {
		if p.Currency != currency {
			return fmt.Sprintf("platforms disagree on currency: %s vs %s", currency, p.Currency)
		}
	}
	return ""
}

func securityMergeBlocked(group []dbModel.Security) string {
	var isin string
	for _, sec := range group {
		if sec.ISIN == "" {
			continue
		}
		if isin == "" {
			isin = sec.ISIN
			continue
		}
		if sec.ISIN != isin {
			return fmt.Sprintf("securities disagree on ISIN: %s vs %s", isin, sec.ISIN)
		}
	}

	currency := ""
	for _, sec := range group {
		if sec.Currency == "" {
			continue
		}
		if currency == "" {
			currency = sec.Currency
			continue
		}
		if sec.Currency != currency {
			return fmt.Sprintf("securities disagree on currency: %s vs %s", currency, sec.Currency)
		}
	}

	return ""
}

func (s *ReconcileService) markTouchedForPlatform(ctx context.Context, platformID int64, touched map[dbModel.KeyPair]struct{}) error {
	keys, err := s.repo.GetActiveKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if key.PlatformID == platformID {
			touched[key] = struct{}{}
		}
	}
	return nil
}

func (s *ReconcileService) markTouchedForSecurity(ctx context.Context, securityID int64, touched map[dbModel.KeyPair]struct{}) error {
	keys, err := s.repo.GetActiveKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if key.SecurityID == securityID {
			touched[key] = struct{}{}
		}
	}
	return nil
}
