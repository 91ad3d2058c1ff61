package reconcileService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shubhamharia/investment-tracker/internal/lot"
	"github.com/shubhamharia/investment-tracker/internal/service"
	"github.com/shubhamharia/investment-tracker/utils"
)

// GenerateHoldingsReport renders the current holdings into a workbook and,
// when cloud storage is wired, uploads it and returns a share link.
func (s *ReconcileService) GenerateHoldingsReport(ctx context.Context) (fileBytes []byte, filename string, downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReconcileService.GenerateHoldingsReport"

	slog.Debug("GenerateHoldingsReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GenerateHoldingsReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	views, err := s.ListHoldings(ctx, nil)
	if err != nil {
		slog.Error("got error from ListHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	if len(views) == 0 {
		return nil, "", "", service.ErrEmptyPortfolio
	}

	summary := lot.Summarize(views)

	fileBytes, ext, err := s.reportGen.Generate(ctx, views, summary)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	filename = fmt.Sprintf("holdings_%s%s", time.Now().UTC().Format("2006-01-02"), ext)

	if s.cloudStorage == nil {
		return fileBytes, filename, "", nil
	}

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", "", err
	}

	return fileBytes, filename, downloadLink, nil
}
