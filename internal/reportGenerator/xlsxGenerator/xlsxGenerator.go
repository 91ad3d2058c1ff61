package xlsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shubhamharia/investment-tracker/internal/model"
	"github.com/shubhamharia/investment-tracker/utils"
	"github.com/xuri/excelize/v2"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate renders one sheet per platform plus a summary sheet and returns
// the workbook bytes.
func (g *XLSXGenerator) Generate(ctx context.Context, views []model.HoldingView, summary model.PortfolioSummary) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	if len(views) == 0 {
		return nil, "", errors.New("empty holdings")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	byPlatform := groupByPlatform(views)

	for i, group := range byPlatform {
		err := g.fillSheet(ctx, f, group, i+1)
		if err != nil {
			return nil, "", err
		}
	}

	if err := g.fillSummarySheet(f, summary); err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

type platformGroup struct {
	platform model.Platform
	views    []model.HoldingView
}

// groupByPlatform keeps encounter order so sheets come out in the order
// holdings were listed.
func groupByPlatform(views []model.HoldingView) []platformGroup {
	index := make(map[int64]int)
	groups := make([]platformGroup, 0)

	for _, v := range views {
		i, ok := index[v.Platform.PlatformID]
		if !ok {
			i = len(groups)
			index[v.Platform.PlatformID] = i
			groups = append(groups, platformGroup{platform: v.Platform})
		}
		groups[i].views = append(groups[i].views, v)
	}

	return groups
}

func (g *XLSXGenerator) fillSheet(ctx context.Context, f *excelize.File, group platformGroup, ordinal int) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillSheet"

	sheetName := fmt.Sprintf("%d. %s %s", ordinal, group.platform.Name, group.platform.AccountType)
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	// position block
	err = f.MergeCell(sheetName, "A1", "D1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Position")

	styleID, err := headerStyle(f, "#cfe2f3")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "ticker")
	_ = f.SetCellStr(sheetName, "B2", "exchange")
	_ = f.SetCellStr(sheetName, "C2", "quantity")
	_ = f.SetCellStr(sheetName, "D2", "avg cost")

	// valuation block
	err = f.MergeCell(sheetName, "E1", "H1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "E1", "Valuation")

	styleID, err = headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "E1", "E1", styleID); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "E2", "price")
	_ = f.SetCellStr(sheetName, "F2", "market value")
	_ = f.SetCellStr(sheetName, "G2", "unrealized P/L")
	_ = f.SetCellStr(sheetName, "H2", "unrealized %")

	// income block
	err = f.MergeCell(sheetName, "I1", "K1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "I1", "Income")

	styleID, err = headerStyle(f, "#f9cb9c")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "I1", "I1", styleID); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "I2", "realized P/L")
	_ = f.SetCellStr(sheetName, "J2", "dividends")
	_ = f.SetCellStr(sheetName, "K2", "flags")

	for i, view := range group.views {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), view.Security.Ticker)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), view.Security.Exchange)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), view.Quantity.InexactFloat64())

		if view.AverageCost.Valid {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), view.AverageCost.Decimal.InexactFloat64())
		}

		if view.CurrentPrice.Valid {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), view.CurrentPrice.Decimal.InexactFloat64())
		} else {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), "n/a")
		}

		if view.MarketValue.Valid {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), view.MarketValue.Decimal.InexactFloat64())
		}

		if view.UnrealizedGainLoss.Valid {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), view.UnrealizedGainLoss.Decimal.InexactFloat64())
		}

		if view.UnrealizedGainLossPct.Valid {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), view.UnrealizedGainLossPct.Decimal.InexactFloat64())
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), view.RealizedGainLoss.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), view.DividendIncome.InexactFloat64())

		if view.NeedsReview {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("K%d", row), "needs review")
		}
	}

	return nil
}

func (g *XLSXGenerator) fillSummarySheet(f *excelize.File, summary model.PortfolioSummary) error {
	sheetName := "Summary"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	styleID, err := headerStyle(f, "#cccccc")
	if err != nil {
		return err
	}

	err = f.MergeCell(sheetName, "A1", "B1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Portfolio summary")

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("failed to apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "total value")
	_ = f.SetCellValue(sheetName, "B2", summary.TotalValue.InexactFloat64())
	_ = f.SetCellStr(sheetName, "A3", "total cost")
	_ = f.SetCellValue(sheetName, "B3", summary.TotalCost.InexactFloat64())
	_ = f.SetCellStr(sheetName, "A4", "total P/L")
	_ = f.SetCellValue(sheetName, "B4", summary.TotalGainLoss.InexactFloat64())
	_ = f.SetCellStr(sheetName, "A5", "total P/L %")
	_ = f.SetCellValue(sheetName, "B5", summary.TotalGainLossPct.InexactFloat64())
	_ = f.SetCellStr(sheetName, "A6", "unpriced holdings")
	_ = f.SetCellInt(sheetName, "B6", int64(summary.UnpricedHoldings))

	return nil
}

func headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}
