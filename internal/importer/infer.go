package importer

import (
	"regexp"
	"strings"
)

var isinLike = regexp.MustCompile(`^(IE|GB)[A-Z0-9]+$`)
var usCountry = regexp.MustCompile(`^[A-Z]{2}\d`)

// InferExchange guesses the listing exchange from the ticker shape. UK/Irish
// ISIN-style codes and ".L" suffixes land on LSE, plain US-style tickers on
// NASDAQ.
func InferExchange(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return ""
	}

	if isinLike.MatchString(t) || strings.HasSuffix(t, ".L") {
		return "LSE"
	}
	if !strings.Contains(t, ".") && !usCountry.MatchString(t) {
		return "NASDAQ"
	}
	if strings.HasPrefix(t, "GB") || strings.HasPrefix(t, "IE") {
		return "LSE"
	}
	return "NASDAQ"
}

// InferExchangeFromISIN prefers the ISIN country prefix over ticker shape.
func InferExchangeFromISIN(isin, ticker string) string {
	i := strings.ToUpper(strings.TrimSpace(isin))
	if i == "" {
		return InferExchange(ticker)
	}
	if strings.HasPrefix(i, "GB") || strings.HasPrefix(i, "IE") {
		return "LSE"
	}
	return "NASDAQ"
}

// InferInstrumentType tags funds by ticker keywords, everything else as stock.
func InferInstrumentType(ticker string) string {
	t := strings.ToUpper(ticker)
	for _, keyword := range []string{"ETF", "FUND", "INDEX"} {
		if strings.Contains(t, keyword) {
			return "ETF"
		}
	}
	return "STOCK"
}

// YahooSymbol converts a ticker to the symbol the quote provider expects.
// LSE listings carry a ".L" suffix; ISIN-only rows cannot be converted and
// return empty.
func YahooSymbol(ticker, exchange string) string {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return ""
	}

	if exchange == "LSE" {
		if strings.HasSuffix(strings.ToUpper(t), ".L") {
			return t
		}
		if isinLike.MatchString(strings.ToUpper(t)) {
			return ""
		}
		return t + ".L"
	}
	return t
}
