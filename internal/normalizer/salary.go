package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/davidtran/jobpilot/internal/domain"
)

const million = 1_000_000

var (
	numberRe        = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	thousandSepRe   = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
	negotiableWords = []string{
		"thỏa thuận", "thoả thuận", "thoa thuan", "negotiable", "cạnh tranh", "canh tranh", "competitive",
	}
	millionWords = []string{"triệu", "trieu", " tr"}
	ceilingWords = []string{
		"up to", "under", "tối đa", "toi da", "đến", "den", "tới", "toi",
		"lên đến", "len den", "dưới", "duoi", "max",
	}
)

// Salary parses a raw salary string into a canonical range. It never fails:
// empty or negotiable input yields a zero range with a detected currency.
//
// Heuristics, preserved from observed listing data:
//   - currency detected from symbols/codes, defaulting to VND
//   - a million-unit word ("triệu") multiplies small VND amounts (< 1000)
//   - a single number is a ceiling only when a qualifier word says so,
//     otherwise it is treated as the floor
func Salary(raw string) domain.SalaryRange {
	lower := strings.ToLower(strings.TrimSpace(raw))
	currency := detectCurrency(lower)

	if lower == "" || isNegotiable(lower) {
		return domain.SalaryRange{Min: 0, Max: 0, Currency: currency}
	}

	tokens := numberRe.FindAllString(lower, 2)
	if len(tokens) == 0 {
		return domain.SalaryRange{Min: 0, Max: 0, Currency: currency}
	}

	applyMillions := currency == "VND" && containsAny(lower, millionWords)
	values := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		v := parseAmount(tok)
		if applyMillions && v < 1000 {
			v *= million
		}
		values = append(values, int64(v))
	}

	if len(values) >= 2 {
		min, max := values[0], values[1]
		if min > max {
			min, max = max, min
		}
		return domain.SalaryRange{Min: min, Max: max, Currency: currency}
	}

	if containsAny(lower, ceilingWords) {
		return domain.SalaryRange{Min: 0, Max: values[0], Currency: currency}
	}
	return domain.SalaryRange{Min: values[0], Max: 0, Currency: currency}
}

func detectCurrency(lower string) string {
	switch {
	case strings.Contains(lower, "$") || strings.Contains(lower, "usd"):
		return "USD"
	case strings.Contains(lower, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(lower, "¥") || strings.Contains(lower, "jpy") || strings.Contains(lower, "yen"):
		return "JPY"
	default:
		return "VND"
	}
}

func isNegotiable(lower string) bool {
	return containsAny(lower, negotiableWords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// parseAmount converts a numeric token to a float, treating "." or "," groups
// of three digits as thousand separators and a trailing "," as a decimal
// point otherwise.
func parseAmount(tok string) float64 {
	if thousandSepRe.MatchString(tok) {
		tok = strings.NewReplacer(".", "", ",", "").Replace(tok)
	} else {
		tok = strings.ReplaceAll(tok, ",", ".")
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0
	}
	return v
}
