// Package parse holds the locale-aware conversions shared by every source
// adapter. Publishers report numbers in Brazilian formatting (comma decimal
// separator, percent suffix) and dates either numerically (DD/MM/YYYY) or as
// Portuguese month names. All functions are pure.
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var monthNumbers = map[string]string{
	"janeiro": "01", "jan": "01",
	"fevereiro": "02", "fev": "02",
	"março": "03", "marco": "03", "mar": "03",
	"abril": "04", "abr": "04",
	"maio": "05", "mai": "05",
	"junho": "06", "jun": "06",
	"julho": "07", "jul": "07",
	"agosto": "08", "ago": "08",
	"setembro": "09", "set": "09",
	"outubro": "10", "out": "10",
	"novembro": "11", "nov": "11",
	"dezembro": "12", "dez": "12",
}

var (
	fullDatePattern  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})[/\-](\d{4})$`)
	namedPattern     = regexp.MustCompile(`(?i)^([a-zçáéíóúâêôãõ]+)[/\s]+(\d{4})$`)
	percentKeep      = regexp.MustCompile(`[^0-9,.\-]`)
)

// Percentage converts a locale-formatted percentage string to its decimal
// value. Everything but digits, comma, period and minus is stripped, and a
// comma decimal separator becomes a period. Unparseable input yields 0.
func Percentage(text string) float64 {
	value, err := Number(text)
	if err != nil {
		return 0
	}
	return value
}

// Number is the strict form of Percentage: same cleaning, but an
// unparseable remainder is reported instead of flattened to 0. Batch
// normalization uses this to skip bad records rather than ingest zeros.
func Number(text string) (float64, error) {
	clean := percentKeep.ReplaceAllString(text, "")
	clean = strings.ReplaceAll(clean, ",", ".")
	return strconv.ParseFloat(clean, 64)
}

// MonthPeriod converts a publisher date token to the canonical YYYY-MM
// period key. Accepted shapes: DD/MM/YYYY, MM/YYYY, MM-YYYY, MonthName/YYYY
// and MonthName YYYY, with Portuguese month names matched case-insensitively
// and without requiring accents. Returns ok=false when nothing matches.
func MonthPeriod(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return m[3] + "-" + pad2(m[2]), true
		}
		return "", false
	}

	if m := monthYearPattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		if month >= 1 && month <= 12 {
			return m[2] + "-" + pad2(m[1]), true
		}
		return "", false
	}

	if m := namedPattern.FindStringSubmatch(text); m != nil {
		if num, ok := monthNumber(m[1]); ok {
			return m[2] + "-" + num, true
		}
	}

	return "", false
}

// ReferenceDate converts a DD/MM/YYYY token to the standard YYYY-MM-DD form
// used as the key of dated scalar rates. Returns ok=false when the input is
// not a full date.
func ReferenceDate(text string) (string, bool) {
	m := fullDatePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1]), true
}

// AnnualEquivalent compounds a monthly percentage rate over twelve months:
// ((1 + monthly/100)^12 - 1) * 100.
func AnnualEquivalent(monthlyRatePercent float64) float64 {
	return (math.Pow(1+monthlyRatePercent/100, 12) - 1) * 100
}

// MonthNumber resolves a Portuguese month name or three-letter abbreviation
// to its zero-padded number.
func MonthNumber(name string) (string, bool) {
	return monthNumber(name)
}

func monthNumber(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if num, ok := monthNumbers[key]; ok {
		return num, true
	}
	if num, ok := monthNumbers[stripAccents(key)]; ok {
		return num, true
	}
	return "", false
}

func stripAccents(s string) string {
	replacer := strings.NewReplacer(
		"á", "a", "â", "a", "ã", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "ô", "o", "õ", "o",
		"ú", "u",
		"ç", "c",
	)
	return replacer.Replace(s)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
