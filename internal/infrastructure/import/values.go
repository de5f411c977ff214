package csvimport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText folds case and strips accents: "Depósito " becomes "deposito"
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

var nonNumeric = regexp.MustCompile(`[^0-9,.\-]`)

// ParseDecimal reads amounts written either way: "1.234,56", "1,234.56",
// "R$ 99,90" or "99.9". When both separators appear the last one is the decimal
// point; a lone comma is always decimal. Empty input is zero.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		if strings.TrimSpace(raw) == "" {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}

	comma, dot := strings.LastIndex(cleaned, ","), strings.LastIndex(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

var (
	isoDate    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	brDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	serialDate = regexp.MustCompile(`^\d{5}$`)
	excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// minExcelSerial is 1954-10-03; smaller numbers are more likely typos than dates
const minExcelSerial = 20000

// ParseFlexibleDate accepts YYYY-MM-DD, DD/MM/YYYY, DD/MM/YY (20YY) and Excel
// serial day numbers. Empty input returns the zero time and no error.
func ParseFlexibleDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}

	var year, month, day int
	switch {
	case isoDate.MatchString(s):
		m := isoDate.FindStringSubmatch(s)
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case brDate.MatchString(s):
		m := brDate.FindStringSubmatch(s)
		day, month, year = atoi(m[1]), atoi(m[2]), atoi(m[3])
		if year < 100 {
			year += 2000
		}
	case serialDate.MatchString(s):
		serial := atoi(s)
		if serial < minExcelSerial {
			return time.Time{}, fmt.Errorf("not a date: %q", raw)
		}
		return excelEpoch.AddDate(0, 0, serial), nil
	default:
		return time.Time{}, fmt.Errorf("not a date: %q", raw)
	}

	t := shared.Date(year, time.Month(month), day)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("not a calendar date: %q", raw)
	}
	return t, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// paymentKeywords are matched in order against the normalized column value
var paymentKeywords = []struct {
	keywords []string
	method   finance.PaymentMethod
}{
	{[]string{"pix"}, finance.PaymentMethodPix},
	{[]string{"deposito", "deposit", "transferencia"}, finance.PaymentMethodDeposit},
	{[]string{"debito", "debit"}, finance.PaymentMethodDebit},
	{[]string{"credito", "credit", "cartao"}, finance.PaymentMethodCredit},
	{[]string{"boleto"}, finance.PaymentMethodBoleto},
}

// MapPaymentMethod maps free text such as "Cartão de Crédito" onto a payment
// method. Anything unrecognized, including empty text, is a boleto.
func MapPaymentMethod(raw string) finance.PaymentMethod {
	text := NormalizeText(raw)
	if text == "" {
		return finance.PaymentMethodBoleto
	}
	if m, err := finance.ParsePaymentMethod(text); err == nil {
		return m
	}
	for _, pk := range paymentKeywords {
		for _, kw := range pk.keywords {
			if strings.Contains(text, kw) {
				return pk.method
			}
		}
	}
	return finance.PaymentMethodBoleto
}
