// Package normalize coerces loosely typed request values into the canonical
// date and amount representations stored for a transaction. Create, update
// and the list filters all go through it so the same rules apply everywhere.
package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// DayMonthYear is the layout clients are expected to send
const DayMonthYear = "DD-MM-YYYY"

var strictDate = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// Date parses input into a calendar date at midnight UTC.
// DD-MM-YYYY is always read as day first; any other shape goes through a
// generic parser and keeps the calendar day written by the caller.
func Date(input string) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if strictDate.MatchString(s) {
		parts := strings.Split(s, "-")
		day, _ := strconv.Atoi(parts[0])
		month, _ := strconv.Atoi(parts[1])
		year, _ := strconv.Atoi(parts[2])
		return calendarDate(year, month, day)
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	y, m, d := t.Date()
	if y < minYear {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// minYear is the first year SQL DATE columns accept
const minYear = 1

// calendarDate rejects values that time.Date would silently roll over
func calendarDate(year, month, day int) (time.Time, error) {
	if year < minYear || month < 1 || month > 12 || day < 1 {
		return time.Time{}, ErrInvalidDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Amount accepts a JSON number or a numeric string; in a string a comma is
// read as the decimal separator. The sign is not checked here.
func Amount(input any) (decimal.Decimal, error) {
	switch v := input.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, ErrInvalidAmount
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		return Amount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return parseAmount(v.String())
	case decimal.Decimal:
		return v, nil
	case string:
		return parseAmount(v)
	default:
		return decimal.Zero, ErrInvalidAmount
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
