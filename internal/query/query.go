// Package query turns list/summary request parameters into a filter scoped to
// the caller, a page window and a sort order.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"FINTRACK_BACK-END/internal/normalize"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	DefaultSort  = "-date"

	typeAll = "all"
)

// Sortable fields accepted in a sort string
const (
	FieldDate      = "date"
	FieldMontant   = "montant"
	FieldType      = "type"
	FieldCategory  = "category"
	FieldReference = "reference"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var sortable = map[string]bool{
	FieldDate:      true,
	FieldMontant:   true,
	FieldType:      true,
	FieldCategory:  true,
	FieldReference: true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}

// Params holds the raw query string values of a list or summary request
type Params struct {
	Type      string
	Category  string
	StartDate string
	EndDate   string
	Freq      string
	Page      string
	Limit     string
	Sort      string
}

// ParamsFromValues reads Params from URL query values
func ParamsFromValues(v url.Values) Params {
	return Params{
		Type:      v.Get("type"),
		Category:  v.Get("category"),
		StartDate: v.Get("startDate"),
		EndDate:   v.Get("endDate"),
		Freq:      v.Get("freq"),
		Page:      v.Get("page"),
		Limit:     v.Get("limit"),
		Sort:      v.Get("sort"),
	}
}

// Filter selects the caller's transactions. Zero-valued fields do not filter.
type Filter struct {
	UserID   uuid.UUID
	Type     string
	Category string
	From     *time.Time
	To       *time.Time
}

// Page is the window of rows to return
type Page struct {
	Number int
	Limit  int
	Offset int
}

// Pages returns the number of pages needed to show total rows
func (p Page) Pages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / p.Limit
	if total%p.Limit != 0 {
		pages++
	}
	return pages
}

// SortField is one ORDER BY term
type SortField struct {
	Field string
	Desc  bool
}

// Query is the canonical form of a list request
type Query struct {
	Filter Filter
	Page   Page
	Sort   []SortField
}

// Builder builds queries. MaxLimit caps the page size when positive.
type Builder struct {
	MaxLimit int
}

// Build derives the filter, page and sort for a list request
func (b Builder) Build(p Params, userID uuid.UUID, now time.Time) (Query, error) {
	f, err := BuildFilter(p, userID, now)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Filter: f,
		Page:   b.page(p.Page, p.Limit),
		Sort:   ParseSort(p.Sort),
	}, nil
}

// BuildFilter derives only the filter; used by the summary where paging
// and ordering do not apply.
func BuildFilter(p Params, userID uuid.UUID, now time.Time) (Filter, error) {
	f := Filter{UserID: userID}

	if t := strings.ToLower(strings.TrimSpace(p.Type)); t != "" && t != typeAll {
		f.Type = t
	}
	if c := strings.ToLower(strings.TrimSpace(p.Category)); c != "" {
		f.Category = c
	}

	if freq := strings.ToLower(strings.TrimSpace(p.Freq)); freq != "" {
		from, err := freqStart(freq, now)
		if err != nil {
			return Filter{}, err
		}
		to := dateOf(now)
		f.From, f.To = &from, &to
		return f, nil
	}

	if p.StartDate != "" {
		if d, err := normalize.Date(p.StartDate); err == nil {
			f.From = &d
		}
	}
	if p.EndDate != "" {
		if d, err := normalize.Date(p.EndDate); err == nil {
			f.To = &d
		}
	}
	return f, nil
}

// InvalidFreqError is returned for an unknown freq window
type InvalidFreqError struct {
	Freq string
}

func (e *InvalidFreqError) Error() string {
	return fmt.Sprintf("invalid freq %q, expected 7d, 30d or 365d", e.Freq)
}

// freqStart returns the first calendar date whose midnight is not before
// the window start, so 7d spans seven dates ending today
func freqStart(freq string, now time.Time) (time.Time, error) {
	var start time.Time
	switch freq {
	case "7d", "7j":
		start = now.AddDate(0, 0, -7)
	case "30d", "30j":
		start = now.AddDate(0, -1, 0)
	case "365d", "365j":
		start = now.AddDate(-1, 0, 0)
	default:
		return time.Time{}, &InvalidFreqError{Freq: freq}
	}
	d := dateOf(start)
	if d.Before(start) {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (b Builder) page(rawPage, rawLimit string) Page {
	page := positiveOr(rawPage, DefaultPage)
	limit := positiveOr(rawLimit, DefaultLimit)
	if b.MaxLimit > 0 && limit > b.MaxLimit {
		limit = b.MaxLimit
	}
	return Page{Number: page, Limit: limit, Offset: offset(page, limit)}
}

// offset saturates at math.MaxInt so a huge page still lands past the last row
func offset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// ParseSort reads a sort string such as "-date montant". Fields are separated
// by spaces or commas and a leading '-' means descending. Unknown fields are
// skipped; if nothing usable remains the default "-date" applies.
func ParseSort(raw string) []SortField {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]SortField, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		desc := false
		switch {
		case strings.HasPrefix(f, "-"):
			desc, f = true, f[1:]
		case strings.HasPrefix(f, "+"):
			f = f[1:]
		}
		if !sortable[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, SortField{Field: f, Desc: desc})
	}
	if len(out) == 0 {
		return []SortField{{Field: FieldDate, Desc: true}}
	}
	return out
}
