package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"presscount/internal/domain"
	"presscount/internal/series"
	"presscount/internal/util"
)

// Column names expected in the source header (matched case-insensitively).
const (
	ColDate      = "Date"
	ColNewspaper = "Newspaper"
	ColCount     = "ArticleCount"
)

// ParseError reports a malformed value in the source CSV.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var dateLayouts = []string{
	util.DateLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var namePolicy = bluemonday.StrictPolicy()

// ParseCSV reads observations from r. The header must contain the Date,
// Newspaper and ArticleCount columns; other columns are ignored. Any
// malformed row fails the whole parse with a *ParseError. An input with no
// data rows returns series.ErrEmptyInput.
func ParseCSV(r io.Reader) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, series.ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	var obs []domain.Observation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if isBlank(row) {
			continue
		}

		o, err := parseRow(row, idx, line)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, series.ErrEmptyInput
	}
	return obs, nil
}

// ParseBytes is ParseCSV over an in-memory document.
func ParseBytes(data []byte) ([]domain.Observation, error) {
	// Strip a UTF-8 BOM some spreadsheet exports prepend to the header.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return ParseCSV(bytes.NewReader(data))
}

type columns struct {
	date, group, count int
}

func columnIndex(header []string) (columns, error) {
	idx := columns{date: -1, group: -1, count: -1}
	for i, h := range header {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), ColDate):
			idx.date = i
		case strings.EqualFold(strings.TrimSpace(h), ColNewspaper):
			idx.group = i
		case strings.EqualFold(strings.TrimSpace(h), ColCount):
			idx.count = i
		}
	}

	var missing []string
	if idx.date < 0 {
		missing = append(missing, ColDate)
	}
	if idx.group < 0 {
		missing = append(missing, ColNewspaper)
	}
	if idx.count < 0 {
		missing = append(missing, ColCount)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing column(s) %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx columns, line int) (domain.Observation, error) {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rawDate := field(idx.date)
	day, err := ParseDay(rawDate)
	if err != nil {
		return domain.Observation{}, &ParseError{Line: line, Column: ColDate, Value: rawDate, Err: err}
	}

	rawGroup := field(idx.group)
	group := CleanName(rawGroup)
	if group == "" {
		return domain.Observation{}, &ParseError{Line: line, Column: ColNewspaper, Value: rawGroup, Err: errors.New("empty newspaper name")}
	}

	rawCount := field(idx.count)
	count, err := parseCount(rawCount)
	if err != nil {
		return domain.Observation{}, &ParseError{Line: line, Column: ColCount, Value: rawCount, Err: err}
	}

	return domain.Observation{Group: group, Day: day, Count: count}, nil
}

// ParseDay parses a date in any of the accepted layouts and truncates it to
// the calendar day.
func ParseDay(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return util.Day(t), nil
		}
	}
	return time.Time{}, errors.New("unrecognised date")
}

var errCountRange = errors.New("count out of range")

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		if n < 0 {
			return 0, errors.New("negative count")
		}
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errCountRange
	}

	// Exports that went through a float column write "12.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a number")
	}
	if f != math.Trunc(f) {
		return 0, errors.New("not a whole number")
	}
	if f < 0 {
		return 0, errors.New("negative count")
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 {
		return 0, errCountRange
	}
	return int64(f), nil
}

// CleanName strips markup and collapses whitespace in a newspaper name.
func CleanName(s string) string {
	s = namePolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
