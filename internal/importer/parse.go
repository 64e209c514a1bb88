// Package importer turns lead spreadsheets into leads and builds the sample
// template operators fill in.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"sales-dialer/internal/leads"

	"github.com/xuri/excelize/v2"
)

const msgMissingRequired = "Missing required fields: Name or Phone"

// Columns are matched case-insensitively against the header row.
var Columns = []string{"Name", "Phone", "Email", "Location", "Status", "Budget", "Priority", "Notes"}

// RowError reports a rejected row. Row is the 1-based sheet row.
type RowError struct {
	Row   int               `json:"row"`
	Data  map[string]string `json:"data"`
	Error string            `json:"error"`
}

// Parsed is the result of reading a workbook.
type Parsed struct {
	Valid   []leads.Lead
	Invalid []RowError
}

var ErrNoSheet = errors.New("workbook has no sheets")

// Parse reads the first sheet of an .xlsx workbook. The first row is the
// header; blank rows are skipped.
func Parse(r io.Reader) (Parsed, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Parsed{}, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Parsed{}, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Parsed{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var out Parsed
	if len(rows) == 0 {
		return out, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for i, cells := range rows[1:] {
		rec := record(header, cells)
		if len(rec) == 0 {
			continue
		}
		l, err := toLead(rec)
		if err != nil {
			out.Invalid = append(out.Invalid, RowError{Row: i + 2, Data: rec, Error: err.Error()})
			continue
		}
		out.Valid = append(out.Valid, l)
	}
	return out, nil
}

// record maps lowercase header names to trimmed non-empty cell values.
func record(header, cells []string) map[string]string {
	rec := map[string]string{}
	for i, c := range cells {
		if i >= len(header) || header[i] == "" {
			continue
		}
		if v := strings.TrimSpace(c); v != "" {
			rec[header[i]] = v
		}
	}
	return rec
}

func toLead(rec map[string]string) (leads.Lead, error) {
	name := rec["name"]
	rawPhone := rec["phone"]
	if name == "" || rawPhone == "" {
		return leads.Lead{}, errors.New(msgMissingRequired)
	}
	phone, err := leads.CleanPhone(rawPhone)
	if err != nil {
		return leads.Lead{}, err
	}

	l := leads.Lead{
		Name:     name,
		Phone:    phone,
		Email:    leads.CleanEmail(rec["email"]),
		Location: rec["location"],
		Status:   leads.NormalizeStatus(rec["status"]),
		Budget:   rec["budget"],
		Priority: leads.NormalizePriority(rec["priority"]),
		Source:   leads.SourceExcelImport,
		Notes:    rec["notes"],
	}
	if region := leads.PhoneRegion(phone); region != "" {
		l.Metadata = map[string]string{"region": region}
	}
	return l, nil
}
