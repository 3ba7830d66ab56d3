// Package sheets reads spreadsheet CSV exports and turns their cells into values.
//
// Rows are mapped by column position, not by header name. A source sheet that
// gains, loses or reorders a column shifts every field after it, so callers
// compare the header against the labels they expect with CheckHeader and log
// the drift.
package sheets

import (
	"strconv"
	"strings"
)

// ParseLine splits a single CSV line. A double quote toggles the in-quotes
// state and a comma only separates fields outside quotes. Inside quotes a
// doubled quote is kept as one literal quote. Fields are trimmed.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// Parse splits CSV text into rows. Newlines inside a quoted field stay part of
// the field. Blank lines are skipped. The header row is included.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		line     strings.Builder
		inQuotes bool
	)

	flush := func() {
		l := line.String()
		line.Reset()
		if strings.TrimSpace(l) == "" {
			return
		}
		rows = append(rows, ParseLine(l))
	}

	for _, ch := range text {
		switch ch {
		case '"':
			inQuotes = !inQuotes
			line.WriteRune(ch)
		case '\r':
			// dropped; CRLF exports end up as LF
		case '\n':
			if inQuotes {
				line.WriteRune(ch)
				continue
			}
			flush()
		default:
			line.WriteRune(ch)
		}
	}
	flush()

	return rows
}

// Rows returns the data rows of text, discarding the header.
func Rows(text string) [][]string {
	rows := Parse(text)
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

// Header returns the first row of text, or nil.
func Header(text string) []string {
	rows := Parse(text)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// Cell returns row[i], or "" when the row is too short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// CheckHeader compares header labels at the positions the caller maps against
// the labels it expects. Matching is case-insensitive and ignores surrounding
// space. It returns one message per mismatch, in column order.
func CheckHeader(header []string, want map[int]string) []string {
	var drift []string
	maxCol := -1
	for col := range want {
		if col > maxCol {
			maxCol = col
		}
	}
	for col := 0; col <= maxCol; col++ {
		label, ok := want[col]
		if !ok {
			continue
		}
		got := Cell(header, col)
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(label)) {
			drift = append(drift, "column "+strconv.Itoa(col)+": want "+strconv.Quote(label)+", got "+strconv.Quote(got))
		}
	}
	return drift
}
