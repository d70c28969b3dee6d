package autopilot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"equipflow/sei/internal/db"
)

// SourceCSVImport tags keywords enqueued from a keyword export.
const SourceCSVImport = "csv_import"

// Keyword is one unit of autopilot work.
type Keyword struct {
	Keyword string `json:"keyword"`
	Volume  int    `json:"volume"`
	KD      int    `json:"kd"`
}

// Header aliases of keyword exports.
var (
	keywordColumns = []string{"Keyword", "keyword"}
	volumeColumns  = []string{"Volume", "volume"}
	kdColumns      = []string{"KD", "Difficulty", "kd", "difficulty"}
)

// ReadCSV parses a keyword export with a header row. The keyword column is
// required; volume and difficulty default to 0 when absent or blank. Rows
// with an empty keyword are skipped.
func ReadCSV(r io.Reader) ([]Keyword, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	kwCol := column(header, keywordColumns)
	if kwCol < 0 {
		return nil, fmt.Errorf("no keyword column in header %v", header)
	}
	volCol, kdCol := column(header, volumeColumns), column(header, kdColumns)

	var out []Keyword
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		kw := strings.TrimSpace(field(rec, kwCol))
		if kw == "" {
			continue
		}
		vol, err := number(field(rec, volCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: volume: %w", line, err)
		}
		kd, err := number(field(rec, kdCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: kd: %w", line, err)
		}
		out = append(out, Keyword{Keyword: kw, Volume: vol, KD: kd})
	}
	return out, nil
}

// LoadCSV reads a keyword export from disk.
func LoadCSV(path string) ([]Keyword, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	kws, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kws, nil
}

// FromQueue returns up to limit unprocessed keywords, highest volume first.
func FromQueue(d *db.DB, limit int) ([]Keyword, error) {
	rows, err := d.NextKeywords(limit)
	if err != nil {
		return nil, err
	}
	out := make([]Keyword, 0, len(rows))
	for _, q := range rows {
		out = append(out, Keyword{Keyword: q.Keyword, Volume: q.Volume, KD: q.KD})
	}
	return out, nil
}

// Enqueue adds keywords to the intake queue, refreshing existing rows.
// Returns how many rows were inserted or refreshed.
func Enqueue(d *db.DB, kws []Keyword, source string) (int, error) {
	n := 0
	for _, kw := range kws {
		ok, err := d.EnqueueKeyword(db.QueuedKeyword{Keyword: kw.Keyword, Volume: kw.Volume, KD: kw.KD, Source: source}, true)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func column(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// number parses an integer cell, tolerating blanks and thousands separators.
func number(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// exports sometimes write whole numbers as "1200.0"
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		if n, err := strconv.Atoi(whole); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("invalid number %q", s)
}
