package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed upload: the header row and every non-blank data row
// keyed by header.
type Table struct {
	Header []string
	Rows   []Row
}

type Format string

const (
	FormatSimple  Format = "simple"
	FormatShopify Format = "shopify"
)

// shopifyMarker is the description column of a Shopify product export.
const shopifyMarker = "Body (HTML)"

// DetectFormat picks the importer for a header row.
func DetectFormat(header []string) Format {
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), shopifyMarker) {
			return FormatShopify
		}
	}
	return FormatSimple
}

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")
)

// IsSpreadsheet reports whether the upload should be read as XLSX.
func IsSpreadsheet(name string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx") || bytes.HasPrefix(data, zipMagic)
}

// ReadTable parses an uploaded file. Errors wrap ErrUnreadable; an empty
// file gives an empty Table.
func ReadTable(name string, data []byte) (*Table, error) {
	var records [][]string
	var err error
	if IsSpreadsheet(name, data) {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return newTable(records), nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("file is not valid UTF-8")
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func newTable(records [][]string) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}
	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		t.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for _, record := range records[1:] {
		row := make(Row, len(t.Header))
		blank := true
		for i, v := range record {
			if i >= len(t.Header) || t.Header[i] == "" {
				continue
			}
			if _, dup := row[t.Header[i]]; dup {
				continue
			}
			row[t.Header[i]] = v
			if strings.TrimSpace(v) != "" {
				blank = false
			}
		}
		if !blank {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}
