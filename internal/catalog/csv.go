package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoRows is returned when an import source holds no usable phone rows.
var ErrNoRows = errors.New("catalog: no phone rows")

// Column order of the import file. An optional eleventh column overrides
// the derived image key.
const (
	colModel = iota
	colBrand
	colMarketName
	colMemory
	colFrontCamera
	colRearCamera
	colResolution
	colScreenSize
	colSellingPoint
	colPrice
	colImageKey
)

// ReadCSV parses an import file. The first row is a header. Rows whose model
// cell is blank are dropped and missing trailing cells read as "".
func ReadCSV(r io.Reader) ([]Phone, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var phones []Phone
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog row: %w", err)
		}
		if header {
			header = false
			continue
		}

		cell := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		model := cell(colModel)
		if model == "" {
			continue
		}
		p := Phone{
			Model:        model,
			Brand:        cell(colBrand),
			MarketName:   cell(colMarketName),
			Memory:       cell(colMemory),
			FrontCamera:  cell(colFrontCamera),
			RearCamera:   cell(colRearCamera),
			Resolution:   cell(colResolution),
			ScreenSize:   cell(colScreenSize),
			SellingPoint: cell(colSellingPoint),
			Price:        cell(colPrice),
			ImageKey:     cell(colImageKey),
		}
		if p.ImageKey == "" {
			p.ImageKey = ImageKey(model)
		}
		phones = append(phones, p)
	}

	if len(phones) == 0 {
		return nil, ErrNoRows
	}
	return phones, nil
}

// ReadFile opens path and parses it with ReadCSV. A UTF-8 byte order mark,
// as written by spreadsheet exports, is skipped.
func ReadFile(path string) ([]Phone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return ReadCSV(strings.NewReader(text))
}
