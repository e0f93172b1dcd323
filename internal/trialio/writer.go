package trialio

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/trial-research/internal/model"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// sheetName is the worksheet written to XLSX output.
const sheetName = "Research"

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", eris.Errorf("trialio: unknown format %q (want csv or xlsx)", s)
	}
}

// FormatFromPath infers the format from the output path extension.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// WriteFile writes records to path in the given format. An empty result set
// writes nothing and returns false.
func WriteFile(path string, format Format, records []model.EnrichedRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	switch format {
	case FormatXLSX:
		if err := writeXLSX(path, records); err != nil {
			return false, err
		}
	default:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, records); err != nil {
			return false, err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return false, eris.Wrapf(err, "trialio: write %s", path)
		}
	}
	return true, nil
}

// WriteCSV encodes records with a header row.
func WriteCSV(w io.Writer, records []model.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := encodeRecords(cw, records); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "trialio: flush csv")
	}
	return nil
}

func writeXLSX(path string, records []model.EnrichedRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "trialio: add sheet")
	}
	if err := encodeRecords(&sheetWriter{sheet: sheet}, records); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "trialio: save %s", path)
	}
	return nil
}

func encodeRecords(w csvutil.Writer, records []model.EnrichedRecord) error {
	enc := csvutil.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return eris.Wrapf(err, "trialio: encode record %d", i)
		}
	}
	return nil
}

// sheetWriter adapts an XLSX sheet to the csvutil writer interface.
type sheetWriter struct {
	sheet *xlsx.Sheet
}

func (s *sheetWriter) Write(fields []string) error {
	row := s.sheet.AddRow()
	for _, v := range fields {
		row.AddCell().SetString(v)
	}
	return nil
}

// ReadEnrichedFile reads back a file produced by WriteFile.
func ReadEnrichedFile(path string) ([]model.EnrichedRecord, error) {
	var r csvutil.Reader
	if FormatFromPath(path) == FormatXLSX {
		f, err := xlsx.OpenFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "trialio: open %s", path)
		}
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("trialio: %s has no sheets", path)
		}
		var rows [][]string
		width := 0
		for _, row := range f.Sheets[0].Rows {
			if row == nil {
				continue
			}
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			if isBlank(cells) {
				continue
			}
			if width == 0 {
				width = len(cells)
			}
			rows = append(rows, cells)
		}
		r = &widthReader{r: &rowReader{rows: rows}, width: width}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "trialio: read %s", path)
		}
		r = csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	}

	dec, err := csvutil.NewDecoder(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "trialio: read header")
	}

	var out []model.EnrichedRecord
	for {
		var rec model.EnrichedRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "trialio: decode row %d", len(out)+2)
		}
		out = append(out, rec)
	}
	return out, nil
}
