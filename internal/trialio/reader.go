// Package trialio reads trial exports and writes enriched results as CSV or
// XLSX.
package trialio

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/trial-research/internal/model"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// headerAliases maps lower-cased export headers to TrialRecord csv tags.
var headerAliases = map[string]string{
	"company_name":                 "company_name",
	"company name":                 "company_name",
	"company / account":            "company_name",
	"company":                      "company_name",
	"email":                        "email",
	"contact email":                "email",
	"tier":                         "tier",
	"num_locations":                "num_locations",
	"declared number of locations": "num_locations",
	"declared locations":           "num_locations",
	"is_restaurant":                "is_restaurant",
	"is restaurant":                "is_restaurant",
	"place_ids":                    "place_ids",
	"location_place_ids":           "place_ids",
	"google_place_ids":             "place_ids",
	"locality":                     "locality",
	"city":                         "locality",
	"location":                     "locality",
}

// requiredColumns must be present after alias resolution.
var requiredColumns = []string{"company_name", "email", "tier", "num_locations", "is_restaurant"}

// ReadFile reads trial records from a .csv or .xlsx file.
func ReadFile(path string) ([]model.TrialRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "trialio: read %s", path)
	}
	return ReadCSV(bytes.NewReader(data))
}

// ReadCSV decodes trial records from CSV. Input that is not valid UTF-8 is
// decoded as Windows-1252.
func ReadCSV(r io.Reader) ([]model.TrialRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "trialio: read csv")
	}
	data, err = toUTF8(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true
	// Exports often drop trailing empty cells; widthReader evens rows out.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("trialio: input is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "trialio: read header")
	}
	return decodeTrials(&widthReader{r: cr, width: len(header)}, header)
}

// ReadXLSX reads trial records from the first sheet of an XLSX workbook.
func ReadXLSX(path string) ([]model.TrialRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "trialio: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("trialio: %s has no sheets", path)
	}

	var rows [][]string
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
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, eris.New("trialio: input is empty")
	}

	header := rows[0]
	return decodeTrials(&widthReader{r: &rowReader{rows: rows[1:]}, width: len(header)}, header)
}

func decodeTrials(r csvutil.Reader, rawHeader []string) ([]model.TrialRecord, error) {
	header, err := canonicalHeader(rawHeader)
	if err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return nil, eris.Wrap(err, "trialio: create decoder")
	}

	var out []model.TrialRecord
	for {
		var rec model.TrialRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "trialio: decode row %d", len(out)+2)
		}
		out = append(out, normalize(rec))
	}
	return out, nil
}

// canonicalHeader resolves aliases and checks required columns. Unknown
// columns pass through and are ignored by the decoder.
func canonicalHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, string(utf8BOM)))
		name := h
		if canon, ok := headerAliases[strings.ToLower(h)]; ok {
			name = canon
		}
		if seen[name] {
			zap.L().Debug("trialio: duplicate column ignored", zap.String("column", h))
			name = "_dup_" + strconv.Itoa(i) + "_" + name
		}
		seen[name] = true
		header[i] = name
	}

	var missing []string
	for _, col := range requiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("trialio: missing required columns: %s", strings.Join(missing, ", "))
	}
	return header, nil
}

func normalize(rec model.TrialRecord) model.TrialRecord {
	rec.CompanyName = strings.TrimSpace(rec.CompanyName)
	rec.Email = strings.TrimSpace(rec.Email)
	rec.Tier = strings.TrimSpace(rec.Tier)
	rec.DeclaredLocations = strings.TrimSpace(rec.DeclaredLocations)
	rec.IsRestaurant = strings.TrimSpace(rec.IsRestaurant)
	rec.Locality = strings.TrimSpace(rec.Locality)
	rec.PlaceIDs = ParsePlaceIDs(rec.PlaceIDsRaw)
	return rec
}

func toUTF8(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "trialio: decode windows-1252")
	}
	zap.L().Info("trialio: input decoded as windows-1252")
	return decoded, nil
}

// Window applies --start/--limit slicing. start is zero-based; limit <= 0
// means no limit.
func Window(records []model.TrialRecord, start, limit int) []model.TrialRecord {
	if start < 0 {
		start = 0
	}
	if start >= len(records) {
		return nil
	}
	records = records[start:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

// rowReader feeds spreadsheet rows to csvutil.
type rowReader struct {
	rows [][]string
	pos  int
}

func (r *rowReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

// widthReader pads short rows and cuts long rows to the header width.
type widthReader struct {
	r     csvutil.Reader
	width int
}

func (w *widthReader) Read() ([]string, error) {
	row, err := w.r.Read()
	if err != nil {
		return nil, err
	}
	if len(row) < w.width {
		padded := make([]string, w.width)
		copy(padded, row)
		row = padded
	}
	return row[:w.width], nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
