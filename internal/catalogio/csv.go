package catalogio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// csvColumns are the recognized CSV columns in export order (spec §6.1).
// The J2000-survey spellings here are legacy column names distinct from
// the JSON field names of the same underlying data (ra_j2000/dec_j2000 are
// the sexagesimal text form, rad_j2000/dec_d_j2000 the degree form).
var csvColumns = []string{
	"identifier", "type", "morphology", "chinese_name", "constellation_en",
	"ra_j2000", "dec_j2000", "rad_j2000", "dec_d_j2000",
	"visual_magnitude_v", "click_count", "aliases",
}

// CSVOptions configures Import/ExportCSV (spec §6.1: "delimiter
// configurable... header row optional").
type CSVOptions struct {
	Delimiter rune
	Header    bool
}

// DefaultCSVOptions returns the spec's defaults: comma-delimited, header
// row present.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', Header: true}
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// ImportCSV reads rows from r and upserts each into store, by identifier.
// When opts.Header is false, columns are assumed to appear in csvColumns
// order; when true, the first row names the columns present (a subset of
// csvColumns, in any order).
func ImportCSV(ctx context.Context, r io.Reader, store Store, opts CSVOptions) (types.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.delimiter()
	reader.FieldsPerRecord = -1

	columns := csvColumns
	if opts.Header {
		header, err := reader.Read()
		if err == io.EOF {
			return types.ImportResult{}, nil
		}
		if err != nil {
			return types.ImportResult{}, fmt.Errorf("catalogio: read csv header: %w", err)
		}
		columns = make([]string, len(header))
		for i, h := range header {
			columns[i] = strings.TrimSpace(h)
		}
	}

	result := types.ImportResult{}
	lineNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("catalogio: read csv row %d: %w", lineNum, err)
		}
		lineNum++
		result.Total++

		obj, parseErr := decodeCSVRow(columns, row)
		if parseErr != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: lineNum, Record: strings.Join(row, ","), Message: parseErr.Error(),
			})
			continue
		}

		existing, err := store.FindByIdentifier(ctx, obj.Identifier)
		if err != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: lineNum, Record: obj.Identifier, Message: fmt.Sprintf("lookup existing record: %v", err),
			})
			continue
		}
		if existing != nil {
			obj.ID = existing.ID
			obj.CreatedAt = existing.CreatedAt
		}

		if err := store.Upsert(ctx, obj); err != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: lineNum, Record: obj.Identifier, Message: err.Error(),
			})
			continue
		}

		result.Success++
		if existing != nil {
			result.Duplicate++
		}
	}
	return result, nil
}

func decodeCSVRow(columns, row []string) (*types.CelestialObject, error) {
	obj := &types.CelestialObject{}
	idx := fieldIndex(bindFieldSpecs(obj))

	for i, raw := range row {
		if i >= len(columns) {
			break
		}
		col := normalizeKey(columns[i])
		if raw == "" {
			continue
		}
		if col == "aliases" {
			obj.Aliases = raw
			continue
		}
		set, ok := idx[col]
		if !ok {
			continue
		}
		if err := set(obj, raw); err != nil {
			return nil, fmt.Errorf("column %q: %w", columns[i], err)
		}
	}

	if obj.Identifier == "" {
		return nil, fmt.Errorf("missing required field identifier")
	}
	return obj, nil
}

// ExportCSV writes objs using csvColumns, honoring opts.Header and
// opts.Delimiter. Aliases are written as a single quoted comma-list
// (spec §6.1), reusing the repository's canonical comma-separated form
// rather than re-joining AliasList so a round trip is byte-stable.
func ExportCSV(w io.Writer, objs []*types.CelestialObject, opts CSVOptions) error {
	writer := csv.NewWriter(w)
	writer.Comma = opts.delimiter()

	if opts.Header {
		if err := writer.Write(csvColumns); err != nil {
			return fmt.Errorf("catalogio: write csv header: %w", err)
		}
	}
	for _, obj := range objs {
		row := []string{
			obj.Identifier, obj.Type, obj.Morphology, obj.ChineseName, obj.Constellation,
			obj.RAText, obj.DecText,
			strconv.FormatFloat(obj.RADeg, 'f', -1, 64),
			strconv.FormatFloat(obj.DecDeg, 'f', -1, 64),
			strconv.FormatFloat(obj.VisualMagnitude, 'f', -1, 64),
			strconv.FormatInt(obj.ClickCount, 10),
			obj.Aliases,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("catalogio: write csv row for %q: %w", obj.Identifier, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
