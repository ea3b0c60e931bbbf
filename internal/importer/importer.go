// Package importer loads user profiles and their dealbreakers from
// spreadsheets.
//
// The first row of every sheet is a header. Columns are matched by name, in
// any order, after normalizing ("Display Name" and "display_name" are the
// same column). Recognized columns:
//
//	id, display_name, age, latitude, longitude, height_cm, state,
//	gender, interested_in, min_age, max_age,
//	smoking, drinking, wants_kids, looking_for, education,
//	accept_smoking, accept_drinking, accept_wants_kids, accept_looking_for,
//	accept_education, max_age_difference, max_distance_km,
//	min_height_cm, max_height_cm
//
// display_name, age, latitude and longitude are required columns. A row
// with both latitude and longitude blank has no location. A blank id gets a
// generated UUID. accept_* and interested_in cells hold comma separated
// value lists.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/security"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/mroshb/match_engine/pkg/geo"
	"github.com/mroshb/match_engine/pkg/logger"
	"github.com/mroshb/match_engine/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// Sink persists imported profiles. Both the gorm store and the in-memory
// store satisfy it.
type Sink interface {
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	SaveDealbreakers(ctx context.Context, userID string, d models.Dealbreakers) error
}

// Record is one parsed spreadsheet row.
type Record struct {
	Sheet        string
	Row          int
	Profile      *models.UserProfile
	Dealbreakers models.Dealbreakers
}

// RowError describes a row that was skipped. Row is 1-based, as shown by
// spreadsheet applications.
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Report summarizes an import.
type Report struct {
	Imported int
	Errors   []RowError
}

var requiredColumns = []string{"display_name", "age", "latitude", "longitude"}

// ImportFile opens the workbook at path and imports every sheet into sink.
// Invalid rows are reported and skipped. The import stops with an error
// only when the file cannot be read or storage becomes unavailable.
func ImportFile(ctx context.Context, path string, sink Sink) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to open workbook")
	}
	defer f.Close()

	return Import(ctx, f, sink)
}

// Import imports every sheet of an open workbook into sink.
func Import(ctx context.Context, f *excelize.File, sink Sink) (*Report, error) {
	report := &Report{}
	seen := make(map[string]RowError)

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return report, errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("failed to read sheet %s", sheet))
		}

		records, rowErrs := ParseRows(sheet, rows)
		report.Errors = append(report.Errors, rowErrs...)
		logger.Info("Parsed sheet", "sheet", sheet, "records", len(records), "invalid", len(rowErrs))

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			if first, dup := seen[rec.Profile.ID]; dup {
				report.Errors = append(report.Errors, RowError{
					Sheet: rec.Sheet,
					Row:   rec.Row,
					Err:   errors.New(errors.ErrCodeAlreadyExists, fmt.Sprintf("duplicate id %q (first seen at %s row %d)", rec.Profile.ID, first.Sheet, first.Row)),
				})
				continue
			}
			seen[rec.Profile.ID] = RowError{Sheet: rec.Sheet, Row: rec.Row}

			if err := save(ctx, sink, rec); err != nil {
				if errors.HasCode(err, errors.ErrCodeStorageUnavailable) {
					return report, err
				}
				report.Errors = append(report.Errors, RowError{Sheet: rec.Sheet, Row: rec.Row, Err: err})
				continue
			}
			report.Imported++
		}
	}

	logger.Info("Import finished", "imported", report.Imported, "errors", len(report.Errors))
	return report, nil
}

func save(ctx context.Context, sink Sink, rec Record) error {
	if err := sink.SaveProfile(ctx, rec.Profile); err != nil {
		return err
	}
	return sink.SaveDealbreakers(ctx, rec.Profile.ID, rec.Dealbreakers)
}

// ParseRows converts the rows of one sheet into records. rows[0] must be the
// header. Fully blank rows are ignored.
func ParseRows(sheet string, rows [][]string) ([]Record, []RowError) {
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		if key := utils.NormalizeToken(name); key != "" {
			if _, dup := columns[key]; !dup {
				columns[key] = i
			}
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, []RowError{{
			Sheet: sheet,
			Row:   1,
			Err:   errors.New(errors.ErrCodeValidation, "missing columns: "+strings.Join(missing, ", ")),
		}}
	}

	var (
		records []Record
		rowErrs []RowError
	)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		r := rowReader{row: row, columns: columns}
		rec, err := r.record()
		if err != nil {
			rowErrs = append(rowErrs, RowError{Sheet: sheet, Row: i + 2, Err: err})
			continue
		}
		rec.Sheet = sheet
		rec.Row = i + 2
		records = append(records, rec)
	}
	return records, rowErrs
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	row     []string
	columns map[string]int
}

// cell returns the trimmed value of column name. excelize drops trailing
// empty cells, so short rows are normal.
func (r rowReader) cell(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r rowReader) record() (Record, error) {
	p := &models.UserProfile{
		ID:          r.cell("id"),
		DisplayName: security.CleanDisplayName(r.cell("display_name")),
		State:       models.ProfileStateActive,
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.DisplayName == "" {
		return Record{}, invalid("display_name is empty")
	}

	age, err := strconv.Atoi(r.cell("age"))
	if err != nil {
		return Record{}, invalid(fmt.Sprintf("age %q is not a number", r.cell("age")))
	}
	if !security.ValidateAge(age) {
		return Record{}, invalid(fmt.Sprintf("age %d is outside %d..%d", age, security.MinProfileAge, security.MaxProfileAge))
	}
	p.Age = age

	if err := r.location(p); err != nil {
		return Record{}, err
	}

	if p.HeightCm, err = optionalInt(r.cell("height_cm"), "height_cm"); err != nil {
		return Record{}, err
	}

	if state := utils.NormalizeToken(r.cell("state")); state != "" {
		p.State = state
	}

	p.Gender = utils.NormalizeToken(r.cell("gender"))
	p.InterestedIn = utils.SplitList(r.cell("interested_in"))
	if p.MinAge, err = optionalInt(r.cell("min_age"), "min_age"); err != nil {
		return Record{}, err
	}
	if p.MaxAge, err = optionalInt(r.cell("max_age"), "max_age"); err != nil {
		return Record{}, err
	}

	for _, c := range models.Categories() {
		v := utils.NormalizeToken(r.cell(string(c)))
		if v != "" && !models.IsKnownValue(c, v) {
			return Record{}, invalid(fmt.Sprintf("unknown %s value %q", c, v))
		}
		p.SetAttribute(c, v)
	}

	if err := p.Validate(); err != nil {
		return Record{}, errors.Wrap(err, errors.ErrCodeValidation, "invalid profile")
	}

	d, err := r.dealbreakers()
	if err != nil {
		return Record{}, err
	}
	p.Dealbreakers = d

	return Record{Profile: p, Dealbreakers: d}, nil
}

func (r rowReader) location(p *models.UserProfile) error {
	lat, lon := r.cell("latitude"), r.cell("longitude")
	if lat == "" && lon == "" {
		p.NoLocation = true
		return nil
	}

	var err error
	if p.Latitude, err = parseFloat(lat, "latitude"); err != nil {
		return err
	}
	if p.Longitude, err = parseFloat(lon, "longitude"); err != nil {
		return err
	}
	return geo.Validate(p.Coordinates())
}

func (r rowReader) dealbreakers() (models.Dealbreakers, error) {
	spec := models.DealbreakersSpec{Acceptable: make(map[models.Category][]string)}
	for _, c := range models.Categories() {
		if values := utils.SplitList(r.cell("accept_" + string(c))); len(values) > 0 {
			spec.Acceptable[c] = values
		}
	}

	var err error
	if spec.MaxAgeDifference, err = optionalInt(r.cell("max_age_difference"), "max_age_difference"); err != nil {
		return models.Dealbreakers{}, err
	}
	if spec.MinHeightCm, err = optionalInt(r.cell("min_height_cm"), "min_height_cm"); err != nil {
		return models.Dealbreakers{}, err
	}
	if spec.MaxHeightCm, err = optionalInt(r.cell("max_height_cm"), "max_height_cm"); err != nil {
		return models.Dealbreakers{}, err
	}
	if raw := r.cell("max_distance_km"); raw != "" {
		km, err := parseFloat(raw, "max_distance_km")
		if err != nil {
			return models.Dealbreakers{}, err
		}
		spec.MaxDistanceKm = &km
	}

	return models.NewDealbreakers(spec)
}

func parseFloat(raw, column string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(fmt.Sprintf("%s %q is not a number", column, raw))
	}
	return v, nil
}

func optionalInt(raw, column string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(fmt.Sprintf("%s %q is not a whole number", column, raw))
	}
	return &v, nil
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeValidation, msg)
}
