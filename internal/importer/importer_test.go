package importer

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/repositories/memstore"
	"github.com/mroshb/match_engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{
	"ID", "Display Name", "Age", "Latitude", "Longitude", "Height cm", "Smoking",
	"Looking For", "accept_smoking", "accept_looking_for", "max_age_difference",
	"max_distance_km", "min_height_cm",
}

func writeWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &cells))
		}
	}

	path := filepath.Join(t.TempDir(), "profiles.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		header,
		{"alice", " <b>Alice</b> ", "29", "48.8566", "2.3522", "170", "Never", "Long Term", "never", "long-term, marriage", "5", "25.5", "175"},
		{},
		{"bob", "Bob", "31", "48.86", "2.35"},
	}

	records, rowErrs := ParseRows("people", rows)
	require.Empty(t, rowErrs)
	require.Len(t, records, 2)

	alice := records[0]
	assert.Equal(t, 2, alice.Row)
	assert.Equal(t, "people", alice.Sheet)
	assert.Equal(t, "Alice", alice.Profile.DisplayName)
	assert.Equal(t, models.SmokingNever, alice.Profile.Smoking)
	assert.Equal(t, models.LookingForLongTerm, alice.Profile.LookingFor)
	assert.Equal(t, models.ProfileStateActive, alice.Profile.State)
	require.NotNil(t, alice.Profile.HeightCm)
	assert.Equal(t, 170, *alice.Profile.HeightCm)

	d := alice.Dealbreakers
	assert.True(t, d.Accepts(models.CategoryLookingFor, models.LookingForMarriage))
	assert.False(t, d.Accepts(models.CategoryLookingFor, models.LookingForCasual))
	maxAge, ok := d.MaxAgeDifference()
	assert.True(t, ok)
	assert.Equal(t, 5, maxAge)
	km, ok := d.MaxDistanceKm()
	assert.True(t, ok)
	assert.InDelta(t, 25.5, km, 1e-9)
	minHeight, maxHeight := d.HeightRange()
	require.NotNil(t, minHeight)
	assert.Equal(t, 175, *minHeight)
	assert.Nil(t, maxHeight)

	bob := records[1]
	assert.Equal(t, 4, bob.Row)
	assert.Nil(t, bob.Profile.HeightCm)
	assert.Empty(t, bob.Profile.Smoking)
	assert.True(t, bob.Dealbreakers.IsEmpty())
}

func TestParseRows_GeneratesMissingIDs(t *testing.T) {
	records, rowErrs := ParseRows("s", [][]string{
		{"display_name", "age", "latitude", "longitude"},
		{"Carol", "40", "0", "0"},
		{"Dave", "41", "0", "0"},
	})
	require.Empty(t, rowErrs)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].Profile.ID)
	assert.NotEqual(t, records[0].Profile.ID, records[1].Profile.ID)
}

func TestParseRows_InvalidRows(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		code string
	}{
		{name: "Empty name", row: []string{"a", "<i></i>", "30", "0", "0"}, code: errors.ErrCodeValidation},
		{name: "Age not a number", row: []string{"a", "A", "thirty", "0", "0"}, code: errors.ErrCodeValidation},
		{name: "Underage", row: []string{"a", "A", "17", "0", "0"}, code: errors.ErrCodeValidation},
		{name: "Latitude out of range", row: []string{"a", "A", "30", "95", "0"}, code: errors.ErrCodeInvalidCoordinate},
		{name: "Longitude not a number", row: []string{"a", "A", "30", "0", "east"}, code: errors.ErrCodeValidation},
		{name: "Unknown attribute", row: []string{"a", "A", "30", "0", "0", "", "chain smoker"}, code: errors.ErrCodeValidation},
		{name: "Unknown acceptable value", row: []string{"a", "A", "30", "0", "0", "", "", "", "never, cigars"}, code: errors.ErrCodeValidation},
		{name: "Negative distance", row: []string{"a", "A", "30", "0", "0", "", "", "", "", "", "", "-1"}, code: errors.ErrCodeValidation},
		{name: "Only latitude given", row: []string{"a", "A", "30", "10", ""}, code: errors.ErrCodeValidation},
		{name: "Id too long", row: []string{strings.Repeat("x", models.MaxUserIDLength+1), "A", "30", "0", "0"}, code: errors.ErrCodeValidation},
		{name: "Id with match separator", row: []string{"a_b", "A", "30", "0", "0"}, code: errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, rowErrs := ParseRows("s", [][]string{header, tt.row})
			assert.Empty(t, records)
			require.Len(t, rowErrs, 1)
			assert.Equal(t, 2, rowErrs[0].Row)
			assert.True(t, errors.HasCode(rowErrs[0], tt.code), "got %v", rowErrs[0])
		})
	}
}

func TestParseRows_MissingColumns(t *testing.T) {
	records, rowErrs := ParseRows("s", [][]string{
		{"id", "display_name", "age"},
		{"a", "A", "30"},
	})
	assert.Empty(t, records)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 1, rowErrs[0].Row)
	assert.Contains(t, rowErrs[0].Error(), "latitude, longitude")
}

func TestImportFile(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"paris": {
			header,
			{"alice", "Alice", "29", "48.8566", "2.3522", "", "never", "", "never", "", "5"},
			{"bob", "Bob", "15", "48.86", "2.35"},
			{"carol", "Carol", "33", "48.85", "2.34"},
			{"alice", "Alice again", "30", "48.8566", "2.3522"},
		},
	})

	store := memstore.New()
	report, err := ImportFile(context.Background(), path, store)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Equal(t, 5, report.Errors[1].Row)
	assert.True(t, stderrors.Is(report.Errors[1], errors.ErrAlreadyExists))

	alice, err := store.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.DisplayName)
	assert.True(t, alice.Dealbreakers.Accepts(models.CategorySmoking, models.SmokingNever))
	assert.False(t, alice.Dealbreakers.Accepts(models.CategorySmoking, models.SmokingRegularly))

	_, err = store.GetProfile(context.Background(), "bob")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestParseRows_PreferencesAndMissingLocation(t *testing.T) {
	records, rowErrs := ParseRows("s", [][]string{
		{"id", "display_name", "age", "latitude", "longitude", "gender", "interested_in", "min_age", "max_age"},
		{"dana", "Dana", "28", "", "", "Female", "male; other", "25", "35"},
		{"eli", "Eli", "30", "0", "0"},
		{"fay", "Fay", "30", "", "", "robot"},
		{"gus", "Gus", "30", "", "", "", "", "40", "30"},
	})
	require.Len(t, records, 2)
	require.Len(t, rowErrs, 2)
	assert.Equal(t, 4, rowErrs[0].Row)
	assert.Equal(t, 5, rowErrs[1].Row)

	dana := records[0].Profile
	assert.True(t, dana.NoLocation)
	assert.False(t, dana.HasLocation())
	assert.Equal(t, models.GenderFemale, dana.Gender)
	assert.Equal(t, []string{models.GenderMale, models.GenderOther}, dana.InterestedIn)
	require.NotNil(t, dana.MinAge)
	require.NotNil(t, dana.MaxAge)
	assert.Equal(t, 25, *dana.MinAge)
	assert.Equal(t, 35, *dana.MaxAge)

	eli := records[1].Profile
	assert.True(t, eli.HasLocation(), "zero coordinates are a real location")
	assert.Empty(t, eli.InterestedIn)
	assert.Nil(t, eli.MinAge)
}

func TestImportFile_InvalidIDIsRowErrorNotAbort(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"s": {
			{"id", "display_name", "age", "latitude", "longitude"},
			{strings.Repeat("y", 65), "Long", "30", "0", "0"},
			{"ok-1", "Fine", "30", "0", "0"},
		},
	})

	store := memstore.New()
	report, err := ImportFile(context.Background(), path, store)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.True(t, errors.HasCode(report.Errors[0], errors.ErrCodeValidation))
}

type unavailableSink struct{ calls int }

func (s *unavailableSink) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	s.calls++
	return errors.New(errors.ErrCodeStorageUnavailable, "connection refused")
}

func (s *unavailableSink) SaveDealbreakers(ctx context.Context, userID string, d models.Dealbreakers) error {
	return nil
}

func TestImportFile_StopsWhenStorageUnavailable(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"s": {
			{"display_name", "age", "latitude", "longitude"},
			{"A", "30", "0", "0"},
			{"B", "30", "0", "0"},
		},
	})

	sink := &unavailableSink{}
	report, err := ImportFile(context.Background(), path, sink)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable))
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, sink.calls)
}

func TestImportFile_MissingFile(t *testing.T) {
	_, err := ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), memstore.New())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestPreview(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"s": {
			{"display_name", "age", "latitude", "longitude"},
			{"A", "30", "0", "0"},
			{"B", "31", "0", "0"},
			{"C", "32", "0", "0"},
		},
	})

	previews, err := Preview(path, 2)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "s", previews[0].Name)
	assert.Equal(t, [][]string{
		{"display_name", "age", "latitude", "longitude"},
		{"A", "30", "0", "0"},
	}, previews[0].Rows)
}
