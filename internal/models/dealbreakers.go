package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/mroshb/match_engine/pkg/errors"
)

// Dealbreakers is a user's immutable set of hard constraints. The zero value
// accepts everyone. Acceptable sets are copied on construction and on read,
// so a value can be shared freely between goroutines.
type Dealbreakers struct {
	acceptable map[Category]map[string]struct{}

	maxAgeDiff    int
	hasAgeLimit   bool
	maxDistanceKm float64
	hasDistLimit  bool

	minHeightCm *int
	maxHeightCm *int
}

// DealbreakersSpec is the mutable input to NewDealbreakers. Nil limits mean
// unbounded; an empty or missing acceptable set means the category is not
// filtered.
type DealbreakersSpec struct {
	Acceptable       map[Category][]string
	MaxAgeDifference *int
	MaxDistanceKm    *float64
	MinHeightCm      *int
	MaxHeightCm      *int
}

// NoDealbreakers returns constraints that accept every candidate.
func NoDealbreakers() Dealbreakers {
	return Dealbreakers{}
}

// NewDealbreakers validates spec and returns an immutable copy of it.
func NewDealbreakers(spec DealbreakersSpec) (Dealbreakers, error) {
	d := Dealbreakers{
		acceptable: make(map[Category]map[string]struct{}, len(spec.Acceptable)),
	}

	for c, values := range spec.Acceptable {
		if !IsKnownCategory(c) {
			return Dealbreakers{}, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown dealbreaker category %q", c))
		}
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if v == "" {
				return Dealbreakers{}, errors.New(errors.ErrCodeValidation, fmt.Sprintf("empty value in %s dealbreaker", c))
			}
			if !IsKnownValue(c, v) {
				return Dealbreakers{}, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown %s value %q", c, v))
			}
			set[v] = struct{}{}
		}
		d.acceptable[c] = set
	}

	if spec.MaxAgeDifference != nil {
		if *spec.MaxAgeDifference < 0 {
			return Dealbreakers{}, errors.New(errors.ErrCodeValidation, "max age difference cannot be negative")
		}
		d.maxAgeDiff = *spec.MaxAgeDifference
		d.hasAgeLimit = true
	}

	if spec.MaxDistanceKm != nil {
		if *spec.MaxDistanceKm < 0 {
			return Dealbreakers{}, errors.New(errors.ErrCodeValidation, "max distance cannot be negative")
		}
		d.maxDistanceKm = *spec.MaxDistanceKm
		d.hasDistLimit = true
	}

	if spec.MinHeightCm != nil && *spec.MinHeightCm < 0 {
		return Dealbreakers{}, errors.New(errors.ErrCodeValidation, "min height cannot be negative")
	}
	if spec.MinHeightCm != nil && spec.MaxHeightCm != nil && *spec.MinHeightCm > *spec.MaxHeightCm {
		return Dealbreakers{}, errors.New(errors.ErrCodeValidation, "min height is greater than max height")
	}
	d.minHeightCm = copyInt(spec.MinHeightCm)
	d.maxHeightCm = copyInt(spec.MaxHeightCm)

	return d, nil
}

// HasCategory reports whether category c is actively filtered.
func (d Dealbreakers) HasCategory(c Category) bool {
	return len(d.acceptable[c]) > 0
}

// Accepts reports whether value is in the acceptable set for c. It is only
// meaningful when HasCategory(c) is true.
func (d Dealbreakers) Accepts(c Category, value string) bool {
	_, ok := d.acceptable[c][value]
	return ok
}

// Acceptable returns a sorted copy of the acceptable set for c. It is never
// nil; an empty slice means the category is not filtered.
func (d Dealbreakers) Acceptable(c Category) []string {
	set := d.acceptable[c]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MaxAgeDifference returns the limit and whether it is bounded.
func (d Dealbreakers) MaxAgeDifference() (int, bool) {
	return d.maxAgeDiff, d.hasAgeLimit
}

// MaxDistanceKm returns the limit and whether it is bounded.
func (d Dealbreakers) MaxDistanceKm() (float64, bool) {
	return d.maxDistanceKm, d.hasDistLimit
}

// HeightRange returns copies of the optional height bounds.
func (d Dealbreakers) HeightRange() (min, max *int) {
	return copyInt(d.minHeightCm), copyInt(d.maxHeightCm)
}

// HasHeightLimit reports whether either height bound is set.
func (d Dealbreakers) HasHeightLimit() bool {
	return d.minHeightCm != nil || d.maxHeightCm != nil
}

// IsEmpty reports whether no constraint is set at all.
func (d Dealbreakers) IsEmpty() bool {
	for _, c := range Categories() {
		if d.HasCategory(c) {
			return false
		}
	}
	return !d.hasAgeLimit && !d.hasDistLimit && !d.HasHeightLimit()
}

// Spec returns a mutable copy suitable for editing and re-validating.
func (d Dealbreakers) Spec() DealbreakersSpec {
	spec := DealbreakersSpec{
		Acceptable:  make(map[Category][]string, len(d.acceptable)),
		MinHeightCm: copyInt(d.minHeightCm),
		MaxHeightCm: copyInt(d.maxHeightCm),
	}
	for c := range d.acceptable {
		spec.Acceptable[c] = d.Acceptable(c)
	}
	if d.hasAgeLimit {
		v := d.maxAgeDiff
		spec.MaxAgeDifference = &v
	}
	if d.hasDistLimit {
		v := d.maxDistanceKm
		spec.MaxDistanceKm = &v
	}
	return spec
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DealbreakersRow is the persisted form of a user's dealbreakers.
type DealbreakersRow struct {
	UserID           string              `gorm:"primaryKey;type:varchar(64)"`
	Acceptable       map[string][]string `gorm:"serializer:json;type:text"`
	MaxAgeDifference *int
	MaxDistanceKm    *float64
	MinHeightCm      *int
	MaxHeightCm      *int
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (DealbreakersRow) TableName() string {
	return "dealbreakers"
}

// DealbreakersRowFrom converts domain dealbreakers into a row for userID.
func DealbreakersRowFrom(userID string, d Dealbreakers) *DealbreakersRow {
	spec := d.Spec()
	row := &DealbreakersRow{
		UserID:           userID,
		Acceptable:       make(map[string][]string, len(spec.Acceptable)),
		MaxAgeDifference: spec.MaxAgeDifference,
		MaxDistanceKm:    spec.MaxDistanceKm,
		MinHeightCm:      spec.MinHeightCm,
		MaxHeightCm:      spec.MaxHeightCm,
	}
	for c, values := range spec.Acceptable {
		row.Acceptable[string(c)] = values
	}
	return row
}

// ToDomain validates the row and builds the immutable value.
func (r *DealbreakersRow) ToDomain() (Dealbreakers, error) {
	spec := DealbreakersSpec{
		Acceptable:       make(map[Category][]string, len(r.Acceptable)),
		MaxAgeDifference: r.MaxAgeDifference,
		MaxDistanceKm:    r.MaxDistanceKm,
		MinHeightCm:      r.MinHeightCm,
		MaxHeightCm:      r.MaxHeightCm,
	}
	for c, values := range r.Acceptable {
		spec.Acceptable[Category(c)] = values
	}
	return NewDealbreakers(spec)
}
