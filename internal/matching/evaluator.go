package matching

import (
	"fmt"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/pkg/geo"
)

// Evaluator decides whether a candidate satisfies an observer's dealbreakers.
// It holds no state and is safe for concurrent use.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// IsAcceptable reports whether candidate passes observer's gender and age
// preferences and every dealbreaker of observer. Checks run in a fixed order
// and stop at the first failure. An error is returned only when either
// profile has an invalid location and a distance limit is set. The distance
// limit is skipped when either profile has no location.
func (e *Evaluator) IsAcceptable(observer, candidate *models.UserProfile) (bool, error) {
	if !observer.IsInterestedIn(candidate.Gender) || !observer.AcceptsAge(candidate.Age) {
		return false, nil
	}

	d := observer.Dealbreakers

	for _, c := range models.Categories() {
		if !d.HasCategory(c) {
			continue
		}
		v := candidate.Attribute(c)
		if v == "" || !d.Accepts(c, v) {
			return false, nil
		}
	}

	if limit, ok := d.MaxAgeDifference(); ok {
		if absInt(observer.Age-candidate.Age) > limit {
			return false, nil
		}
	}

	if limit, ok := d.MaxDistanceKm(); ok && bothLocated(observer, candidate) {
		dist, err := geo.Distance(observer.Coordinates(), candidate.Coordinates())
		if err != nil {
			return false, err
		}
		if !(dist <= limit) {
			return false, nil
		}
	}

	if !heightAccepted(d, candidate.HeightCm) {
		return false, nil
	}

	return true, nil
}

// MutuallyAcceptable reports whether a accepts b and b accepts a.
func (e *Evaluator) MutuallyAcceptable(a, b *models.UserProfile) (bool, error) {
	ok, err := e.IsAcceptable(a, b)
	if err != nil || !ok {
		return false, err
	}
	return e.IsAcceptable(b, a)
}

// FailedDealbreakers lists every constraint of observer that candidate fails,
// without short-circuiting. An empty result means the candidate is acceptable.
func (e *Evaluator) FailedDealbreakers(observer, candidate *models.UserProfile) []string {
	var failed []string

	if !observer.IsInterestedIn(candidate.Gender) {
		gender := candidate.Gender
		if gender == "" {
			gender = "not specified"
		}
		failed = append(failed, fmt.Sprintf("gender: %s not in %v", gender, observer.InterestedIn))
	}
	if !observer.AcceptsAge(candidate.Age) {
		failed = append(failed, fmt.Sprintf("age: %d outside preferred range", candidate.Age))
	}

	d := observer.Dealbreakers

	for _, c := range models.Categories() {
		if !d.HasCategory(c) {
			continue
		}
		v := candidate.Attribute(c)
		if v == "" {
			failed = append(failed, fmt.Sprintf("%s: not specified", c))
			continue
		}
		if !d.Accepts(c, v) {
			failed = append(failed, fmt.Sprintf("%s: %s not in %v", c, v, d.Acceptable(c)))
		}
	}

	if limit, ok := d.MaxAgeDifference(); ok {
		if diff := absInt(observer.Age - candidate.Age); diff > limit {
			failed = append(failed, fmt.Sprintf("age difference: %d exceeds %d", diff, limit))
		}
	}

	if limit, ok := d.MaxDistanceKm(); ok && bothLocated(observer, candidate) {
		dist, err := geo.Distance(observer.Coordinates(), candidate.Coordinates())
		switch {
		case err != nil:
			failed = append(failed, fmt.Sprintf("distance: %v", err))
		case !(dist <= limit):
			failed = append(failed, fmt.Sprintf("distance: %.1f km exceeds %.1f km", dist, limit))
		}
	}

	if !heightAccepted(d, candidate.HeightCm) {
		failed = append(failed, fmt.Sprintf("height: %d cm out of range", *candidate.HeightCm))
	}

	return failed
}

func bothLocated(a, b *models.UserProfile) bool {
	return a.HasLocation() && b.HasLocation()
}

// heightAccepted passes candidates that did not state a height.
func heightAccepted(d models.Dealbreakers, height *int) bool {
	if height == nil || !d.HasHeightLimit() {
		return true
	}
	minH, maxH := d.HeightRange()
	if minH != nil && *height < *minH {
		return false
	}
	if maxH != nil && *height > *maxH {
		return false
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
