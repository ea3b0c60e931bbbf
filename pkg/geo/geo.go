package geo

import (
	"fmt"
	"math"

	"github.com/mroshb/match_engine/pkg/errors"
)

// EarthRadiusKm is the mean radius used for the spherical-earth approximation.
const EarthRadiusKm = 6371.0

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// Validate rejects latitudes outside [-90, 90], longitudes outside
// [-180, 180] and NaN components.
func Validate(c Coordinates) error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return errors.New(errors.ErrCodeInvalidCoordinate, fmt.Sprintf("latitude out of range: %v", c.Latitude))
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return errors.New(errors.ErrCodeInvalidCoordinate, fmt.Sprintf("longitude out of range: %v", c.Longitude))
	}
	return nil
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula. The result is always finite and in
// [0, pi*EarthRadiusKm] for valid coordinates.
func Distance(a, b Coordinates) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}

	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180.0
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h slightly outside [0, 1] near antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c, nil
}

// OffsetNorth returns the point distanceKm due north of c along its meridian.
// Useful for building fixtures at an exact distance.
func OffsetNorth(c Coordinates, distanceKm float64) Coordinates {
	return Coordinates{
		Latitude:  c.Latitude + distanceKm/EarthRadiusKm*180.0/math.Pi,
		Longitude: c.Longitude,
	}
}
