// Package geo provides the small geospatial computations used to annotate
// help requests for rescuer decision-making. The distance formula is an
// equirectangular approximation, good enough at city scale; it is not
// geodesically exact.
package geo

import (
	"fmt"
	"math"

	"github.com/spec-kit/rescue-service/internal/domain"
)

// metersPerDegree is the length of one degree of latitude in meters.
const metersPerDegree = 111320

// walkingSpeedMS is the assumed average pedestrian speed in meters/second.
const walkingSpeedMS = 1.4

// DistanceMeters returns the approximate distance between two coordinates,
// rounded to whole meters. Returns 0 when either input is absent.
func DistanceMeters(a, b *domain.Coordinates) int {
	if a == nil || b == nil {
		return 0
	}
	dLat := math.Abs(a.Latitude-b.Latitude) * metersPerDegree
	dLon := math.Abs(a.Longitude-b.Longitude) * metersPerDegree * math.Cos(a.Latitude*math.Pi/180)
	return int(math.Round(math.Sqrt(dLat*dLat + dLon*dLon)))
}

// ETAFromDistance estimates walking time to cover the given distance and
// formats it for display. Hours rounding is coarse: fractional hours are
// not shown.
func ETAFromDistance(meters int) string {
	seconds := float64(meters) / walkingSpeedMS
	minutes := int(math.Ceil(seconds / 60))
	switch {
	case minutes <= 1:
		return "1 minuto"
	case minutes <= 60:
		return fmt.Sprintf("%d minutos", minutes)
	default:
		return fmt.Sprintf("%d horas", int(math.Ceil(float64(minutes)/60)))
	}
}

// FormatDistance renders a distance in meters as "N m" below one kilometer
// and "N.N km" above.
func FormatDistance(meters int) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", float64(meters)/1000)
	}
	return fmt.Sprintf("%d m", meters)
}
