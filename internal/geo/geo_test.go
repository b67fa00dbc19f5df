package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/rescue-service/internal/domain"
)

var (
	portoCityHall = domain.Coordinates{Latitude: 41.1496, Longitude: -8.6110}
	portoRibeira  = domain.Coordinates{Latitude: 41.1408, Longitude: -8.6110}
)

func TestDistanceMeters(t *testing.T) {
	assert.Equal(t, 0, DistanceMeters(nil, &portoCityHall))
	assert.Equal(t, 0, DistanceMeters(&portoCityHall, nil))
	assert.Equal(t, 0, DistanceMeters(&portoCityHall, &portoCityHall))

	d := DistanceMeters(&portoCityHall, &portoRibeira)
	// 0.0088 degrees of latitude at 111320 m/degree.
	assert.InDelta(t, 980, d, 1)

	// symmetry within rounding
	assert.InDelta(t, DistanceMeters(&portoRibeira, &portoCityHall), d, 1)
	assert.GreaterOrEqual(t, d, 0)
}

func TestETAFromDistance(t *testing.T) {
	assert.Equal(t, "1 minuto", ETAFromDistance(0))
	assert.Equal(t, "1 minuto", ETAFromDistance(84)) // exactly one minute of walking
	assert.Equal(t, "2 minutos", ETAFromDistance(100))
	assert.Equal(t, "60 minutos", ETAFromDistance(5040))
	// 5124 m at 1.4 m/s is exactly 61 minutes; hours are coarsely rounded up.
	assert.Equal(t, "2 horas", ETAFromDistance(5124))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0 m", FormatDistance(0))
	assert.Equal(t, "999 m", FormatDistance(999))
	assert.Equal(t, "1.0 km", FormatDistance(1000))
	assert.Equal(t, "1.5 km", FormatDistance(1540))
}
