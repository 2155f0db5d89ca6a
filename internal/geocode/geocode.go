package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/pledgetrack/backend/internal/models"
)

var ErrNotFound = errors.New("geocode not found")

type Geocoder interface {
	Geocode(ctx context.Context, query string) (lat float64, lon float64, displayName string, confidence float64, err error)
}

func BuildGeocodeQuery(country string, customer models.Customer) string {
	country = strings.TrimSpace(country)
	city := strings.TrimSpace(customer.City)
	address := strings.TrimSpace(customer.Address)
	parts := []string{}
	if address != "" {
		parts = append(parts, address)
	}
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

func ShouldGeocode(c models.Customer, force bool) bool {
	if force {
		return true
	}
	return c.Lat == nil || c.Lon == nil
}
