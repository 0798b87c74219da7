package opendata

import "github.com/communitycompass/compass/pkg/geo"

// Service is the canonical, feed-agnostic record every adapter produces.
// Coordinates are ordered [longitude, latitude] to match the GeoJSON
// convention used by the map client.
type Service struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
	Hours       string     `json:"hours"`
	Phone       string     `json:"phone"`
	Website     *string    `json:"website"`
}

// Fallback literals used when a source lacks the field. Hours and phone get a
// placeholder string while website stays null; the two conventions differ on
// purpose and the client relies on both.
const (
	HoursNotAvailable = "Hours not available"
	PhoneNotAvailable = "Phone not available"
)

// Point returns the service location as a latitude/longitude pair.
func (s Service) Point() geo.Point {
	return geo.Point{Latitude: s.Coordinates[1], Longitude: s.Coordinates[0]}
}

// Location implements the query engine's locatable contract. Canonical
// services always carry coordinates; records without them never survive
// normalization.
func (s Service) Location() (geo.Point, bool) {
	return s.Point(), true
}
