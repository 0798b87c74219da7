package opendata

import (
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/communitycompass/compass/pkg/common"
	"github.com/communitycompass/compass/pkg/geo"
)

// RawRecord is one source record as decoded from a feed's JSON array. Field
// names are source-specific; the adapter descriptor maps them to the
// canonical shape.
type RawRecord map[string]interface{}

// LocationStyle selects how an adapter extracts coordinates from the source's
// "location" value.
type LocationStyle int

const (
	// LocationObject is a nested {latitude, longitude} mapping with string
	// or numeric values (Socrata "location" columns).
	LocationObject LocationStyle = iota
	// LocationPair is a GeoJSON-style {coordinates: [longitude, latitude]}.
	LocationPair
)

// WebsiteStyle selects how an adapter extracts the optional website URL.
type WebsiteStyle int

const (
	// WebsiteNone means the feed never carries a website.
	WebsiteNone WebsiteStyle = iota
	// WebsiteField reads a plain string field named "website".
	WebsiteField
	// WebsiteURLObject reads the nested {url} form of a Socrata url column.
	WebsiteURLObject
	// WebsiteFromNotes surfaces the free-text "notes" field when it carries
	// a URL (the flu-shot feed hides links there).
	WebsiteFromNotes
)

// Adapter describes one external feed: where to fetch it, which category tag
// its records get, and how to map its source-specific field names onto the
// canonical Service. Descriptors are static registrations; dispatch happens
// by registry lookup, never by sniffing a record's shape at call time.
type Adapter struct {
	Key         string
	URL         string
	Category    string
	Subcategory string

	// Required lists the source fields that must be present; a record
	// missing any of them is rejected.
	Required []string

	// NameField carries the human-readable site/store/facility name. It
	// doubles as the source-unique id; Transform prefixes it with Key so
	// ids stay unique across feeds.
	NameField string

	// DescriptionField, when set, supplies the description with
	// DescriptionLabel as fallback. DescriptionPrefixField prepends a source
	// value to the label ("<site_type> Warming Center").
	DescriptionField       string
	DescriptionLabel       string
	DescriptionPrefixField string

	Location LocationStyle

	// Address composition. StreetField defaults to "address"; FixedCity and
	// FixedState override feeds that omit city/state (grocery stores are
	// always Chicago, IL). ZipField defaults to "zip".
	StreetField string
	FixedCity   string
	FixedState  string
	ZipField    string

	// HoursField names the operating-hours column; HoursRange builds
	// "begin_time - end_time" instead. Neither set means no hours data.
	HoursField string
	HoursRange bool

	// PhoneAbsent marks feeds that never carry a phone number.
	PhoneAbsent bool

	Website WebsiteStyle
}

// Rejection records why a raw record did not survive normalization. It is a
// diagnostic, not a hard failure: the fetcher aggregates rejections alongside
// the surviving services.
type Rejection struct {
	Adapter string `json:"adapter"`
	ID      string `json:"id"`
	Reason  string `json:"reason"`
}

type locationObject struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// Transform normalizes one raw record. Exactly one of the results is non-nil:
// either the canonical Service or a Rejection naming the cause.
func (a *Adapter) Transform(raw RawRecord) (*Service, *Rejection) {
	if missing := a.missingFields(raw); len(missing) > 0 {
		return nil, a.reject(raw, "missing required fields: "+strings.Join(missing, ", "))
	}

	lat, lng, err := a.extractCoordinates(raw)
	if err != nil {
		return nil, a.reject(raw, err.Error())
	}
	if !(geo.Point{Latitude: lat, Longitude: lng}).Valid() {
		return nil, a.reject(raw, fmt.Sprintf("invalid coordinates: lat=%v, lng=%v", lat, lng))
	}

	name := strings.TrimSpace(cast.ToString(raw[a.NameField]))

	svc := &Service{
		ID:          a.Key + "/" + name,
		Name:        name,
		Description: a.description(raw),
		Category:    a.Category,
		Subcategory: a.Subcategory,
		Coordinates: [2]float64{lng, lat},
		Address:     a.address(raw),
		Hours:       a.hours(raw),
		Phone:       a.phone(raw),
		Website:     a.website(raw),
	}
	return svc, nil
}

func (a *Adapter) reject(raw RawRecord, reason string) *Rejection {
	return &Rejection{
		Adapter: a.Key,
		ID:      cast.ToString(raw[a.NameField]),
		Reason:  reason,
	}
}

func (a *Adapter) missingFields(raw RawRecord) []string {
	var missing []string
	for _, field := range a.Required {
		v, ok := raw[field]
		if !ok || v == nil || cast.ToString(v) == "" && !isContainer(v) {
			missing = append(missing, field)
		}
	}
	return missing
}

// isContainer reports whether v is a nested mapping or list, which casts to
// an empty string but still counts as present (the location column).
func isContainer(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

func (a *Adapter) extractCoordinates(raw RawRecord) (lat, lng float64, err error) {
	loc := raw["location"]
	switch a.Location {
	case LocationObject:
		var obj locationObject
		dec, derr := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &obj,
		})
		if derr != nil {
			return 0, 0, derr
		}
		if derr := dec.Decode(loc); derr != nil {
			return 0, 0, fmt.Errorf("invalid coordinates: %s", derr.Error())
		}
		lat, lng = obj.Latitude, obj.Longitude
	case LocationPair:
		m, ok := loc.(map[string]interface{})
		if !ok {
			return 0, 0, fmt.Errorf("invalid coordinates: location is not an object")
		}
		pair, ok := m["coordinates"].([]interface{})
		if !ok || len(pair) < 2 {
			return 0, 0, fmt.Errorf("invalid coordinates: missing coordinate pair")
		}
		// GeoJSON order: [longitude, latitude]
		lng, err = cast.ToFloat64E(pair[0])
		if err == nil {
			lat, err = cast.ToFloat64E(pair[1])
		}
		if err != nil {
			return 0, 0, fmt.Errorf("invalid coordinates: %s", err.Error())
		}
	}
	if lat == 0 && lng == 0 || math.IsNaN(lat) || math.IsNaN(lng) {
		return 0, 0, fmt.Errorf("invalid coordinates: lat=%v, lng=%v", lat, lng)
	}
	return lat, lng, nil
}

func (a *Adapter) description(raw RawRecord) string {
	if a.DescriptionField != "" {
		if v := strings.TrimSpace(cast.ToString(raw[a.DescriptionField])); v != "" {
			return v
		}
	}
	if a.DescriptionPrefixField != "" {
		if v := strings.TrimSpace(cast.ToString(raw[a.DescriptionPrefixField])); v != "" {
			return v + " " + a.DescriptionLabel
		}
	}
	return a.DescriptionLabel
}

func (a *Adapter) address(raw RawRecord) string {
	street := a.StreetField
	if street == "" {
		street = "address"
	}
	zip := a.ZipField
	if zip == "" {
		zip = "zip"
	}
	city := a.FixedCity
	if city == "" {
		city = cast.ToString(raw["city"])
	}
	state := a.FixedState
	if state == "" {
		state = cast.ToString(raw["state"])
	}
	return common.JoinNonEmpty(", ",
		cast.ToString(raw[street]),
		city,
		state,
		cast.ToString(raw[zip]),
	)
}

func (a *Adapter) hours(raw RawRecord) string {
	if a.HoursRange {
		begin := strings.TrimSpace(cast.ToString(raw["begin_time"]))
		end := strings.TrimSpace(cast.ToString(raw["end_time"]))
		if begin != "" || end != "" {
			return strings.TrimSpace(begin + " - " + end)
		}
		return HoursNotAvailable
	}
	if a.HoursField != "" {
		if v := strings.TrimSpace(cast.ToString(raw[a.HoursField])); v != "" {
			return v
		}
	}
	return HoursNotAvailable
}

func (a *Adapter) phone(raw RawRecord) string {
	if !a.PhoneAbsent {
		if v := strings.TrimSpace(cast.ToString(raw["phone"])); v != "" {
			return v
		}
	}
	return PhoneNotAvailable
}

func (a *Adapter) website(raw RawRecord) *string {
	var v string
	switch a.Website {
	case WebsiteNone:
		return nil
	case WebsiteField:
		v = cast.ToString(raw["website"])
	case WebsiteURLObject:
		if m, ok := raw["website"].(map[string]interface{}); ok {
			v = cast.ToString(m["url"])
		}
	case WebsiteFromNotes:
		notes := cast.ToString(raw["notes"])
		if strings.Contains(notes, "http") {
			v = notes
		}
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
