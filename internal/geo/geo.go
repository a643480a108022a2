// Package geo turns device coordinates into the location string used by the
// recommendation form.
package geo

import (
	"fmt"
	"strings"
)

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Address holds the place fields a reverse lookup may return. Any may be
// empty.
type Address struct {
	City    string `json:"city,omitempty"`
	Town    string `json:"town,omitempty"`
	Village string `json:"village,omitempty"`
	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// FormatPlace renders "<city>, <region>" or "<city>". ok is false when the
// address has no city, town or village; a region alone is not a place.
func FormatPlace(a Address) (place string, ok bool) {
	city := firstNonEmpty(a.City, a.Town, a.Village)
	if city == "" {
		return "", false
	}
	if region := firstNonEmpty(a.State, a.County); region != "" {
		return city + ", " + region, true
	}
	return city, true
}

// FormatCoordinates is the fallback location text.
func FormatCoordinates(c Coordinates) string {
	return fmt.Sprintf("Lat: %.4f, Lon: %.4f", c.Lat, c.Lon)
}

// PositionErrorKind classifies a client-reported geolocation failure.
type PositionErrorKind string

const (
	PermissionDenied PositionErrorKind = "permission_denied"
	Unsupported      PositionErrorKind = "unsupported"
	Unavailable      PositionErrorKind = "unavailable"
)

// PositionError is a recoverable geolocation failure. The user can still
// type a location.
type PositionError struct {
	Kind PositionErrorKind
}

func (e *PositionError) Error() string { return e.Notice() }

// Notice is the user-visible message for the failure.
func (e *PositionError) Notice() string {
	switch e.Kind {
	case PermissionDenied:
		return "Location access denied. Please enable it in your browser settings."
	case Unsupported:
		return "Your browser doesn't support geolocation."
	default:
		return "Could not fetch your location."
	}
}

// ParsePositionErrorKind maps a client-supplied kind, treating anything
// unknown as Unavailable.
func ParsePositionErrorKind(s string) PositionErrorKind {
	switch k := PositionErrorKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PermissionDenied, Unsupported:
		return k
	default:
		return Unavailable
	}
}
