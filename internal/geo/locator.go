package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kalambet/synk/internal/metrics"
	"github.com/kalambet/synk/internal/validation"
)

// ErrInvalidCoordinates is returned for positions outside valid ranges.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

const (
	ResolvedNotice = "Your current location has been set."
	FallbackNotice = "Could not determine a place name. Using coordinates instead."
)

// Resolution is the location text to put in the form.
type Resolution struct {
	Location    string      `json:"location"`
	Fallback    bool        `json:"fallback"`
	Notice      string      `json:"notice"`
	Coordinates Coordinates `json:"coordinates"`
}

// BreakerConfig controls when reverse lookups stop being attempted.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second}
}

// Locator resolves coordinates to a place name, falling back to formatted
// coordinates. Reverse lookups run behind a circuit breaker so a failing
// geocoder is skipped until its timeout elapses.
type Locator struct {
	reverser Reverser
	breaker  *gobreaker.CircuitBreaker[Address]
}

func NewLocator(r Reverser, cfg BreakerConfig) *Locator {
	settings := gobreaker.Settings{
		Name:        "reverse-geocode",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Locator{
		reverser: r,
		breaker:  gobreaker.NewCircuitBreaker[Address](settings),
	}
}

// Resolve never fails on lookup problems: they produce a coordinate
// fallback. Only out-of-range coordinates are an error.
func (l *Locator) Resolve(ctx context.Context, c Coordinates) (Resolution, error) {
	if err := validation.Struct(&c); err != nil {
		return Resolution{}, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}

	addr, err := l.breaker.Execute(func() (Address, error) {
		return l.reverser.Reverse(ctx, c)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordGeocode("breaker_open")
		} else {
			metrics.RecordGeocode("fallback")
		}
		slog.Warn("reverse geocode failed, using coordinates", "error", err)
		return fallback(c), nil
	}

	place, ok := FormatPlace(addr)
	if !ok {
		metrics.RecordGeocode("fallback")
		return fallback(c), nil
	}
	metrics.RecordGeocode("place")
	return Resolution{Location: place, Notice: ResolvedNotice, Coordinates: c}, nil
}

// State reports the breaker state, e.g. for status output.
func (l *Locator) State() string {
	return l.breaker.State().String()
}

func fallback(c Coordinates) Resolution {
	return Resolution{
		Location:    FormatCoordinates(c),
		Fallback:    true,
		Notice:      FallbackNotice,
		Coordinates: c,
	}
}
