// Package trip synthesizes candidate routes between two catalog locations
// and refines a route set by filtering and sorting it.
package trip

import (
	"fmt"
	"strings"
)

// Route is one candidate way of getting from origin to destination with a single mode
type Route struct {
	// ID is derived from origin, destination, mode and departure; it repeats across searches
	ID string `json:"id"`
	// Key is unique per constructed route
	Key string `json:"key"`

	OriginID        string  `json:"from_id"`
	DestinationID   string  `json:"to_id"`
	ModeID          string  `json:"mode"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalTime     string  `json:"arrival_time"`
	DistanceKm      float64 `json:"distance_km"`
	CO2Kg           float64 `json:"co2_kg"`
}

// RouteID builds the derived route id
func RouteID(originID, destinationID, modeID, departure string) string {
	return strings.Join([]string{originID, destinationID, modeID, departure}, "-")
}

// PriceLabel renders a price the way fares are shown to travellers
func PriceLabel(price float64) string {
	if price == 0 {
		return "Free"
	}
	return fmt.Sprintf("$%.2f", price)
}

// CO2Level buckets an emission amount
type CO2Level string

const (
	CO2None   CO2Level = "none"
	CO2Low    CO2Level = "low"
	CO2Medium CO2Level = "medium"
	CO2High   CO2Level = "high"
)

// EmissionLevel classifies kg of CO2: none, below 1 kg low, below 3 kg medium, otherwise high
func EmissionLevel(kg float64) CO2Level {
	switch {
	case kg == 0:
		return CO2None
	case kg < 1:
		return CO2Low
	case kg < 3:
		return CO2Medium
	default:
		return CO2High
	}
}
