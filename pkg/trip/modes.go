package trip

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/NERVsystems/tripmcp/pkg/geo"
)

const (
	// MinDuration is the floor applied to every synthesized duration, in minutes
	MinDuration = 5

	// MinWait and MaxWait bound the waiting time added to scheduled transit, in minutes
	MinWait = 5
	MaxWait = 14
)

// ModeParameters are the travel characteristics of a transport mode.
// The price of a trip of d kilometers is BaseFare + PerKm*d.
type ModeParameters struct {
	SpeedKmh       float64 `json:"speed_kmh"`
	BaseFare       float64 `json:"base_fare"`
	PerKm          float64 `json:"per_km"`
	EmissionFactor float64 `json:"emission_factor_kg_per_km"`
	Scheduled      bool    `json:"scheduled"`
}

// DefaultParameters apply to any mode missing from the parameter table
var DefaultParameters = ModeParameters{
	SpeedKmh:       30,
	BaseFare:       5,
	EmissionFactor: 0.15,
}

var modeTable = map[string]ModeParameters{
	"taxi":    {SpeedKmh: 30, BaseFare: 5, PerKm: 2, EmissionFactor: 0.15},
	"uber":    {SpeedKmh: 30, BaseFare: 4, PerKm: 1.8, EmissionFactor: 0.15},
	"lyft":    {SpeedKmh: 30, BaseFare: 4, PerKm: 1.7, EmissionFactor: 0.15},
	"subway":  {SpeedKmh: 35, BaseFare: 2.75, EmissionFactor: 0.03, Scheduled: true},
	"bus":     {SpeedKmh: 20, BaseFare: 2.5, EmissionFactor: 0.08, Scheduled: true},
	"train":   {SpeedKmh: 60, BaseFare: 3, PerKm: 0.5, EmissionFactor: 0.04, Scheduled: true},
	"tram":    {SpeedKmh: 25, BaseFare: 2.5, EmissionFactor: 0.03, Scheduled: true},
	"ferry":   {SpeedKmh: 20, BaseFare: 4, PerKm: 0.3, EmissionFactor: 0.12, Scheduled: true},
	"bike":    {SpeedKmh: 15, BaseFare: 2, PerKm: 0.1, EmissionFactor: 0},
	"scooter": {SpeedKmh: 15, BaseFare: 1, PerKm: 0.2, EmissionFactor: 0.02},
	"walk":    {SpeedKmh: 5, BaseFare: 0, PerKm: 0, EmissionFactor: 0},
}

// Parameters returns the parameters of modeID. Unknown modes get
// DefaultParameters and ok is false.
func Parameters(modeID string) (params ModeParameters, ok bool) {
	params, ok = modeTable[modeID]
	if !ok {
		return DefaultParameters, false
	}
	return params, true
}

// BaseDuration is the in-vehicle travel time in whole minutes, before any
// waiting time or floor is applied
func BaseDuration(distanceKm float64, modeID string) int {
	p, _ := Parameters(modeID)
	return int(math.Round(distanceKm / p.SpeedKmh * 60))
}

// Duration returns the door-to-door duration in minutes for a trip of
// distanceKm. Scheduled modes add one draw from wait (MinWait when wait is
// nil). The result is never below MinDuration.
func Duration(distanceKm float64, modeID string, wait WaitSource) int {
	minutes := BaseDuration(distanceKm, modeID)

	if p, _ := Parameters(modeID); p.Scheduled {
		if wait != nil {
			minutes += wait.Wait()
		} else {
			minutes += MinWait
		}
	}
	return max(minutes, MinDuration)
}

// Price returns the fare for a trip of distanceKm, rounded to cents
func Price(distanceKm float64, modeID string) float64 {
	p, _ := Parameters(modeID)
	return geo.Round(p.BaseFare+p.PerKm*distanceKm, 2)
}

// Emissions returns the CO2 emitted in kg for a trip of distanceKm, rounded to 2 decimals
func Emissions(distanceKm float64, modeID string) float64 {
	p, _ := Parameters(modeID)
	return geo.Round(distanceKm*p.EmissionFactor, 2)
}

// WaitSource supplies the waiting time of scheduled transit, in minutes
type WaitSource interface {
	Wait() int
}

// FixedWait always waits the same number of minutes
type FixedWait int

func (w FixedWait) Wait() int { return int(w) }

type randomWait struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomWait returns a WaitSource drawing uniformly from MinWait..MaxWait.
// It is safe for concurrent use.
func NewRandomWait(seed uint64) WaitSource {
	return &randomWait{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (w *randomWait) Wait() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return MinWait + w.rnd.IntN(MaxWait-MinWait+1)
}
