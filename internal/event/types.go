// Package event carries airlift simulation events from the actors to
// observers such as the run report, without coupling the actors to them.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "flight.arrived".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeFlightAnnounced     = "flight.announced"
	TypeBoardingComplete    = "flight.boarding_complete"
	TypeFlightArrived       = "flight.arrived"
	TypePlaneEmptied        = "flight.emptied"
	TypePassengerBoarded    = "passenger.boarded"
	TypePassengerLeft       = "passenger.left"
	TypePassengerTurnedAway = "passenger.turned_away"
	TypeSimulationFinished  = "simulation.finished"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Flight Events
// -----------------------------------------------------------------------------

// FlightAnnouncedEvent is emitted after the pilot raises readyForBoarding.
type FlightAnnouncedEvent struct {
	baseEvent
	Flight int
}

// NewFlightAnnouncedEvent creates a FlightAnnouncedEvent.
func NewFlightAnnouncedEvent(flight int) FlightAnnouncedEvent {
	return FlightAnnouncedEvent{baseEvent: newBaseEvent(TypeFlightAnnounced), Flight: flight}
}

// BoardingCompleteEvent is emitted after the hostess raises readyToFlight.
type BoardingCompleteEvent struct {
	baseEvent
	Flight  int
	Boarded int
	// Last is true when the hostess also set the finished flag.
	Last bool
}

// NewBoardingCompleteEvent creates a BoardingCompleteEvent.
func NewBoardingCompleteEvent(flight, boarded int, last bool) BoardingCompleteEvent {
	return BoardingCompleteEvent{
		baseEvent: newBaseEvent(TypeBoardingComplete),
		Flight:    flight,
		Boarded:   boarded,
		Last:      last,
	}
}

// FlightArrivedEvent is emitted when the pilot releases passengers at the
// destination.
type FlightArrivedEvent struct {
	baseEvent
	Flight  int
	Boarded int
	Travel  time.Duration
}

// NewFlightArrivedEvent creates a FlightArrivedEvent.
func NewFlightArrivedEvent(flight, boarded int, travel time.Duration) FlightArrivedEvent {
	return FlightArrivedEvent{
		baseEvent: newBaseEvent(TypeFlightArrived),
		Flight:    flight,
		Boarded:   boarded,
		Travel:    travel,
	}
}

// PlaneEmptiedEvent is emitted by the passenger that raised planeEmpty.
type PlaneEmptiedEvent struct {
	baseEvent
	Flight    int
	Passenger int
}

// NewPlaneEmptiedEvent creates a PlaneEmptiedEvent.
func NewPlaneEmptiedEvent(flight, passenger int) PlaneEmptiedEvent {
	return PlaneEmptiedEvent{baseEvent: newBaseEvent(TypePlaneEmptied), Flight: flight, Passenger: passenger}
}

// -----------------------------------------------------------------------------
// Passenger Events
// -----------------------------------------------------------------------------

// PassengerBoardedEvent is emitted once a passenger has taken its seat.
type PassengerBoardedEvent struct {
	baseEvent
	Flight    int
	Passenger int
}

// NewPassengerBoardedEvent creates a PassengerBoardedEvent.
func NewPassengerBoardedEvent(flight, passenger int) PassengerBoardedEvent {
	return PassengerBoardedEvent{baseEvent: newBaseEvent(TypePassengerBoarded), Flight: flight, Passenger: passenger}
}

// PassengerLeftEvent is emitted after a passenger's egress decrement.
type PassengerLeftEvent struct {
	baseEvent
	Flight    int
	Passenger int
	Remaining int
}

// NewPassengerLeftEvent creates a PassengerLeftEvent.
func NewPassengerLeftEvent(flight, passenger, remaining int) PassengerLeftEvent {
	return PassengerLeftEvent{
		baseEvent: newBaseEvent(TypePassengerLeft),
		Flight:    flight,
		Passenger: passenger,
		Remaining: remaining,
	}
}

// PassengerTurnedAwayEvent is emitted for a passenger that never boarded
// because the simulation finished first.
type PassengerTurnedAwayEvent struct {
	baseEvent
	Passenger int
}

// NewPassengerTurnedAwayEvent creates a PassengerTurnedAwayEvent.
func NewPassengerTurnedAwayEvent(passenger int) PassengerTurnedAwayEvent {
	return PassengerTurnedAwayEvent{baseEvent: newBaseEvent(TypePassengerTurnedAway), Passenger: passenger}
}

// -----------------------------------------------------------------------------
// Simulation Events
// -----------------------------------------------------------------------------

// SimulationFinishedEvent is emitted once every actor has returned.
type SimulationFinishedEvent struct {
	baseEvent
	Flights     int
	Transported int
	Err         error
}

// NewSimulationFinishedEvent creates a SimulationFinishedEvent.
func NewSimulationFinishedEvent(flights, transported int, err error) SimulationFinishedEvent {
	return SimulationFinishedEvent{
		baseEvent:   newBaseEvent(TypeSimulationFinished),
		Flights:     flights,
		Transported: transported,
		Err:         err,
	}
}
