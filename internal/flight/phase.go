package flight

// PilotPhase is the pilot's externally visible position within a cycle.
type PilotPhase int

const (
	// PilotAtRest is the zero value held before the first cycle starts.
	PilotAtRest PilotPhase = iota
	FlyingBack
	ReadyForBoarding
	WaitingForBoarding
	Flying
	DroppingPassengers
)

var pilotNames = map[PilotPhase]string{
	PilotAtRest:        "AT_REST",
	FlyingBack:         "FLYING_BACK",
	ReadyForBoarding:   "READY_FOR_BOARDING",
	WaitingForBoarding: "WAITING_FOR_BOARDING",
	Flying:             "FLYING",
	DroppingPassengers: "DROPPING_PASSENGERS",
}

var pilotCodes = map[PilotPhase]string{
	PilotAtRest:        "----",
	FlyingBack:         "FLBK",
	ReadyForBoarding:   "RDBD",
	WaitingForBoarding: "WTBD",
	Flying:             "FLYG",
	DroppingPassengers: "DRPS",
}

// pilotNext is the exhaustive pilot transition table. Each phase has exactly
// one successor; the cycle closes from DroppingPassengers to FlyingBack.
var pilotNext = map[PilotPhase]PilotPhase{
	PilotAtRest:        FlyingBack,
	FlyingBack:         ReadyForBoarding,
	ReadyForBoarding:   WaitingForBoarding,
	WaitingForBoarding: Flying,
	Flying:             DroppingPassengers,
	DroppingPassengers: FlyingBack,
}

func (p PilotPhase) String() string {
	if name, ok := pilotNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Code returns the four-letter abbreviation used in the state log.
func (p PilotPhase) Code() string {
	if code, ok := pilotCodes[p]; ok {
		return code
	}
	return "????"
}

// Next returns the only phase the pilot may move to from p.
func (p PilotPhase) Next() PilotPhase {
	return pilotNext[p]
}

// CanTransition reports whether the pilot may move from p to to.
func (p PilotPhase) CanTransition(to PilotPhase) bool {
	next, ok := pilotNext[p]
	return ok && next == to
}

// HostessPhase is the hostess's position within a boarding cycle.
type HostessPhase int

const (
	HostessAtRest HostessPhase = iota
	WaitForFlight
	WaitForPassenger
	CheckPassport
	ReadyToFly
	// OffDuty is terminal: the pilot has stopped flying and the hostess
	// was woken without a new flight.
	OffDuty
)

var hostessNames = map[HostessPhase]string{
	HostessAtRest:    "AT_REST",
	WaitForFlight:    "WAIT_FOR_FLIGHT",
	WaitForPassenger: "WAIT_FOR_PASSENGER",
	CheckPassport:    "CHECK_PASSPORT",
	ReadyToFly:       "READY_TO_FLY",
	OffDuty:          "OFF_DUTY",
}

var hostessCodes = map[HostessPhase]string{
	HostessAtRest:    "----",
	WaitForFlight:    "WTFL",
	WaitForPassenger: "WTPS",
	CheckPassport:    "CKPS",
	ReadyToFly:       "RDTF",
	OffDuty:          "OFFD",
}

var hostessNext = map[HostessPhase][]HostessPhase{
	HostessAtRest:    {WaitForFlight},
	WaitForFlight:    {WaitForPassenger, CheckPassport, ReadyToFly, OffDuty},
	WaitForPassenger: {WaitForPassenger, CheckPassport, ReadyToFly},
	CheckPassport:    {WaitForPassenger, CheckPassport, ReadyToFly},
	ReadyToFly:       {WaitForFlight},
	OffDuty:          {},
}

func (h HostessPhase) String() string {
	if name, ok := hostessNames[h]; ok {
		return name
	}
	return "UNKNOWN"
}

// Code returns the four-letter abbreviation used in the state log.
func (h HostessPhase) Code() string {
	if code, ok := hostessCodes[h]; ok {
		return code
	}
	return "????"
}

// CanTransition reports whether the hostess may move from h to to.
func (h HostessPhase) CanTransition(to HostessPhase) bool {
	for _, next := range hostessNext[h] {
		if next == to {
			return true
		}
	}
	return false
}

// PassengerPhase is one passenger's position in its single trip.
type PassengerPhase int

const (
	GoingToAirport PassengerPhase = iota
	InQueue
	InFlight
	AtDestination
	// TurnedAway is terminal for passengers who never boarded before the
	// simulation finished.
	TurnedAway
)

var passengerNames = map[PassengerPhase]string{
	GoingToAirport: "GOING_TO_AIRPORT",
	InQueue:        "IN_QUEUE",
	InFlight:       "IN_FLIGHT",
	AtDestination:  "AT_DESTINATION",
	TurnedAway:     "TURNED_AWAY",
}

var passengerCodes = map[PassengerPhase]string{
	GoingToAirport: "GTAP",
	InQueue:        "INQE",
	InFlight:       "INFL",
	AtDestination:  "ATDS",
	TurnedAway:     "TWAY",
}

var passengerNext = map[PassengerPhase][]PassengerPhase{
	GoingToAirport: {InQueue, TurnedAway},
	InQueue:        {InFlight, TurnedAway},
	InFlight:       {AtDestination},
	AtDestination:  {},
	TurnedAway:     {},
}

func (p PassengerPhase) String() string {
	if name, ok := passengerNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Code returns the four-letter abbreviation used in the state log.
func (p PassengerPhase) Code() string {
	if code, ok := passengerCodes[p]; ok {
		return code
	}
	return "????"
}

// CanTransition reports whether a passenger may move from p to to.
func (p PassengerPhase) CanTransition(to PassengerPhase) bool {
	for _, next := range passengerNext[p] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the passenger's trip is over.
func (p PassengerPhase) Terminal() bool {
	return p == AtDestination || p == TurnedAway
}
