package parking

import "errors"

// Format errors are returned by constructors when an identifier is malformed.
var (
	ErrInvalidSlotID       = errors.New("slot ID must be a capital letter followed by two digits")
	ErrInvalidRegistration = errors.New("registration must be a capital letter followed by four digits")
	ErrInvalidSlotType     = errors.New("invalid slot type")
)

// State errors are returned when a slot or car is not in the state an operation needs.
var (
	ErrSlotOccupied  = errors.New("slot is already occupied")
	ErrSlotEmpty     = errors.New("slot is empty")
	ErrAlreadyParked = errors.New("car already has a park time")
)

var (
	ErrSlotNotFound          = errors.New("slot not found")
	ErrCarNotFound           = errors.New("car not found")
	ErrSlotTypeMismatch      = errors.New("car type doesn't match slot type")
	ErrDuplicateRegistration = errors.New("a car with this registration is already parked")
	ErrNegativeSlotCount     = errors.New("slot count must not be negative")
	ErrNoCar                 = errors.New("no car given")
)
