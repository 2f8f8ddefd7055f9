package parking

import (
	"fmt"
	"regexp"
	"time"
)

var registrationPattern = regexp.MustCompile(`^[A-Z][0-9]{4}$`)

// ValidRegistration reports whether reg is a capital letter followed by four digits.
func ValidRegistration(reg string) bool {
	return registrationPattern.MatchString(reg)
}

// Car is a parked vehicle. It only exists while bound to a Slot.
type Car struct {
	registration string
	owner        string
	staff        bool
	parkedAt     time.Time
}

func NewCar(registration, owner string, staff bool) (*Car, error) {
	if !ValidRegistration(registration) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRegistration, registration)
	}

	return &Car{
		registration: registration,
		owner:        owner,
		staff:        staff,
	}, nil
}

func (c *Car) Registration() string {
	return c.registration
}

func (c *Car) Owner() string {
	return c.owner
}

func (c *Car) IsStaff() bool {
	return c.staff
}

// ParkedAt returns the park timestamp, or false if the car has not been parked yet.
func (c *Car) ParkedAt() (time.Time, bool) {
	if c.parkedAt.IsZero() {
		return time.Time{}, false
	}
	return c.parkedAt, true
}

// MarkParked records the moment the car occupied its slot. It can only be set once.
func (c *Car) MarkParked(at time.Time) error {
	if !c.parkedAt.IsZero() {
		return fmt.Errorf("%w: %s", ErrAlreadyParked, c.registration)
	}
	if at.IsZero() {
		return fmt.Errorf("park time for %s must not be zero", c.registration)
	}
	c.parkedAt = at
	return nil
}
