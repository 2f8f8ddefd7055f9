package parking

import (
	"fmt"
	"regexp"
)

var slotIDPattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// ValidSlotID reports whether id is a capital letter followed by two digits.
func ValidSlotID(id string) bool {
	return slotIDPattern.MatchString(id)
}

type SlotType int

const (
	SlotTypeStaff SlotType = iota + 1
	SlotTypeVisitor
)

func (t SlotType) String() string {
	switch t {
	case SlotTypeStaff:
		return "staff"
	case SlotTypeVisitor:
		return "visitor"
	default:
		return fmt.Sprintf("SlotType(%d)", int(t))
	}
}

func (t SlotType) valid() bool {
	return t == SlotTypeStaff || t == SlotTypeVisitor
}

// Accepts reports whether a car with the given owner status may use a slot of this type.
func (t SlotType) Accepts(staffOwner bool) bool {
	if staffOwner {
		return t == SlotTypeStaff
	}
	return t == SlotTypeVisitor
}

// Slot is a named parking space holding at most one car.
type Slot struct {
	id  string
	typ SlotType
	car *Car
}

func NewSlot(id string, typ SlotType) (*Slot, error) {
	if !ValidSlotID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	if !typ.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlotType, int(typ))
	}

	return &Slot{
		id:  id,
		typ: typ,
	}, nil
}

func (s *Slot) ID() string {
	return s.id
}

func (s *Slot) Type() SlotType {
	return s.typ
}

func (s *Slot) IsOccupied() bool {
	return s.car != nil
}

// Car returns the parked car, or false when the slot is empty.
func (s *Slot) Car() (*Car, bool) {
	if s.car == nil {
		return nil, false
	}
	return s.car, true
}

// Park binds car to the slot. Staff/visitor compatibility is not checked here;
// see CarPark.ParkCar.
func (s *Slot) Park(car *Car) error {
	if car == nil {
		return fmt.Errorf("%w: %s", ErrNoCar, s.id)
	}
	if s.IsOccupied() {
		return fmt.Errorf("%w: %s", ErrSlotOccupied, s.id)
	}
	s.car = car
	return nil
}

// Remove detaches and returns the parked car.
func (s *Slot) Remove() (*Car, error) {
	if !s.IsOccupied() {
		return nil, fmt.Errorf("%w: %s", ErrSlotEmpty, s.id)
	}
	car := s.car
	s.car = nil
	return car, nil
}
