package parking

import (
	"fmt"
	"slices"
	"time"
)

// MaxSlotsPerType is the most slots of one type NewCarPark can number.
const MaxSlotsPerType = 99

// CarPark is the ordered registry of parking slots. Slot IDs are unique and
// listing preserves insertion order.
type CarPark struct {
	slots []*Slot
}

// NewCarPark creates staff slots S01..Snn followed by visitor slots V01..Vnn.
func NewCarPark(staffSlots, visitorSlots int) (*CarPark, error) {
	if staffSlots < 0 || visitorSlots < 0 {
		return nil, fmt.Errorf("%w: staff=%d visitor=%d", ErrNegativeSlotCount, staffSlots, visitorSlots)
	}

	cp := &CarPark{
		slots: make([]*Slot, 0, staffSlots+visitorSlots),
	}

	for i := 1; i <= staffSlots; i++ {
		slot, err := NewSlot(fmt.Sprintf("S%02d", i), SlotTypeStaff)
		if err != nil {
			return nil, err
		}
		cp.slots = append(cp.slots, slot)
	}
	for i := 1; i <= visitorSlots; i++ {
		slot, err := NewSlot(fmt.Sprintf("V%02d", i), SlotTypeVisitor)
		if err != nil {
			return nil, err
		}
		cp.slots = append(cp.slots, slot)
	}

	return cp, nil
}

// AddSlot appends slot unless one with the same ID already exists. Only empty
// slots are accepted; cars enter through ParkCar.
func (cp *CarPark) AddSlot(slot *Slot) bool {
	if slot == nil || slot.IsOccupied() {
		return false
	}
	if _, ok := cp.FindSlotByID(slot.ID()); ok {
		return false
	}
	cp.slots = append(cp.slots, slot)
	return true
}

// DeleteSlot removes the slot with the given ID. It fails if the slot does not
// exist or is occupied.
func (cp *CarPark) DeleteSlot(id string) bool {
	for i, slot := range cp.slots {
		if slot.ID() != id {
			continue
		}
		if slot.IsOccupied() {
			return false
		}
		cp.slots = slices.Delete(cp.slots, i, i+1)
		return true
	}
	return false
}

// Slots returns a snapshot of all slots in insertion order.
func (cp *CarPark) Slots() []*Slot {
	slots := make([]*Slot, len(cp.slots))
	copy(slots, cp.slots)
	return slots
}

// DeleteAllUnoccupied removes every empty slot and reports whether any were removed.
func (cp *CarPark) DeleteAllUnoccupied() bool {
	kept := cp.slots[:0]
	for _, slot := range cp.slots {
		if slot.IsOccupied() {
			kept = append(kept, slot)
		}
	}
	removed := len(kept) < len(cp.slots)
	for i := len(kept); i < len(cp.slots); i++ {
		cp.slots[i] = nil
	}
	cp.slots = kept
	return removed
}

func (cp *CarPark) FindSlotByID(id string) (*Slot, bool) {
	for _, slot := range cp.slots {
		if slot.ID() == id {
			return slot, true
		}
	}
	return nil, false
}

func (cp *CarPark) FindSlotByRegistration(registration string) (*Slot, bool) {
	for _, slot := range cp.slots {
		if car, ok := slot.Car(); ok && car.Registration() == registration {
			return slot, true
		}
	}
	return nil, false
}

func (cp *CarPark) Len() int {
	return len(cp.slots)
}

func (cp *CarPark) Occupied() int {
	n := 0
	for _, slot := range cp.slots {
		if slot.IsOccupied() {
			n++
		}
	}
	return n
}

// ParkCar parks car in the slot with the given ID and stamps its park time.
// Staff cars may only use staff slots and visitor cars only visitor slots.
func (cp *CarPark) ParkCar(slotID string, car *Car, at time.Time) error {
	if car == nil {
		return ErrNoCar
	}
	slot, ok := cp.FindSlotByID(slotID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}
	if slot.IsOccupied() {
		return fmt.Errorf("%w: %s", ErrSlotOccupied, slotID)
	}
	if !slot.Type().Accepts(car.IsStaff()) {
		return fmt.Errorf("%w: %s is a %s slot", ErrSlotTypeMismatch, slotID, slot.Type())
	}
	if _, ok := cp.FindSlotByRegistration(car.Registration()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, car.Registration())
	}

	if err := car.MarkParked(at); err != nil {
		return err
	}
	return slot.Park(car)
}

// RemoveCar takes the car with the given registration out of its slot.
func (cp *CarPark) RemoveCar(registration string) (*Slot, *Car, error) {
	slot, ok := cp.FindSlotByRegistration(registration)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrCarNotFound, registration)
	}

	car, err := slot.Remove()
	if err != nil {
		return nil, nil, err
	}
	return slot, car, nil
}
