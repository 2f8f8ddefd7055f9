package parking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultHourlyRate is charged per billable hour when no tariff is configured.
const DefaultHourlyRate int64 = 6

// Duration is an elapsed parking time split into whole hours, minutes and seconds.
type Duration struct {
	Hours   int64
	Minutes int64
	Seconds int64
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh %dm %ds", d.Hours, d.Minutes, d.Seconds)
}

// Elapsed returns the time between parkedAt and now. Sub-second remainders are
// dropped and a now before parkedAt counts as zero.
func Elapsed(parkedAt, now time.Time) Duration {
	d := now.Sub(parkedAt)
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return Duration{
		Hours:   total / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// BillableHours rounds any partial hour up to a full hour.
func BillableHours(parkedAt, now time.Time) int64 {
	e := Elapsed(parkedAt, now)
	if e.Minutes > 0 || e.Seconds > 0 {
		return e.Hours + 1
	}
	return e.Hours
}

// Fee is the charge at DefaultHourlyRate.
func Fee(parkedAt, now time.Time) int64 {
	return BillableHours(parkedAt, now) * DefaultHourlyRate
}

type Tariff struct {
	HourlyRate int64
}

func DefaultTariff() Tariff {
	return Tariff{HourlyRate: DefaultHourlyRate}
}

type Charge struct {
	Elapsed       Duration
	BillableHours int64
	Amount        int64
}

func (t Tariff) Charge(parkedAt, now time.Time) Charge {
	hours := BillableHours(parkedAt, now)
	return Charge{
		Elapsed:       Elapsed(parkedAt, now),
		BillableHours: hours,
		Amount:        hours * t.HourlyRate,
	}
}

// Receipt records a departure and what was charged for it.
type Receipt struct {
	ID           uuid.UUID
	SlotID       string
	SlotType     SlotType
	Registration string
	Owner        string
	ParkedAt     time.Time
	LeftAt       time.Time
	Charge       Charge
}

// NewReceipt charges car, just removed from slot, for its stay until leftAt.
func NewReceipt(slot *Slot, car *Car, leftAt time.Time, tariff Tariff) Receipt {
	parkedAt, ok := car.ParkedAt()
	if !ok {
		parkedAt = leftAt
	}

	return Receipt{
		ID:           uuid.New(),
		SlotID:       slot.ID(),
		SlotType:     slot.Type(),
		Registration: car.Registration(),
		Owner:        car.Owner(),
		ParkedAt:     parkedAt,
		LeftAt:       leftAt,
		Charge:       tariff.Charge(parkedAt, leftAt),
	}
}
