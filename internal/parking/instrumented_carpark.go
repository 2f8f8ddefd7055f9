package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedCarPark struct {
	*CarPark
	tariff    Tariff
	telemetry *TelemetryProvider

	// Metrics
	operations        metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	totalSlotsGauge   metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	feesCharged       metric.Int64Counter
}

func NewInstrumentedCarPark(carPark *CarPark, tariff Tariff, telemetry *TelemetryProvider) (*InstrumentedCarPark, error) {
	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("car_park_operations_total",
		metric.WithDescription("Total number of car park operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("car_park_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("car_park_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("car_park_operation_duration_seconds",
		metric.WithDescription("Duration of car park operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	feesCharged, err := meter.Int64Counter("car_park_fees_total",
		metric.WithDescription("Total fees charged on departure"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	icp := &InstrumentedCarPark{
		CarPark:           carPark,
		tariff:            tariff,
		telemetry:         telemetry,
		operations:        operations,
		occupancyGauge:    occupancyGauge,
		totalSlotsGauge:   totalSlotsGauge,
		operationDuration: operationDuration,
		feesCharged:       feesCharged,
	}

	ctx := context.Background()
	totalSlotsGauge.Add(ctx, int64(carPark.Len()))
	occupancyGauge.Add(ctx, int64(carPark.Occupied()))

	return icp, nil
}

func (icp *InstrumentedCarPark) Tariff() Tariff {
	return icp.tariff
}

// record finishes an operation: it sets the span status and records the
// operation counter and duration histogram.
func (icp *InstrumentedCarPark) record(ctx context.Context, span trace.Span, operation, status string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	labels := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	icp.operations.Add(ctx, 1, labels)
	icp.operationDuration.Record(ctx, time.Since(start).Seconds(), labels)
}

func (icp *InstrumentedCarPark) AddSlot(ctx context.Context, slot *Slot) bool {
	if slot == nil {
		return false
	}
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.add_slot",
		trace.WithAttributes(
			attribute.String("slot.id", slot.ID()),
			attribute.String("slot.type", slot.Type().String()),
		))
	defer span.End()

	start := time.Now()
	added := icp.CarPark.AddSlot(slot)

	status := "success"
	if added {
		// Only empty slots are accepted, so occupancy is unchanged.
		icp.totalSlotsGauge.Add(ctx, 1)
		span.AddEvent("slot_added")
	} else {
		status = "rejected"
		span.AddEvent("slot_exists_or_occupied")
	}
	icp.record(ctx, span, "add_slot", status, start, nil)

	return added
}

func (icp *InstrumentedCarPark) DeleteSlot(ctx context.Context, id string) bool {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.delete_slot",
		trace.WithAttributes(attribute.String("slot.id", id)))
	defer span.End()

	start := time.Now()
	deleted := icp.CarPark.DeleteSlot(id)

	status := "success"
	if deleted {
		icp.totalSlotsGauge.Add(ctx, -1)
		span.AddEvent("slot_deleted")
	} else {
		status = "rejected"
		span.AddEvent("slot_missing_or_occupied")
	}
	icp.record(ctx, span, "delete_slot", status, start, nil)

	return deleted
}

func (icp *InstrumentedCarPark) Slots(ctx context.Context) []*Slot {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.list_slots")
	defer span.End()

	start := time.Now()
	slots := icp.CarPark.Slots()

	span.SetAttributes(
		attribute.Int("slots_count", len(slots)),
		attribute.Int("occupied_slots_count", icp.CarPark.Occupied()),
	)
	icp.record(ctx, span, "list_slots", "success", start, nil)

	return slots
}

func (icp *InstrumentedCarPark) DeleteAllUnoccupied(ctx context.Context) bool {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.delete_all_unoccupied")
	defer span.End()

	start := time.Now()
	before := icp.CarPark.Len()
	removed := icp.CarPark.DeleteAllUnoccupied()
	deleted := before - icp.CarPark.Len()

	span.SetAttributes(attribute.Int("deleted_slots_count", deleted))

	status := "success"
	if removed {
		icp.totalSlotsGauge.Add(ctx, -int64(deleted))
	} else {
		status = "noop"
	}
	icp.record(ctx, span, "delete_all_unoccupied", status, start, nil)

	return removed
}

func (icp *InstrumentedCarPark) ParkCar(ctx context.Context, slotID string, car *Car, at time.Time) error {
	if car == nil {
		return ErrNoCar
	}
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.park_car",
		trace.WithAttributes(
			attribute.String("slot.id", slotID),
			attribute.String("car.registration", car.Registration()),
			attribute.Bool("car.staff_owner", car.IsStaff()),
		))
	defer span.End()

	start := time.Now()
	err := icp.CarPark.ParkCar(slotID, car, at)

	status := "success"
	if err != nil {
		status = failureStatus(err)
	} else {
		icp.occupancyGauge.Add(ctx, 1)
		span.AddEvent("car_parked")
	}
	icp.record(ctx, span, "park_car", status, start, err)

	return err
}

func (icp *InstrumentedCarPark) FindCar(ctx context.Context, registration string) (*Slot, bool) {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.find_car",
		trace.WithAttributes(attribute.String("car.registration", registration)))
	defer span.End()

	start := time.Now()
	slot, ok := icp.CarPark.FindSlotByRegistration(registration)

	status := "found"
	if ok {
		span.AddEvent("car_found", trace.WithAttributes(attribute.String("slot.id", slot.ID())))
	} else {
		status = "not_found"
		span.AddEvent("car_not_found")
	}
	icp.record(ctx, span, "find_car", status, start, nil)

	return slot, ok
}

// RemoveCar takes the car out of its slot and charges it at the car park's tariff.
func (icp *InstrumentedCarPark) RemoveCar(ctx context.Context, registration string, at time.Time) (Receipt, error) {
	ctx, span := icp.telemetry.Tracer().Start(ctx, "car_park.remove_car",
		trace.WithAttributes(attribute.String("car.registration", registration)))
	defer span.End()

	start := time.Now()
	slot, car, err := icp.CarPark.RemoveCar(registration)
	if err != nil {
		icp.record(ctx, span, "remove_car", failureStatus(err), start, err)
		return Receipt{}, err
	}

	receipt := NewReceipt(slot, car, at, icp.tariff)

	span.SetAttributes(
		attribute.String("slot.id", slot.ID()),
		attribute.String("receipt.id", receipt.ID.String()),
		attribute.Int64("receipt.amount", receipt.Charge.Amount),
	)
	icp.occupancyGauge.Add(ctx, -1)
	icp.feesCharged.Add(ctx, receipt.Charge.Amount,
		metric.WithAttributes(attribute.String("slot_type", slot.Type().String())))
	icp.record(ctx, span, "remove_car", "success", start, nil)

	return receipt, nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrCarNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotOccupied), errors.Is(err, ErrSlotEmpty):
		return "conflict"
	case errors.Is(err, ErrSlotTypeMismatch), errors.Is(err, ErrDuplicateRegistration), errors.Is(err, ErrNoCar):
		return "rejected"
	default:
		return "failed"
	}
}
