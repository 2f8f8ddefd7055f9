package parking

import (
	"strings"
	"testing"
	"time"
)

func receiptFor(t *testing.T, slotID string, typ SlotType, reg string, stay time.Duration) Receipt {
	t.Helper()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	slot, err := NewSlot(slotID, typ)
	if err != nil {
		t.Fatalf("NewSlot(%s): %v", slotID, err)
	}
	car, err := NewCar(reg, "Owner", typ == SlotTypeStaff)
	if err != nil {
		t.Fatalf("NewCar(%s): %v", reg, err)
	}
	if err := car.MarkParked(start); err != nil {
		t.Fatalf("MarkParked: %v", err)
	}

	return NewReceipt(slot, car, start.Add(stay), DefaultTariff())
}

func TestLedgerEmpty(t *testing.T) {
	l := NewLedger()

	if l.Len() != 0 {
		t.Errorf("Expected 0 receipts, got %d", l.Len())
	}
	if l.Total() != 0 {
		t.Errorf("Expected total 0, got %d", l.Total())
	}
	if len(l.Receipts()) != 0 {
		t.Errorf("Expected no receipts, got %d", len(l.Receipts()))
	}
	if len(l.Summary()) != 0 {
		t.Errorf("Expected empty summary, got %v", l.Summary())
	}
	if got := l.FormatSummary(nil, "$"); got != "No departures recorded" {
		t.Errorf("Expected 'No departures recorded', got %q", got)
	}
}

func TestLedgerRecord(t *testing.T) {
	l := NewLedger()
	l.Record(receiptFor(t, "S01", SlotTypeStaff, "T1234", 90*time.Minute))
	l.Record(receiptFor(t, "V01", SlotTypeVisitor, "V0001", 30*time.Minute))
	l.Record(receiptFor(t, "V02", SlotTypeVisitor, "V0002", 3*time.Hour))

	if l.Len() != 3 {
		t.Errorf("Expected 3 receipts, got %d", l.Len())
	}
	if l.Total() != 12+6+18 {
		t.Errorf("Expected total 36, got %d", l.Total())
	}

	receipts := l.Receipts()
	if len(receipts) != 3 {
		t.Fatalf("Expected 3 receipts, got %d", len(receipts))
	}
	if receipts[0].Registration != "T1234" || receipts[2].Registration != "V0002" {
		t.Errorf("Expected receipts in departure order, got %s..%s",
			receipts[0].Registration, receipts[2].Registration)
	}

	receipts[0].Registration = "X0000"
	if got := l.Receipts()[0].Registration; got != "T1234" {
		t.Errorf("Expected ledger to be unaffected, got %s", got)
	}
}

func TestLedgerSummary(t *testing.T) {
	l := NewLedger()
	l.Record(receiptFor(t, "S01", SlotTypeStaff, "T1234", 90*time.Minute))
	l.Record(receiptFor(t, "V01", SlotTypeVisitor, "V0001", 30*time.Minute))
	l.Record(receiptFor(t, "V02", SlotTypeVisitor, "V0002", 3*time.Hour))

	summary := l.Summary()
	if want := (TypeSummary{Departures: 1, BillableHours: 2, Amount: 12}); summary[SlotTypeStaff] != want {
		t.Errorf("Expected staff summary %+v, got %+v", want, summary[SlotTypeStaff])
	}
	if want := (TypeSummary{Departures: 2, BillableHours: 4, Amount: 24}); summary[SlotTypeVisitor] != want {
		t.Errorf("Expected visitor summary %+v, got %+v", want, summary[SlotTypeVisitor])
	}
}

func TestLedgerFormatSummary(t *testing.T) {
	l := NewLedger()
	l.Record(receiptFor(t, "V01", SlotTypeVisitor, "V0001", 30*time.Minute))

	out := l.FormatSummary(nil, "£")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "Takings (Total: £6)" {
		t.Errorf("Expected heading 'Takings (Total: £6)', got %q", lines[0])
	}
	if !strings.Contains(lines[2], "visitor") || !strings.Contains(lines[2], "1 departures, 1 billable hours, £6") {
		t.Errorf("Unexpected visitor line %q", lines[2])
	}
	if strings.Contains(out, "staff") {
		t.Errorf("Expected no staff line, got %q", out)
	}
}
