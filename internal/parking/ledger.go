package parking

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Ledger keeps the receipts issued during a session.
type Ledger struct {
	receipts []Receipt
	total    int64
}

func NewLedger() *Ledger {
	return &Ledger{
		receipts: make([]Receipt, 0),
	}
}

func (l *Ledger) Record(r Receipt) {
	l.receipts = append(l.receipts, r)
	l.total += r.Charge.Amount
}

func (l *Ledger) Total() int64 {
	return l.total
}

func (l *Ledger) Len() int {
	return len(l.receipts)
}

// Receipts returns a copy of all recorded receipts in issue order.
func (l *Ledger) Receipts() []Receipt {
	receipts := make([]Receipt, len(l.receipts))
	copy(receipts, l.receipts)
	return receipts
}

// TypeSummary aggregates departures from slots of one type.
type TypeSummary struct {
	Departures    int
	BillableHours int64
	Amount        int64
}

func (l *Ledger) Summary() map[SlotType]TypeSummary {
	summary := make(map[SlotType]TypeSummary)

	for _, r := range l.receipts {
		s := summary[r.SlotType]
		s.Departures++
		s.BillableHours += r.Charge.BillableHours
		s.Amount += r.Charge.Amount
		summary[r.SlotType] = s
	}

	return summary
}

// FormatSummary renders the takings per slot type. A nil printer uses English
// number formatting.
func (l *Ledger) FormatSummary(p *message.Printer, currency string) string {
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	if len(l.receipts) == 0 {
		return "No departures recorded"
	}

	summary := l.Summary()

	var b strings.Builder
	b.WriteString(p.Sprintf("Takings (Total: %s%d)\n", currency, l.total))
	b.WriteString("─────────────────────────────────────\n")
	for _, typ := range []SlotType{SlotTypeStaff, SlotTypeVisitor} {
		s, ok := summary[typ]
		if !ok {
			continue
		}
		b.WriteString(p.Sprintf("  %-7s %d departures, %d billable hours, %s%d\n",
			typ, s.Departures, s.BillableHours, currency, s.Amount))
	}
	return b.String()
}
