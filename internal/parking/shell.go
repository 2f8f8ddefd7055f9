package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"car-park/internal/logging"
	"car-park/internal/style"
)

const timeLayout = "2006-01-02 15:04:05"

type ShellOptions struct {
	In  io.Reader
	Out io.Writer
	// Echo writes every line read back to Out, for scripted (non-terminal) input.
	Echo bool
	Now  func() time.Time

	Tariff   Tariff
	Currency string

	// StaffSlots and VisitorSlots skip the startup prompts when set.
	StaffSlots   *int
	VisitorSlots *int
}

type Shell struct {
	carPark   *InstrumentedCarPark
	ledger    *Ledger
	scanner   *bufio.Scanner
	out       io.Writer
	echo      bool
	now       func() time.Time
	tariff    Tariff
	currency  string
	printer   *message.Printer
	telemetry *TelemetryProvider

	staffSlots   *int
	visitorSlots *int
}

func NewShell(telemetry *TelemetryProvider, opts ShellOptions) *Shell {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tariff := opts.Tariff
	if tariff.HourlyRate == 0 {
		tariff = DefaultTariff()
	}
	currency := opts.Currency
	if currency == "" {
		currency = "$"
	}

	return &Shell{
		ledger:       NewLedger(),
		scanner:      bufio.NewScanner(opts.In),
		out:          opts.Out,
		echo:         opts.Echo,
		now:          now,
		tariff:       tariff,
		currency:     currency,
		printer:      message.NewPrinter(language.English),
		telemetry:    telemetry,
		staffSlots:   opts.StaffSlots,
		visitorSlots: opts.VisitorSlots,
	}
}

// CarPark returns the car park built at startup, or nil before Run.
func (s *Shell) CarPark() *CarPark {
	if s.carPark == nil {
		return nil
	}
	return s.carPark.CarPark
}

func (s *Shell) Ledger() *Ledger {
	return s.ledger
}

// Run initializes the car park and serves the menu until the user exits or
// input ends.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	if err := s.initCarPark(ctx); err != nil {
		// Input ending before the car park exists is a clean exit.
		if errors.Is(err, io.EOF) {
			return nil
		}
		span.RecordError(err)
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		s.printMenu()
		choice, err := s.readNonNegativeInt("Select option: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				span.AddEvent("input_closed")
				return nil
			}
			return err
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.Int("command.choice", choice)))
		exit, err := s.processCommand(cmdCtx, choice)
		cmdSpan.End()

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if exit {
			span.AddEvent("shell_ended")
			return nil
		}
	}
}

func (s *Shell) initCarPark(ctx context.Context) error {
	s.println(style.Heading.Render("=== Initialize Car Park ==="))

	var carPark *CarPark
	var staffCount, visitorCount int
	for {
		var err error
		staffCount, err = s.presetOrPrompt(s.staffSlots, "Enter number of staff slots: ")
		if err != nil {
			return err
		}
		visitorCount, err = s.presetOrPrompt(s.visitorSlots, "Enter number of visitor slots: ")
		if err != nil {
			return err
		}

		carPark, err = NewCarPark(staffCount, visitorCount)
		if err == nil {
			break
		}
		// Re-prompting cannot fix a bad preset.
		if badCount(s.staffSlots) || badCount(s.visitorSlots) {
			return err
		}
		s.fail(fmt.Sprintf("Cannot create %d staff and %d visitor slots: at most %d of each.",
			staffCount, visitorCount, MaxSlotsPerType))
	}

	var err error
	s.carPark, err = NewInstrumentedCarPark(carPark, s.tariff, s.telemetry)
	if err != nil {
		return fmt.Errorf("instrumenting car park: %w", err)
	}

	logging.Info(ctx).
		Int("staff_slots", staffCount).
		Int("visitor_slots", visitorCount).
		Msg("car park created")

	s.printf("Car park created with %d staff slots and %d visitor slots.\n\n", staffCount, visitorCount)
	s.println("Current parking slots and status:")
	s.listAllSlots(ctx)
	s.println()
	return nil
}

func badCount(preset *int) bool {
	return preset != nil && (*preset < 0 || *preset > MaxSlotsPerType)
}

func (s *Shell) presetOrPrompt(preset *int, prompt string) (int, error) {
	if preset != nil {
		return *preset, nil
	}
	return s.readNonNegativeInt(prompt)
}

func (s *Shell) printMenu() {
	s.println(style.Heading.Render("=== Menu ==="))
	s.println("1. Add a parking slot")
	s.println("2. Delete a parking slot")
	s.println("3. List all slots")
	s.println("4. Delete all unoccupied slots")
	s.println("5. Park a car")
	s.println("6. Find a car")
	s.println("7. Remove a car")
	s.println("8. Show takings")
	s.println("9. Exit")
}

func (s *Shell) processCommand(ctx context.Context, choice int) (bool, error) {
	logging.Debug(ctx).Int("choice", choice).Msg("command selected")

	switch choice {
	case 1:
		return false, s.addParkingSlot(ctx)
	case 2:
		return false, s.deleteParkingSlot(ctx)
	case 3:
		s.listAllSlots(ctx)
	case 4:
		s.deleteAllUnoccupied(ctx)
	case 5:
		return false, s.parkCar(ctx)
	case 6:
		return false, s.findCar(ctx)
	case 7:
		return false, s.removeCar(ctx)
	case 8:
		s.showTakings()
	case 9:
		s.println("Program end!")
		return true, nil
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		s.println("Invalid choice. Please select 1 to 9.")
	}
	return false, nil
}

func (s *Shell) addParkingSlot(ctx context.Context) error {
	s.println(style.Heading.Render("--- Add Parking Slot ---"))
	id, err := s.readSlotID("Enter slot ID (e.g. S01): ")
	if err != nil {
		return err
	}
	code, err := s.readSlotTypeCode("Enter slot type (1 = staff, 0 = visitor): ")
	if err != nil {
		return err
	}

	typ := SlotTypeVisitor
	if code == 1 {
		typ = SlotTypeStaff
	}

	slot, err := NewSlot(id, typ)
	if err != nil {
		s.fail(err.Error())
		return nil
	}

	if s.carPark.AddSlot(ctx, slot) {
		logging.Info(ctx).Str("slot_id", id).Stringer("slot_type", typ).Msg("slot added")
		s.succeed("Slot added successfully.")
	} else {
		s.warn("Failed to add slot. It may already exist.")
	}
	return nil
}

func (s *Shell) deleteParkingSlot(ctx context.Context) error {
	s.println(style.Heading.Render("--- Delete Parking Slot ---"))
	id, err := s.readSlotID("Enter slot ID to delete: ")
	if err != nil {
		return err
	}

	if s.carPark.DeleteSlot(ctx, id) {
		logging.Info(ctx).Str("slot_id", id).Msg("slot deleted")
		s.succeed("Slot deleted.")
	} else {
		s.warn("Cannot delete slot. It may not exist or is occupied.")
	}
	return nil
}

func (s *Shell) listAllSlots(ctx context.Context) {
	s.println(style.Heading.Render("--- List All Slots ---"))
	slots := s.carPark.Slots(ctx)
	if len(slots) == 0 {
		s.println("No slots in the car park.")
		return
	}

	now := s.now()
	s.println(style.Bold.Render(fmt.Sprintf("%-5s %-7s %-9s %-10s %-8s %-20s %-6s",
		"ID", "Type", "Occupied", "RegNum", "Owner", "ParkTime", "Fee")))
	for _, slot := range slots {
		occupied, reg, owner, parkTime, fee := "No", "-", "-", "-", "-"
		if car, ok := slot.Car(); ok {
			occupied = "Yes"
			reg = car.Registration()
			owner = car.Owner()
			if parkedAt, ok := car.ParkedAt(); ok {
				parkTime = parkedAt.Format(timeLayout)
				charge := s.carPark.Tariff().Charge(parkedAt, now)
				fee = fmt.Sprintf("%s %s", charge.Elapsed, s.money(charge.Amount))
			}
		}
		s.printf("%-5s %-7s %-9s %-10s %-8s %-20s %-6s\n",
			slot.ID(), slot.Type(), occupied, reg, owner, parkTime, fee)
	}
}

func (s *Shell) deleteAllUnoccupied(ctx context.Context) {
	s.println(style.Heading.Render("--- Delete All Unoccupied Slots ---"))
	if s.carPark.DeleteAllUnoccupied(ctx) {
		logging.Info(ctx).Int("remaining_slots", s.carPark.Len()).Msg("unoccupied slots deleted")
		s.succeed("All unoccupied slots deleted.")
	} else {
		s.warn("No unoccupied slots to delete.")
	}
}

func (s *Shell) parkCar(ctx context.Context) error {
	s.println(style.Heading.Render("--- Park a Car ---"))
	slotID, err := s.readSlotID("Enter slot ID: ")
	if err != nil {
		return err
	}

	slot, ok := s.carPark.FindSlotByID(slotID)
	if !ok {
		s.warn("Slot not found.")
		return nil
	}
	if slot.IsOccupied() {
		s.warn("Slot is already occupied.")
		return nil
	}

	reg, err := s.readRegistration("Enter car registration (e.g. T1234): ")
	if err != nil {
		return err
	}
	owner, err := s.readLine("Enter owner name: ")
	if err != nil {
		return err
	}
	answer, err := s.readLine("Is owner staff? (yes/no): ")
	if err != nil {
		return err
	}
	isStaff := strings.EqualFold(answer, "yes")

	if !slot.Type().Accepts(isStaff) {
		s.warn("Car type doesn't match slot type.")
		return nil
	}

	car, err := NewCar(reg, owner, isStaff)
	if err != nil {
		s.fail(err.Error())
		return nil
	}

	if err := s.carPark.ParkCar(ctx, slotID, car, s.now()); err != nil {
		if errors.Is(err, ErrDuplicateRegistration) {
			where, _ := s.carPark.FindSlotByRegistration(reg)
			s.warn(fmt.Sprintf("Car %s is already parked in slot %s.", reg, where.ID()))
			return nil
		}
		s.fail(err.Error())
		return nil
	}

	parkedAt, _ := car.ParkedAt()
	logging.Info(ctx).Str("slot_id", slotID).Str("registration", reg).Msg("car parked")
	s.succeed("Car parked at " + parkedAt.Format(timeLayout))
	return nil
}

func (s *Shell) findCar(ctx context.Context) error {
	s.println(style.Heading.Render("--- Find a Car ---"))
	reg, err := s.readLine("Enter registration number: ")
	if err != nil {
		return err
	}

	slot, ok := s.carPark.FindCar(ctx, reg)
	if !ok {
		s.warn("Car not found.")
		return nil
	}

	car, _ := slot.Car()
	s.printf("Found in slot %s, owner: %s\n", slot.ID(), car.Owner())
	if parkedAt, ok := car.ParkedAt(); ok {
		charge := s.carPark.Tariff().Charge(parkedAt, s.now())
		s.printf("Parked for %s, Fee: %s\n", charge.Elapsed, s.money(charge.Amount))
	}
	return nil
}

func (s *Shell) removeCar(ctx context.Context) error {
	s.println(style.Heading.Render("--- Remove a Car ---"))
	reg, err := s.readLine("Enter registration number: ")
	if err != nil {
		return err
	}

	receipt, err := s.carPark.RemoveCar(ctx, reg, s.now())
	if err != nil {
		if errors.Is(err, ErrCarNotFound) {
			s.warn("Car not found.")
			return nil
		}
		s.fail(err.Error())
		return nil
	}

	s.ledger.Record(receipt)
	logging.Info(ctx).
		Str("receipt_id", receipt.ID.String()).
		Str("slot_id", receipt.SlotID).
		Str("registration", receipt.Registration).
		Int64("amount", receipt.Charge.Amount).
		Msg("car removed")

	s.succeed("Car removed from slot " + receipt.SlotID)
	s.printf("Receipt %s: parked %s, %d billable hours, Fee: %s\n",
		receipt.ID, receipt.Charge.Elapsed, receipt.Charge.BillableHours, s.money(receipt.Charge.Amount))
	return nil
}

func (s *Shell) showTakings() {
	s.println(style.Heading.Render("--- Takings ---"))
	s.print(s.ledger.FormatSummary(s.printer, s.currency))
	if s.ledger.Len() == 0 {
		s.println()
	}
}

func (s *Shell) readLine(prompt string) (string, error) {
	s.print(prompt)
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		s.println()
		return "", io.EOF
	}
	line := strings.TrimSpace(s.scanner.Text())
	if s.echo {
		s.println(line)
	}
	return line, nil
}

func (s *Shell) readNonNegativeInt(prompt string) (int, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 0 {
			return n, nil
		}
		s.println("Please enter a non-negative integer.")
	}
}

func (s *Shell) readSlotID(prompt string) (string, error) {
	for {
		id, err := s.readLine(prompt)
		if err != nil {
			return "", err
		}
		if ValidSlotID(id) {
			return id, nil
		}
		s.println("Incorrect format, please enter the correct slot format e.g. S01")
	}
}

func (s *Shell) readRegistration(prompt string) (string, error) {
	for {
		reg, err := s.readLine(prompt)
		if err != nil {
			return "", err
		}
		if ValidRegistration(reg) {
			return reg, nil
		}
		s.println("Incorrect format, please enter the correct registration format e.g. T1234")
	}
}

func (s *Shell) readSlotTypeCode(prompt string) (int, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		switch line {
		case "1":
			return 1, nil
		case "0":
			return 0, nil
		}
		s.println("Incorrect value, please enter 1 for staff or 0 for visitor.")
	}
}

func (s *Shell) money(amount int64) string {
	return s.printer.Sprintf("%s%d", s.currency, amount)
}

func (s *Shell) succeed(msg string) {
	s.println(style.SuccessPrefix + " " + msg)
}

func (s *Shell) warn(msg string) {
	s.println(style.WarningPrefix + " " + msg)
}

func (s *Shell) fail(msg string) {
	s.println(style.ErrorPrefix + " " + msg)
}

func (s *Shell) print(a ...any) {
	fmt.Fprint(s.out, a...)
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
