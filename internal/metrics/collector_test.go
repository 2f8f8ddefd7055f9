package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-park/internal/parking"
)

func fixture(t *testing.T) (*parking.CarPark, *parking.Ledger) {
	t.Helper()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	cp, err := parking.NewCarPark(2, 3)
	require.NoError(t, err)
	ledger := parking.NewLedger()

	park := func(slotID, reg string, staff bool) {
		car, err := parking.NewCar(reg, "Owner", staff)
		require.NoError(t, err)
		require.NoError(t, cp.ParkCar(slotID, car, start))
	}
	park("S01", "T1234", true)
	park("V01", "V0001", false)
	park("V02", "V0002", false)

	slot, car, err := cp.RemoveCar("V0002")
	require.NoError(t, err)
	ledger.Record(parking.NewReceipt(slot, car, start.Add(90*time.Minute), parking.DefaultTariff()))

	return cp, ledger
}

const expected = `
# HELP carpark_departures_total Cars removed from the car park.
# TYPE carpark_departures_total counter
carpark_departures_total{type="staff"} 0
carpark_departures_total{type="visitor"} 1
# HELP carpark_fees_collected_total Fees collected from departing cars.
# TYPE carpark_fees_collected_total counter
carpark_fees_collected_total{type="staff"} 0
carpark_fees_collected_total{type="visitor"} 12
# HELP carpark_slots Number of parking slots by type and occupancy.
# TYPE carpark_slots gauge
carpark_slots{occupied="false",type="staff"} 1
carpark_slots{occupied="true",type="staff"} 1
carpark_slots{occupied="false",type="visitor"} 2
carpark_slots{occupied="true",type="visitor"} 1
`

func TestCollector(t *testing.T) {
	cp, ledger := fixture(t)

	err := testutil.CollectAndCompare(NewCollector(cp, ledger), strings.NewReader(expected))
	assert.NoError(t, err)
}

func TestCollectorLint(t *testing.T) {
	cp, ledger := fixture(t)

	problems, err := testutil.CollectAndLint(NewCollector(cp, ledger))
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestCollectorNilSources(t *testing.T) {
	assert.Equal(t, 0, testutil.CollectAndCount(NewCollector(nil, nil)))

	cp, _ := fixture(t)
	assert.Equal(t, 4, testutil.CollectAndCount(NewCollector(cp, nil), "carpark_slots"))
}

func TestWriteTextfile(t *testing.T) {
	cp, ledger := fixture(t)
	path := filepath.Join(t.TempDir(), "carpark.prom")

	require.NoError(t, WriteTextfile(path, cp, ledger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `carpark_fees_collected_total{type="visitor"} 12`)
	assert.Contains(t, out, `carpark_slots{occupied="true",type="staff"} 1`)
}
