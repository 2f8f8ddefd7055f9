// Package metrics exposes car park state as Prometheus metrics and writes them
// in the node_exporter textfile format.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"car-park/internal/parking"
)

var slotTypes = []parking.SlotType{parking.SlotTypeStaff, parking.SlotTypeVisitor}

// Collector reads slot occupancy from a car park and takings from a ledger
// each time it is collected.
type Collector struct {
	carPark *parking.CarPark
	ledger  *parking.Ledger

	slots      *prometheus.Desc
	fees       *prometheus.Desc
	departures *prometheus.Desc
}

func NewCollector(carPark *parking.CarPark, ledger *parking.Ledger) *Collector {
	return &Collector{
		carPark: carPark,
		ledger:  ledger,
		slots: prometheus.NewDesc("carpark_slots",
			"Number of parking slots by type and occupancy.",
			[]string{"type", "occupied"}, nil),
		fees: prometheus.NewDesc("carpark_fees_collected_total",
			"Fees collected from departing cars.",
			[]string{"type"}, nil),
		departures: prometheus.NewDesc("carpark_departures_total",
			"Cars removed from the car park.",
			[]string{"type"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.slots
	ch <- c.fees
	ch <- c.departures
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.carPark != nil {
		counts := make(map[parking.SlotType][2]int)
		for _, slot := range c.carPark.Slots() {
			n := counts[slot.Type()]
			if slot.IsOccupied() {
				n[1]++
			} else {
				n[0]++
			}
			counts[slot.Type()] = n
		}
		for _, typ := range slotTypes {
			n := counts[typ]
			for occupied, count := range n {
				ch <- prometheus.MustNewConstMetric(c.slots, prometheus.GaugeValue,
					float64(count), typ.String(), strconv.FormatBool(occupied == 1))
			}
		}
	}

	if c.ledger != nil {
		summary := c.ledger.Summary()
		for _, typ := range slotTypes {
			s := summary[typ]
			ch <- prometheus.MustNewConstMetric(c.fees, prometheus.CounterValue,
				float64(s.Amount), typ.String())
			ch <- prometheus.MustNewConstMetric(c.departures, prometheus.CounterValue,
				float64(s.Departures), typ.String())
		}
	}
}

// WriteTextfile writes the current metrics to path for node_exporter's
// textfile collector. The file is replaced atomically.
func WriteTextfile(path string, carPark *parking.CarPark, ledger *parking.Ledger) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(carPark, ledger)); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
