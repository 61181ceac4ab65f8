// Package metrics holds the logistics KPI model and the simulator that
// produces one KPI snapshot per tick via a bounded random walk.
package metrics

import (
	"time"
)

// Snapshot is one immutable reading of every tracked logistics KPI.
// Only the Simulator constructs snapshots; everything else reads copies.
type Snapshot struct {
	OnTimeDeliveryRate float64   `json:"on_time_delivery_rate"`
	AvgDeliveryTime    float64   `json:"avg_delivery_time"`
	PerfectOrderRate   float64   `json:"perfect_order_rate"`
	OrdersPerHour      float64   `json:"orders_per_hour"`
	OrderAccuracy      float64   `json:"order_accuracy"`
	StockoutRate       float64   `json:"stockout_rate"`
	PickPackCycleTime  float64   `json:"pick_pack_cycle_time"`
	TruckUtilization   float64   `json:"truck_utilization"`
	AvgDwellTime       float64   `json:"avg_dwell_time"`
	CostPerOrder       float64   `json:"cost_per_order"`
	OperatingRatio     float64   `json:"operating_ratio"`
	HoursDriven        float64   `json:"hours_driven"`
	IncidentRate       float64   `json:"incident_rate"`
	Timestamp          time.Time `json:"timestamp"`
}

// Field names, used as keys for per-field walk parameters. They match the
// JSON keys exposed over HTTP and WebSocket.
const (
	FieldOnTimeDeliveryRate = "on_time_delivery_rate"
	FieldAvgDeliveryTime    = "avg_delivery_time"
	FieldPerfectOrderRate   = "perfect_order_rate"
	FieldOrdersPerHour      = "orders_per_hour"
	FieldOrderAccuracy      = "order_accuracy"
	FieldStockoutRate       = "stockout_rate"
	FieldPickPackCycleTime  = "pick_pack_cycle_time"
	FieldTruckUtilization   = "truck_utilization"
	FieldAvgDwellTime       = "avg_dwell_time"
	FieldCostPerOrder       = "cost_per_order"
	FieldOperatingRatio     = "operating_ratio"
	FieldHoursDriven        = "hours_driven"
	FieldIncidentRate       = "incident_rate"
)

// walkField binds a parameter key to its slot in the snapshot so the walk
// can iterate all KPIs uniformly.
type walkField struct {
	name string
	get  func(*Snapshot) float64
	set  func(*Snapshot, float64)
}

var walkFields = []walkField{
	{FieldOnTimeDeliveryRate,
		func(s *Snapshot) float64 { return s.OnTimeDeliveryRate },
		func(s *Snapshot, v float64) { s.OnTimeDeliveryRate = v }},
	{FieldAvgDeliveryTime,
		func(s *Snapshot) float64 { return s.AvgDeliveryTime },
		func(s *Snapshot, v float64) { s.AvgDeliveryTime = v }},
	{FieldPerfectOrderRate,
		func(s *Snapshot) float64 { return s.PerfectOrderRate },
		func(s *Snapshot, v float64) { s.PerfectOrderRate = v }},
	{FieldOrdersPerHour,
		func(s *Snapshot) float64 { return s.OrdersPerHour },
		func(s *Snapshot, v float64) { s.OrdersPerHour = v }},
	{FieldOrderAccuracy,
		func(s *Snapshot) float64 { return s.OrderAccuracy },
		func(s *Snapshot, v float64) { s.OrderAccuracy = v }},
	{FieldStockoutRate,
		func(s *Snapshot) float64 { return s.StockoutRate },
		func(s *Snapshot, v float64) { s.StockoutRate = v }},
	{FieldPickPackCycleTime,
		func(s *Snapshot) float64 { return s.PickPackCycleTime },
		func(s *Snapshot, v float64) { s.PickPackCycleTime = v }},
	{FieldTruckUtilization,
		func(s *Snapshot) float64 { return s.TruckUtilization },
		func(s *Snapshot, v float64) { s.TruckUtilization = v }},
	{FieldAvgDwellTime,
		func(s *Snapshot) float64 { return s.AvgDwellTime },
		func(s *Snapshot, v float64) { s.AvgDwellTime = v }},
	{FieldCostPerOrder,
		func(s *Snapshot) float64 { return s.CostPerOrder },
		func(s *Snapshot, v float64) { s.CostPerOrder = v }},
	{FieldOperatingRatio,
		func(s *Snapshot) float64 { return s.OperatingRatio },
		func(s *Snapshot, v float64) { s.OperatingRatio = v }},
	{FieldHoursDriven,
		func(s *Snapshot) float64 { return s.HoursDriven },
		func(s *Snapshot, v float64) { s.HoursDriven = v }},
	{FieldIncidentRate,
		func(s *Snapshot) float64 { return s.IncidentRate },
		func(s *Snapshot, v float64) { s.IncidentRate = v }},
}

// FieldNames returns the parameter keys for every simulated KPI field.
func FieldNames() []string {
	out := make([]string, len(walkFields))
	for i, f := range walkFields {
		out[i] = f.name
	}
	return out
}
