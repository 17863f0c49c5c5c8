package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/distatus/battery"
)

// Battery aggregates all batteries into one reading. Machines without a
// battery return nil, nil.
func (s *SystemSampler) Battery(ctx context.Context) (*BatteryReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batteries, err := battery.GetAll()
	if err != nil {
		var fatal battery.ErrFatal
		if errors.As(err, &fatal) {
			return nil, fmt.Errorf("battery: %w", err)
		}
		// Per-battery partial errors: use whatever fields were read
	}

	return aggregateBatteries(batteries), nil
}

// aggregateBatteries sums capacity across packs. Time left is only known
// while discharging at a non-zero rate.
func aggregateBatteries(batteries []*battery.Battery) *BatteryReading {
	var current, full, rate float64
	discharging := false
	found := false

	for _, b := range batteries {
		if b == nil || b.Full <= 0 {
			continue
		}
		found = true
		current += b.Current
		full += b.Full
		if b.State.Raw == battery.Discharging {
			discharging = true
			rate += b.ChargeRate
		}
	}

	if !found {
		return nil
	}

	reading := &BatteryReading{
		Percent: current / full * 100,
		Plugged: !discharging,
	}
	if discharging && rate > 0 {
		secs := int64(current / rate * 3600)
		reading.SecondsLeft = &secs
	}
	return reading
}
