package metrics

import (
	"testing"

	"github.com/distatus/battery"
)

func TestAggregateBatteries_NoBattery(t *testing.T) {
	if got := aggregateBatteries(nil); got != nil {
		t.Errorf("Expected nil reading, got %+v", got)
	}
	if got := aggregateBatteries([]*battery.Battery{nil, {Full: 0}}); got != nil {
		t.Errorf("Batteries without capacity should be ignored, got %+v", got)
	}
}

func TestAggregateBatteries_Charging(t *testing.T) {
	got := aggregateBatteries([]*battery.Battery{
		{State: battery.State{Raw: battery.Charging}, Current: 30000, Full: 60000, ChargeRate: 15000},
	})

	if got == nil {
		t.Fatal("Expected reading")
	}
	if got.Percent != 50 {
		t.Errorf("Expected 50%%, got %.1f", got.Percent)
	}
	if !got.Plugged {
		t.Error("Charging battery should be plugged")
	}
	if got.SecondsLeft != nil {
		t.Errorf("Time left should be unknown while charging, got %d", *got.SecondsLeft)
	}
}

func TestAggregateBatteries_DischargingTwoPacks(t *testing.T) {
	got := aggregateBatteries([]*battery.Battery{
		{State: battery.State{Raw: battery.Discharging}, Current: 20000, Full: 40000, ChargeRate: 10000},
		{State: battery.State{Raw: battery.Full}, Current: 40000, Full: 40000},
	})

	if got == nil {
		t.Fatal("Expected reading")
	}
	if got.Percent != 75 {
		t.Errorf("Expected 75%%, got %.1f", got.Percent)
	}
	if got.Plugged {
		t.Error("Discharging battery means unplugged")
	}
	// 60000 mWh at 10000 mW = 6h
	if got.SecondsLeft == nil || *got.SecondsLeft != 6*3600 {
		t.Errorf("Expected 21600s left, got %v", got.SecondsLeft)
	}
}
