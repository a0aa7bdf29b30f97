package core

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"
)

const eps = 1e-9

func TestSupplyPowerOneMinuteAtNominalInput(t *testing.T) {
	p := NewPowerSystem(WithBatteryLevel(10))
	p.SetSolarInput(50)

	p.SupplyPower(60 * time.Second)

	want := 10 + 50.0*60/3600
	if got := p.BatteryLevel(); math.Abs(got-want) > eps {
		t.Fatalf("BatteryLevel() = %v, want %v", got, want)
	}
}

func TestConsumePowerFloorsAtZero(t *testing.T) {
	p := NewPowerSystem(WithBatteryLevel(0.1))
	p.ConsumePower(15, time.Minute)
	if got := p.BatteryLevel(); got != 0 {
		t.Fatalf("BatteryLevel() = %v, want 0", got)
	}
}

func TestSupplyPowerCapsAtCapacity(t *testing.T) {
	p := NewPowerSystem(WithBatteryLevel(99.9))
	p.SupplyPower(time.Hour)
	if got := p.BatteryLevel(); got != p.BatteryCapacity() {
		t.Fatalf("BatteryLevel() = %v, want capacity %v", got, p.BatteryCapacity())
	}
}

func TestNewPowerSystemClampsInitialLevel(t *testing.T) {
	if got := NewPowerSystem(WithBatteryLevel(250)).BatteryLevel(); got != DefaultBatteryCapacityWh {
		t.Fatalf("over-full battery = %v, want %v", got, DefaultBatteryCapacityWh)
	}
	if got := NewPowerSystem(WithBatteryLevel(-4)).BatteryLevel(); got != 0 {
		t.Fatalf("negative battery = %v, want 0", got)
	}
}

func TestBatteryStaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewPowerSystem(WithBatteryCapacity(50), WithBatteryLevel(25))

	for i := 0; i < 5000; i++ {
		d := time.Duration(rng.Intn(3600)) * time.Second
		if rng.Intn(2) == 0 {
			p.ConsumePower(rng.Float64()*200, d)
		} else {
			p.SetSolarInput(rng.Float64() * 200)
			p.SupplyPower(d)
		}
		if lvl := p.BatteryLevel(); lvl < 0 || lvl > p.BatteryCapacity() {
			t.Fatalf("step %d: battery %v outside [0, %v]", i, lvl, p.BatteryCapacity())
		}
	}
}

func TestAdjustOrientationAppliesBoostOnce(t *testing.T) {
	ctx := context.Background()
	p := NewPowerSystem()
	p.SetSolarInput(50)

	p.AdjustOrientationForSolar(ctx)
	p.AdjustOrientationForSolar(ctx)

	if got := p.SolarInput(); got != 65 {
		t.Fatalf("SolarInput() = %v, want 65", got)
	}
	if !p.OrientationAdjusted() {
		t.Fatalf("OrientationAdjusted() = false, want true")
	}
}

// Resetting the adjustment only clears the flag; the boost stays in the solar
// input until the next SetSolarInput overwrites it.
func TestResetOrientationAdjustmentKeepsBoost(t *testing.T) {
	ctx := context.Background()
	p := NewPowerSystem()
	p.SetSolarInput(50)
	p.AdjustOrientationForSolar(ctx)

	p.ResetOrientationAdjustment()
	if p.OrientationAdjusted() {
		t.Fatalf("OrientationAdjusted() = true after reset")
	}
	if got := p.SolarInput(); got != 65 {
		t.Fatalf("SolarInput() after reset = %v, want 65 (boost persists)", got)
	}

	p.AdjustOrientationForSolar(ctx)
	if got := p.SolarInput(); got != 80 {
		t.Fatalf("SolarInput() after second adjustment = %v, want 80", got)
	}

	p.SetSolarInput(50)
	if got := p.SolarInput(); got != 50 {
		t.Fatalf("SolarInput() = %v, want 50", got)
	}
}

func TestPowerUpdateOnlySupplies(t *testing.T) {
	p := NewPowerSystem(WithBatteryLevel(20))
	p.SetSolarInput(0)
	p.Update(context.Background(), time.Hour)
	if got := p.BatteryLevel(); got != 20 {
		t.Fatalf("BatteryLevel() = %v, want 20", got)
	}
}

func TestPowerStatus(t *testing.T) {
	p := NewPowerSystem()
	p.ConsumePower(10, 60*time.Second)
	if got, want := p.Status(), "Battery: 79.83 Wh | Solar In: 50.0 W"; got != want {
		t.Fatalf("Status() = %q, want %q", got, want)
	}
}
