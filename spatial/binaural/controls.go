package binaural

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-spatial/spatial/sh"
)

// atomicFloat publishes a float64 across goroutines without locks.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

func (f *atomicFloat) Load() float64 { return math.Float64frombits(f.bits.Load()) }

// controls carries the listener orientation and fade parameters shared
// by both engines. Angles are stored in degrees with the flip signs
// already applied, the way the processing path consumes them; getters
// undo the flip so callers read back what they set.
type controls struct {
	yaw   atomicFloat
	pitch atomicFloat
	roll  atomicFloat

	flipYaw   atomic.Bool
	flipPitch atomic.Bool
	flipRoll  atomic.Bool

	rotationEnabled atomic.Bool
	rotationOrder   atomic.Int32
	fadeEnabled     atomic.Bool
}

func flipSign(v float64, flip bool) float64 {
	if flip {
		return -v
	}
	return v
}

// SetYaw sets the listener yaw in degrees, positive turning left.
func (c *controls) SetYaw(degrees float64) {
	c.yaw.Store(flipSign(degrees, c.flipYaw.Load()))
}

// SetPitch sets the listener pitch in degrees, positive looking up.
func (c *controls) SetPitch(degrees float64) {
	c.pitch.Store(flipSign(degrees, c.flipPitch.Load()))
}

// SetRoll sets the listener roll in degrees.
func (c *controls) SetRoll(degrees float64) {
	c.roll.Store(flipSign(degrees, c.flipRoll.Load()))
}

// Yaw returns the listener yaw in degrees as set by the caller.
func (c *controls) Yaw() float64 { return flipSign(c.yaw.Load(), c.flipYaw.Load()) }

// Pitch returns the listener pitch in degrees as set by the caller.
func (c *controls) Pitch() float64 { return flipSign(c.pitch.Load(), c.flipPitch.Load()) }

// Roll returns the listener roll in degrees as set by the caller.
func (c *controls) Roll() float64 { return flipSign(c.roll.Load(), c.flipRoll.Load()) }

// SetFlipYaw negates incoming yaw values, for head trackers reporting
// the opposite sign convention. The current angle is preserved.
func (c *controls) SetFlipYaw(flip bool) {
	if c.flipYaw.Load() == flip {
		return
	}
	current := c.Yaw()
	c.flipYaw.Store(flip)
	c.SetYaw(current)
}

// SetFlipPitch negates incoming pitch values. The current angle is
// preserved.
func (c *controls) SetFlipPitch(flip bool) {
	if c.flipPitch.Load() == flip {
		return
	}
	current := c.Pitch()
	c.flipPitch.Store(flip)
	c.SetPitch(current)
}

// SetFlipRoll negates incoming roll values. The current angle is
// preserved.
func (c *controls) SetFlipRoll(flip bool) {
	if c.flipRoll.Load() == flip {
		return
	}
	current := c.Roll()
	c.flipRoll.Store(flip)
	c.SetRoll(current)
}

// FlipYaw reports whether incoming yaw values are negated.
func (c *controls) FlipYaw() bool { return c.flipYaw.Load() }

// FlipPitch reports whether incoming pitch values are negated.
func (c *controls) FlipPitch() bool { return c.flipPitch.Load() }

// FlipRoll reports whether incoming roll values are negated.
func (c *controls) FlipRoll() bool { return c.flipRoll.Load() }

// SetRotationEnabled toggles listener rotation.
func (c *controls) SetRotationEnabled(enabled bool) { c.rotationEnabled.Store(enabled) }

// RotationEnabled reports whether listener rotation is applied.
func (c *controls) RotationEnabled() bool { return c.rotationEnabled.Load() }

// SetRotationOrder selects how yaw, pitch and roll compose.
func (c *controls) SetRotationOrder(order sh.RotationOrder) {
	c.rotationOrder.Store(int32(order))
}

// RotationOrder returns the active rotation composition order.
func (c *controls) RotationOrder() sh.RotationOrder {
	return sh.RotationOrder(c.rotationOrder.Load())
}

// SetFadeEnabled toggles fade-in/fade-out masking around rebuilds.
func (c *controls) SetFadeEnabled(enabled bool) { c.fadeEnabled.Store(enabled) }

// FadeEnabled reports whether rebuild fades are applied.
func (c *controls) FadeEnabled() bool { return c.fadeEnabled.Load() }

// angles returns the flip-applied orientation the processing path uses.
func (c *controls) angles() (yaw, pitch, roll float64) {
	return c.yaw.Load(), c.pitch.Load(), c.roll.Load()
}
