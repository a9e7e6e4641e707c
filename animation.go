package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// AnimationFPS is the frame rate the TUI ticks the coordinator at
const AnimationFPS = 60

const (
	restScale    = 1.0
	pressedScale = 0.95
	settleEps    = 0.002

	// pressHoldFrames bounds the press phase so a slow spring still releases
	pressHoldFrames = 12
)

// AnimationState holds the three purely visual values. Only the renderer reads it.
type AnimationState struct {
	SearchWidth   float64
	ButtonScale   float64
	ResultOpacity float64
}

// springValue is one animated channel: a target plus the curve that chases it
type springValue struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
}

func newSpringValue(fps int, freq, damping, start float64) springValue {
	return springValue{
		spring: harmonica.NewSpring(harmonica.FPS(fps), freq, damping),
		pos:    start,
		target: start,
	}
}

func (v *springValue) step() {
	v.pos, v.vel = v.spring.Update(v.pos, v.vel, v.target)
}

func (v *springValue) snap() {
	v.pos = v.target
	v.vel = 0
}

func (v *springValue) settled() bool {
	return math.Abs(v.pos-v.target) < settleEps && math.Abs(v.vel) < settleEps
}

// AnimationCoordinator recomputes animation targets from lifecycle
// transitions. In snap mode every target is applied immediately, which is
// what headless runs and tests use.
type AnimationCoordinator struct {
	width   springValue
	scale   springValue
	opacity springValue

	layoutWidth float64
	pressing    bool
	pressFrames int
	snapMode    bool
}

// NewAnimationCoordinator creates a coordinator at rest: full-width search bar,
// button at scale 1 and a hidden result panel.
func NewAnimationCoordinator(fps int, layoutWidth float64, snap bool) *AnimationCoordinator {
	if fps <= 0 {
		fps = AnimationFPS
	}
	return &AnimationCoordinator{
		width:       newSpringValue(fps, 8.0, 1.0, layoutWidth),
		scale:       newSpringValue(fps, 18.0, 0.5, restScale),
		opacity:     newSpringValue(fps, 6.0, 0.45, 0),
		layoutWidth: layoutWidth,
		snapMode:    snap,
	}
}

// SnapMode reports whether targets are applied without animating
func (a *AnimationCoordinator) SnapMode() bool {
	return a.snapMode
}

// SetLayoutWidth updates the search bar's rest width after a resize. The
// bar follows the terminal immediately; submissions spring it back to this width.
func (a *AnimationCoordinator) SetLayoutWidth(w float64) {
	a.layoutWidth = w
	a.width.target = w
	a.width.snap()
}

// OnTransition is registered with the Lifecycle
func (a *AnimationCoordinator) OnTransition(from, to RequestState) {
	switch {
	case to.Phase == PhaseSubmitting:
		a.startPress()
		a.width.target = a.layoutWidth
	case from.Phase == PhaseSubmitting && to.Phase == PhaseSuccess:
		a.opacity.target = 1
	}
	// Failure: no result to fade in

	if a.snapMode {
		a.Snap()
	}
}

func (a *AnimationCoordinator) startPress() {
	a.pressing = true
	a.pressFrames = 0
	a.scale.target = pressedScale
}

// Step advances every channel by one frame and reports whether anything is
// still moving.
func (a *AnimationCoordinator) Step() bool {
	if a.snapMode {
		a.Snap()
		return false
	}

	a.width.step()
	a.scale.step()
	a.opacity.step()

	if a.pressing {
		a.pressFrames++
		if math.Abs(a.scale.pos-pressedScale) < 0.005 || a.pressFrames >= pressHoldFrames {
			a.pressing = false
			a.scale.target = restScale
		}
	}

	return !a.Settled()
}

// Settled reports whether every channel has reached its target
func (a *AnimationCoordinator) Settled() bool {
	return !a.pressing && a.width.settled() && a.scale.settled() && a.opacity.settled()
}

// Snap jumps every channel to its final resting value
func (a *AnimationCoordinator) Snap() {
	if a.pressing {
		a.pressing = false
		a.scale.target = restScale
	}
	a.width.snap()
	a.scale.snap()
	a.opacity.snap()
}

// Values returns the current visual values, opacity clamped to [0,1]
func (a *AnimationCoordinator) Values() AnimationState {
	return AnimationState{
		SearchWidth:   a.width.pos,
		ButtonScale:   a.scale.pos,
		ResultOpacity: math.Max(0, math.Min(1, a.opacity.pos)),
	}
}
