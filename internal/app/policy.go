package app

import "github.com/vocably/vocably/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickObserver
)

// Policy decides what happens to an observer whose send buffer is full.
type Policy interface {
	OnBackPressure(o core.ObserverSnap) BackpressureAction
}

// LossyPolicy drops the frame. The next broadcast carries the full
// snapshot anyway.
type LossyPolicy struct{}

func (LossyPolicy) OnBackPressure(core.ObserverSnap) BackpressureAction { return DropFrame }

// KickPolicy disconnects slow observers so they fall back to polling.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.ObserverSnap) BackpressureAction { return KickObserver }

// PolicyByName maps a config value to a policy. Unknown names are lossy.
func PolicyByName(name string) Policy {
	if name == "kick" {
		return KickPolicy{}
	}
	return LossyPolicy{}
}
