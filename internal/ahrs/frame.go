// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// frameRef is a reference quaternion that is either unset or ready.
type frameRef struct {
	q     quat.Number
	ready bool
}

func (r frameRef) get() (quat.Number, bool) { return r.q, r.ready }

// ReferenceFrame owns the home and zero reference rotations.
//
// home levels the sensor mounting tilt against gravity; zero re-centers the
// integrated orientation at the pose the user chose as neutral. Both start
// unset and are computed lazily on the next tick.
type ReferenceFrame struct {
	home frameRef
	zero frameRef
}

// Ready reports whether both references are set.
func (f *ReferenceFrame) Ready() bool {
	return f.home.ready && f.zero.ready
}

func (f *ReferenceFrame) Home() (quat.Number, bool) { return f.home.get() }
func (f *ReferenceFrame) Zero() (quat.Number, bool) { return f.zero.get() }

// Reposition unsets both references so the next tick captures a new level
// and a new zero.
func (f *ReferenceFrame) Reposition() {
	f.home = frameRef{}
	f.zero = frameRef{}
}

// Ensure initializes the references if either is unset: zero becomes the
// conjugate of current and home the rotation taking gravity onto +Z.
// On error nothing is changed.
func (f *ReferenceFrame) Ensure(current quat.Number, gravity r3.Vector) (initialized bool, err error) {
	if f.Ready() {
		return false, nil
	}
	home, err := FromGravity(gravity)
	if err != nil {
		return false, err
	}
	f.home = frameRef{q: home, ready: true}
	f.zero = frameRef{q: quat.Conj(current), ready: true}
	return true, nil
}

// ToReference rotates a device-frame vector by home and then by zero.
// Unset references act as the identity.
func (f *ReferenceFrame) ToReference(v r3.Vector) r3.Vector {
	if f.home.ready {
		v = Rotate(f.home.q, v)
	}
	if f.zero.ready {
		v = Rotate(f.zero.q, v)
	}
	return v
}

// zeroOrIdentity returns zero, or the identity while it is unset.
func (f *ReferenceFrame) zeroOrIdentity() quat.Number {
	if f.zero.ready {
		return f.zero.q
	}
	return Identity()
}

func (f *ReferenceFrame) homeOrIdentity() quat.Number {
	if f.home.ready {
		return f.home.q
	}
	return Identity()
}
