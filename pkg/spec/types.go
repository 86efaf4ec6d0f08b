package spec

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NormalTolerance is the maximum deviation allowed between a face normal
// (or joint axis) and its expected unit direction.
const NormalTolerance = 1e-6

// BodyRole identifies one of the three rigid bodies of a module.
// ma is the "red" half, mb the "blue" half, ax the central piece
// between them. ax is never externally connectable.
type BodyRole string

const (
	BodyMA BodyRole = "ma"
	BodyAX BodyRole = "ax"
	BodyMB BodyRole = "mb"
)

// Roles lists the body roles in chain order.
var Roles = []BodyRole{BodyMA, BodyAX, BodyMB}

func (r BodyRole) Valid() bool {
	return r == BodyMA || r == BodyAX || r == BodyMB
}

// FaceID identifies one of the four external connector faces as the pair
// (half, direction). The module frame is right-handed: +X right, +Z up,
// +Y forward. No face points along Y.
type FaceID string

const (
	FaceMARight FaceID = "ma_right" // ma, +X
	FaceMADown  FaceID = "ma_down"  // ma, -Z
	FaceMBLeft  FaceID = "mb_left"  // mb, -X
	FaceMBUp    FaceID = "mb_up"    // mb, +Z
)

// FaceIDs lists all valid face identifiers, ma faces first.
var FaceIDs = []FaceID{FaceMARight, FaceMADown, FaceMBLeft, FaceMBUp}

func (id FaceID) Valid() bool {
	switch id {
	case FaceMARight, FaceMADown, FaceMBLeft, FaceMBUp:
		return true
	}
	return false
}

// Half returns the connectable half the face belongs to.
func (id FaceID) Half() BodyRole {
	switch id {
	case FaceMARight, FaceMADown:
		return BodyMA
	case FaceMBLeft, FaceMBUp:
		return BodyMB
	}
	return ""
}

// Direction returns the outward unit direction the face identifier implies,
// expressed in the module frame.
func (id FaceID) Direction() v3.Vec {
	switch id {
	case FaceMARight:
		return v3.Vec{X: 1}
	case FaceMADown:
		return v3.Vec{Z: -1}
	case FaceMBLeft:
		return v3.Vec{X: -1}
	case FaceMBUp:
		return v3.Vec{Z: 1}
	}
	return v3.Vec{}
}

// FaceSpec describes one external connector face in the local frame of
// its half.
type FaceSpec struct {
	ID          FaceID
	Position    v3.Vec // attachment point
	Normal      v3.Vec // outward unit normal, must match ID.Direction()
	Connectable bool
}

// JointSpec describes one internal rotational degree of freedom.
// Axis is a unit vector in the parent body's frame; Offset is the fixed
// translation from the parent frame to the joint frame. Range bounds are
// radians.
type JointSpec struct {
	Name   string
	Parent BodyRole
	Child  BodyRole
	Axis   v3.Vec
	Min    float64
	Max    float64
	Offset v3.Vec
}

// InRange reports whether angle q lies within the joint's declared range.
func (j JointSpec) InRange(q float64) bool {
	return q >= j.Min && q <= j.Max
}

// ModuleSpec is the validated description of one module. It owns exactly
// 4 faces (2 per connectable half) and exactly 2 joints forming the serial
// chain ma-ax-mb, in that order. Instances are immutable after New returns;
// consumers share them without copying.
type ModuleSpec struct {
	ModuleName string

	// Document body names, keyed by role so callers can map back to the
	// source description.
	MABody string
	AXBody string
	MBBody string

	Faces  []FaceSpec  // len 4, order: ma_right, ma_down, mb_left, mb_up
	Joints []JointSpec // len 2, chain order: ma-ax, ax-mb
}

// BodyName returns the document name of the body filling the given role.
func (m *ModuleSpec) BodyName(r BodyRole) string {
	switch r {
	case BodyMA:
		return m.MABody
	case BodyAX:
		return m.AXBody
	case BodyMB:
		return m.MBBody
	}
	return ""
}

// Face returns the face with the given identifier.
func (m *ModuleSpec) Face(id FaceID) (FaceSpec, bool) {
	for _, f := range m.Faces {
		if f.ID == id {
			return f, true
		}
	}
	return FaceSpec{}, false
}

// Joint returns the joint connecting parent to child, if one exists.
func (m *ModuleSpec) Joint(parent, child BodyRole) (JointSpec, bool) {
	for _, j := range m.Joints {
		if j.Parent == parent && j.Child == child {
			return j, true
		}
	}
	return JointSpec{}, false
}

// NominalOffset returns the static translation of mb relative to ma at the
// zero joint configuration, when neither joint contributes rotation.
func (m *ModuleSpec) NominalOffset() v3.Vec {
	var off v3.Vec
	for _, j := range m.Joints {
		off = off.Add(j.Offset)
	}
	return off
}
