package kinematics

import (
	"fmt"

	"github.com/ubotlab/ubot/pkg/spec"
)

// JointRangeError reports a requested joint angle outside the joint's
// declared range. The engine never clamps; callers wanting clamped behavior
// must clamp before calling.
type JointRangeError struct {
	Joint string  // joint name from the spec
	Index int     // position in the chain-order angle vector
	Value float64 // requested angle, radians
	Min   float64
	Max   float64
}

func (e *JointRangeError) Error() string {
	return fmt.Sprintf("joint %s (q%d): angle %g outside range [%g, %g]",
		e.Joint, e.Index+1, e.Value, e.Min, e.Max)
}

// Poses bundles the three chain poses of one module configuration.
type Poses struct {
	AxInMa Pose // ax relative to ma, T1(q1)
	MbInAx Pose // mb relative to ax, T2(q2)
	MbInMa Pose // mb relative to ma, T1(q1)*T2(q2)
}

// JointTransform builds the homogeneous transform contributed by one joint
// at angle q: the joint's fixed translation offset combined with a Rodrigues
// rotation about its axis.
func JointTransform(j spec.JointSpec, q float64) Pose {
	return Pose{
		R: Rodrigues(j.Axis, q),
		T: j.Offset,
	}
}

// checkRange validates the angle vector against the spec's joint ranges.
func checkRange(m *spec.ModuleSpec, q [2]float64) error {
	for i, j := range m.Joints {
		if !j.InRange(q[i]) {
			return &JointRangeError{Joint: j.Name, Index: i, Value: q[i], Min: j.Min, Max: j.Max}
		}
	}
	return nil
}

// ForwardKinematics computes the chain poses for the joint configuration
// q = [q1, q2], one entry per joint in chain order. At q = [0, 0] the
// composed mb-in-ma pose reduces to the spec's nominal static offset.
func ForwardKinematics(m *spec.ModuleSpec, q [2]float64) (Poses, error) {
	if err := checkRange(m, q); err != nil {
		return Poses{}, err
	}
	t1 := JointTransform(m.Joints[0], q[0])
	t2 := JointTransform(m.Joints[1], q[1])
	return Poses{
		AxInMa: t1,
		MbInAx: t2,
		MbInMa: t1.Mul(t2),
	}, nil
}

// chainIndex maps each body role to its position along the serial chain.
var chainIndex = map[spec.BodyRole]int{
	spec.BodyMA: 0,
	spec.BodyAX: 1,
	spec.BodyMB: 2,
}

// PoseBetween computes the pose of body `of` expressed in the frame of body
// `in`, for any ordered pair along the chain. Adjacent and non-adjacent
// pairs compose in chain order; the reverse direction is the inverse of the
// forward composition. Identical bodies yield the identity pose.
func PoseBetween(m *spec.ModuleSpec, of, in spec.BodyRole, q [2]float64) (Pose, error) {
	from, ok := chainIndex[of]
	if !ok {
		return Pose{}, fmt.Errorf("unknown body role %q", of)
	}
	to, ok := chainIndex[in]
	if !ok {
		return Pose{}, fmt.Errorf("unknown body role %q", in)
	}
	if err := checkRange(m, q); err != nil {
		return Pose{}, err
	}

	if from == to {
		return IdentityPose(), nil
	}

	// Compose the joint transforms spanning [lo, hi) in chain order; that
	// yields the pose of body hi in the frame of body lo.
	lo, hi := to, from
	invert := false
	if lo > hi {
		lo, hi = hi, lo
		invert = true
	}
	p := IdentityPose()
	for i := lo; i < hi; i++ {
		p = p.Mul(JointTransform(m.Joints[i], q[i]))
	}
	if invert {
		p = p.Inverse()
	}
	return p, nil
}
