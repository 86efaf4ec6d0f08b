package kinematics

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mat3 is a 3x3 rotation matrix in row-major order.
type Mat3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Rodrigues builds the rotation matrix for a turn of theta radians about
// the unit axis k, using the closed form
//
//	R = I + sin(theta)*K + (1 - cos(theta))*K^2
//
// where K is the skew-symmetric cross-product matrix of k.
func Rodrigues(k v3.Vec, theta float64) Mat3 {
	s := math.Sin(theta)
	c := math.Cos(theta)
	t := 1 - c

	return Mat3{
		{c + k.X*k.X*t, k.X*k.Y*t - k.Z*s, k.X*k.Z*t + k.Y*s},
		{k.Y*k.X*t + k.Z*s, c + k.Y*k.Y*t, k.Y*k.Z*t - k.X*s},
		{k.Z*k.X*t - k.Y*s, k.Z*k.Y*t + k.X*s, c + k.Z*k.Z*t},
	}
}

// Mul returns the matrix product a*b.
func (a Mat3) Mul(b Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return r
}

// MulVec returns the matrix-vector product a*v.
func (a Mat3) MulVec(v v3.Vec) v3.Vec {
	return v3.Vec{
		X: a[0][0]*v.X + a[0][1]*v.Y + a[0][2]*v.Z,
		Y: a[1][0]*v.X + a[1][1]*v.Y + a[1][2]*v.Z,
		Z: a[2][0]*v.X + a[2][1]*v.Y + a[2][2]*v.Z,
	}
}

// Transpose returns the matrix transpose, which for an orthonormal rotation
// is also its inverse.
func (a Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[j][i]
		}
	}
	return r
}

// Equals reports whether two matrices agree entrywise within tolerance.
func (a Mat3) Equals(b Mat3, tolerance float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tolerance {
				return false
			}
		}
	}
	return true
}

// Pose is a rigid transform expressing one body frame relative to another:
// rotation R followed by translation T.
type Pose struct {
	R Mat3
	T v3.Vec
}

// IdentityPose returns the pose of a frame relative to itself.
func IdentityPose() Pose {
	return Pose{R: Identity3()}
}

// Mul composes two poses: if p maps frame B into frame A and q maps frame C
// into frame B, p.Mul(q) maps frame C into frame A.
func (p Pose) Mul(q Pose) Pose {
	return Pose{
		R: p.R.Mul(q.R),
		T: p.R.MulVec(q.T).Add(p.T),
	}
}

// Inverse returns the reverse transform: R^T, -R^T*T.
func (p Pose) Inverse() Pose {
	rt := p.R.Transpose()
	return Pose{
		R: rt,
		T: rt.MulVec(p.T).Neg(),
	}
}

// Transform maps a point from the pose's source frame into its target frame.
func (p Pose) Transform(v v3.Vec) v3.Vec {
	return p.R.MulVec(v).Add(p.T)
}

// Equals reports whether two poses agree within tolerance in both rotation
// and translation.
func (p Pose) Equals(q Pose, tolerance float64) bool {
	return p.R.Equals(q.R, tolerance) && p.T.Equals(q.T, tolerance)
}
