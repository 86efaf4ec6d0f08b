package spec

import (
	"fmt"
	"math"
)

// ValidationError describes a single violated module invariant.
type ValidationError struct {
	Code    string
	Message string
	Face    FaceID // zero unless the finding concerns a face
	Joint   string // zero unless the finding concerns a joint
}

func (e ValidationError) Error() string {
	context := ""
	if e.Face != "" {
		context = fmt.Sprintf(" (face: %s)", e.Face)
	}
	if e.Joint != "" {
		context = fmt.Sprintf(" (joint: %s)", e.Joint)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, e.Message, context)
}

// Validate runs every structural check on the module description and
// returns all findings. An empty slice means the spec is well formed.
// Validate never mutates the spec.
func Validate(m *ModuleSpec) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateBodies(m)...)
	errs = append(errs, validateFaces(m)...)
	errs = append(errs, validateJoints(m)...)
	return errs
}

func validateBodies(m *ModuleSpec) []ValidationError {
	var errs []ValidationError
	for _, r := range Roles {
		if m.BodyName(r) == "" {
			errs = append(errs, ValidationError{
				Code:    "MISSING_BODY",
				Message: fmt.Sprintf("no document body fills the %s role", r),
			})
		}
	}
	return errs
}

func validateFaces(m *ModuleSpec) []ValidationError {
	var errs []ValidationError

	if len(m.Faces) != len(FaceIDs) {
		errs = append(errs, ValidationError{
			Code:    "FACE_COUNT",
			Message: fmt.Sprintf("module must carry exactly %d faces, got %d", len(FaceIDs), len(m.Faces)),
		})
	}

	seen := make(map[FaceID]int)
	for _, f := range m.Faces {
		if !f.ID.Valid() {
			errs = append(errs, ValidationError{
				Code:    "UNKNOWN_FACE",
				Message: fmt.Sprintf("face identifier %q is not one of the four module faces", f.ID),
				Face:    f.ID,
			})
			continue
		}
		seen[f.ID]++

		if math.Abs(f.Normal.Length()-1) > NormalTolerance {
			errs = append(errs, ValidationError{
				Code:    "NON_UNIT_NORMAL",
				Message: fmt.Sprintf("normal has length %.9f, must be unit", f.Normal.Length()),
				Face:    f.ID,
			})
			continue
		}
		if !f.Normal.Equals(f.ID.Direction(), NormalTolerance) {
			errs = append(errs, ValidationError{
				Code: "NORMAL_MISMATCH",
				Message: fmt.Sprintf("normal (%g, %g, %g) does not match the direction implied by %s",
					f.Normal.X, f.Normal.Y, f.Normal.Z, f.ID),
				Face: f.ID,
			})
		}
	}

	for id, n := range seen {
		if n > 1 {
			errs = append(errs, ValidationError{
				Code:    "DUPLICATE_FACE",
				Message: fmt.Sprintf("face declared %d times", n),
				Face:    id,
			})
		}
	}
	if len(m.Faces) == len(FaceIDs) {
		for _, id := range FaceIDs {
			if seen[id] == 0 {
				errs = append(errs, ValidationError{
					Code:    "MISSING_FACE",
					Message: "face is required on every module",
					Face:    id,
				})
			}
		}
	}

	return errs
}

// chain is the only legal internal joint topology: a 2-DOF serial chain.
var chain = [2]struct{ parent, child BodyRole }{
	{BodyMA, BodyAX},
	{BodyAX, BodyMB},
}

func validateJoints(m *ModuleSpec) []ValidationError {
	var errs []ValidationError

	if len(m.Joints) != len(chain) {
		errs = append(errs, ValidationError{
			Code:    "JOINT_COUNT",
			Message: fmt.Sprintf("module must carry exactly %d internal joints, got %d", len(chain), len(m.Joints)),
		})
		return errs
	}

	for i, j := range m.Joints {
		want := chain[i]
		if j.Parent != want.parent || j.Child != want.child {
			errs = append(errs, ValidationError{
				Code: "JOINT_CHAIN",
				Message: fmt.Sprintf("joint %d links %s-%s, chain order requires %s-%s",
					i, j.Parent, j.Child, want.parent, want.child),
				Joint: j.Name,
			})
		}
		if math.Abs(j.Axis.Length()-1) > NormalTolerance {
			errs = append(errs, ValidationError{
				Code:    "NON_UNIT_AXIS",
				Message: fmt.Sprintf("axis has length %.9f, must be unit", j.Axis.Length()),
				Joint:   j.Name,
			})
		}
		if j.Min > j.Max {
			errs = append(errs, ValidationError{
				Code:    "INVERTED_RANGE",
				Message: fmt.Sprintf("range [%g, %g] has min > max", j.Min, j.Max),
				Joint:   j.Name,
			})
		}
	}

	return errs
}
