package spec_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/ubotlab/ubot/pkg/spec"
)

// validConfig returns raw data describing a well-formed module: two joints
// in chain order and one face per FaceID, each offset 0.05 along its normal.
func validConfig() spec.Config {
	faces := make([]spec.FaceSpec, 0, 4)
	for _, id := range spec.FaceIDs {
		faces = append(faces, spec.FaceSpec{
			ID:          id,
			Position:    id.Direction().MulScalar(0.05),
			Normal:      id.Direction(),
			Connectable: true,
		})
	}
	return spec.Config{
		ModuleName: "ubot_module",
		MABody:     "ma_half",
		AXBody:     "ax_center",
		MBBody:     "mb_half",
		Faces:      faces,
		Joints: []spec.JointSpec{
			{
				Name: "j_ma_ax", Parent: spec.BodyMA, Child: spec.BodyAX,
				Axis: v3.Vec{Z: 1}, Min: -1.5708, Max: 1.5708,
				Offset: v3.Vec{X: 0.05},
			},
			{
				Name: "j_ax_mb", Parent: spec.BodyAX, Child: spec.BodyMB,
				Axis: v3.Vec{X: 1}, Min: -1.5708, Max: 1.5708,
				Offset: v3.Vec{X: 0.05},
			},
		},
	}
}

func validModule(t *testing.T) *spec.ModuleSpec {
	t.Helper()
	m, err := spec.New(validConfig())
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	return m
}

func TestNewValid(t *testing.T) {
	m := validModule(t)
	if got := len(spec.Validate(m)); got != 0 {
		t.Errorf("Validate returned %d findings for a valid module", got)
	}
	if m.MABody != "ma_half" || m.AXBody != "ax_center" || m.MBBody != "mb_half" {
		t.Errorf("body names not preserved: %s, %s, %s", m.MABody, m.AXBody, m.MBBody)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*spec.Config)
		wantCode string
	}{
		{
			"MissingBody",
			func(c *spec.Config) { c.AXBody = "" },
			"MISSING_BODY",
		},
		{
			"TooFewFaces",
			func(c *spec.Config) { c.Faces = c.Faces[:3] },
			"FACE_COUNT",
		},
		{
			"ExtraFace",
			func(c *spec.Config) { c.Faces = append(c.Faces, c.Faces[0]) },
			"FACE_COUNT",
		},
		{
			"UnknownFace",
			func(c *spec.Config) { c.Faces[0].ID = "ax_front" },
			"UNKNOWN_FACE",
		},
		{
			"NonUnitNormal",
			func(c *spec.Config) { c.Faces[0].Normal = v3.Vec{X: 2} },
			"NON_UNIT_NORMAL",
		},
		{
			"NormalMismatch",
			func(c *spec.Config) { c.Faces[0].Normal = v3.Vec{Z: 1} },
			"NORMAL_MISMATCH",
		},
		{
			"TooManyJoints",
			func(c *spec.Config) { c.Joints = append(c.Joints, c.Joints[0]) },
			"JOINT_COUNT",
		},
		{
			"WrongChainOrder",
			func(c *spec.Config) { c.Joints[0], c.Joints[1] = c.Joints[1], c.Joints[0] },
			"JOINT_CHAIN",
		},
		{
			"JointOffChain",
			func(c *spec.Config) { c.Joints[1].Parent, c.Joints[1].Child = spec.BodyMA, spec.BodyMB },
			"JOINT_CHAIN",
		},
		{
			"NonUnitAxis",
			func(c *spec.Config) { c.Joints[0].Axis = v3.Vec{Z: 0.5} },
			"NON_UNIT_AXIS",
		},
		{
			"InvertedRange",
			func(c *spec.Config) { c.Joints[0].Min, c.Joints[0].Max = 1, -1 },
			"INVERTED_RANGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			m, err := spec.New(cfg)
			if m != nil {
				t.Fatal("invalid config produced a spec")
			}
			var verr spec.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v is not a ValidationError", err)
			}
			if verr.Code != tt.wantCode {
				t.Errorf("got code %s (%v), want %s", verr.Code, verr, tt.wantCode)
			}
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	cfg := validConfig()
	m, err := spec.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the raw config after construction must not reach the spec.
	cfg.Faces[0].Normal = v3.Vec{Y: 1}
	cfg.Joints[0].Min = 99

	if got := len(spec.Validate(m)); got != 0 {
		t.Errorf("spec shares storage with its config: %d findings after mutation", got)
	}
}

func TestRepeatedBuildsAreEqual(t *testing.T) {
	a, err := spec.New(validConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := spec.New(validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("builds must be independently owned")
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two builds of the same data are not structurally equal")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := spec.ValidationError{Code: "NORMAL_MISMATCH", Message: "off axis", Face: spec.FaceMARight}
	msg := err.Error()
	for _, want := range []string{"NORMAL_MISMATCH", "off axis", "ma_right"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
