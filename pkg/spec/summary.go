package spec

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// JointSummary is the reporting view of one internal joint.
type JointSummary struct {
	Name string
	Axis v3.Vec
	Min  float64
	Max  float64
}

// FaceSummary is the reporting view of one connector face.
type FaceSummary struct {
	ID       FaceID
	Position v3.Vec
	Normal   v3.Vec
}

// Summary is the flattened view of a ModuleSpec consumed by checker and
// visualization tooling.
type Summary struct {
	ModuleName string
	BodyNames  map[BodyRole]string
	Joints     []JointSummary
	Faces      []FaceSummary
}

// Summarize flattens a validated spec into its reporting view.
func Summarize(m *ModuleSpec) Summary {
	s := Summary{
		ModuleName: m.ModuleName,
		BodyNames: map[BodyRole]string{
			BodyMA: m.MABody,
			BodyAX: m.AXBody,
			BodyMB: m.MBBody,
		},
	}
	for _, j := range m.Joints {
		s.Joints = append(s.Joints, JointSummary{Name: j.Name, Axis: j.Axis, Min: j.Min, Max: j.Max})
	}
	for _, f := range m.Faces {
		s.Faces = append(s.Faces, FaceSummary{ID: f.ID, Position: f.Position, Normal: f.Normal})
	}
	return s
}

// String renders the summary in the fixed layout the checker prints.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module: %s\n", s.ModuleName)
	fmt.Fprintf(&b, "bodies: ma=%s ax=%s mb=%s\n",
		s.BodyNames[BodyMA], s.BodyNames[BodyAX], s.BodyNames[BodyMB])
	b.WriteString("joints:\n")
	for _, j := range s.Joints {
		fmt.Fprintf(&b, "  %s: axis=(%g, %g, %g) range=[%g, %g]\n",
			j.Name, j.Axis.X, j.Axis.Y, j.Axis.Z, j.Min, j.Max)
	}
	b.WriteString("faces:\n")
	for _, f := range s.Faces {
		fmt.Fprintf(&b, "  %s: pos=(%g, %g, %g) normal=(%g, %g, %g)\n",
			f.ID, f.Position.X, f.Position.Y, f.Position.Z,
			f.Normal.X, f.Normal.Y, f.Normal.Z)
	}
	return b.String()
}
