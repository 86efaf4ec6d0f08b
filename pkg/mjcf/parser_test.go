package mjcf_test

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubotlab/ubot/pkg/mjcf"
	"github.com/ubotlab/ubot/pkg/spec"
)

const tol = 1e-9

// moduleXML builds a well-formed single-module document with the given
// fragments spliced into the ma, ax, and mb bodies.
func moduleXML(maExtra, axExtra, mbExtra string) string {
	return `<mujoco model="ubot_module">
  <worldbody>
    <body name="ma_half" pos="0 0 0">
      <site name="ma_connector_right" pos="0.05 0 0" zaxis="1 0 0"/>
      <site name="ma_connector_bottom" pos="0 0 -0.05" zaxis="0 0 -1"/>` + maExtra + `
      <body name="ax_center" pos="0.05 0 0">
        <joint name="j_ma_ax" type="hinge" axis="0 0 1" range="-1.5708 1.5708"/>` + axExtra + `
        <body name="mb_half" pos="0.05 0 0">
          <joint name="j_ax_mb" type="hinge" axis="1 0 0" range="-1.5708 1.5708"/>
          <site name="mb_connector_left" pos="-0.05 0 0" zaxis="-1 0 0"/>
          <site name="mb_connector_top" pos="0 0 0.05" zaxis="0 0 1"/>` + mbExtra + `
        </body>
      </body>
    </body>
  </worldbody>
</mujoco>`
}

func parseString(t *testing.T, doc, moduleName string) (*spec.ModuleSpec, error) {
	t.Helper()
	return mjcf.Parse(strings.NewReader(doc), moduleName)
}

func kindOf(t *testing.T, err error) mjcf.ErrKind {
	t.Helper()
	perr, ok := err.(*mjcf.ParseError)
	require.True(t, ok, "error %v (%T) is not a ParseError", err, err)
	return perr.Kind
}

func TestLoadTestdata(t *testing.T) {
	m, err := mjcf.Load(filepath.Join("testdata", "ubot_module.xml"), "")
	require.NoError(t, err)

	assert.Equal(t, "ubot_module", m.ModuleName)
	assert.Equal(t, "ma_half", m.MABody)
	assert.Equal(t, "ax_center", m.AXBody)
	assert.Equal(t, "mb_half", m.MBBody)

	require.Len(t, m.Joints, 2)
	assert.Equal(t, "j_ma_ax", m.Joints[0].Name)
	assert.Equal(t, spec.BodyMA, m.Joints[0].Parent)
	assert.Equal(t, spec.BodyAX, m.Joints[0].Child)
	assert.True(t, m.Joints[0].Axis.Equals(v3.Vec{Z: 1}, tol))
	assert.InDelta(t, -1.5708, m.Joints[0].Min, tol)
	assert.InDelta(t, 1.5708, m.Joints[0].Max, tol)
	assert.True(t, m.Joints[0].Offset.Equals(v3.Vec{X: 0.05}, tol))

	assert.Equal(t, "j_ax_mb", m.Joints[1].Name)
	assert.Equal(t, spec.BodyAX, m.Joints[1].Parent)
	assert.Equal(t, spec.BodyMB, m.Joints[1].Child)

	require.Len(t, m.Faces, 4)
	for i, id := range spec.FaceIDs {
		assert.Equal(t, id, m.Faces[i].ID, "faces must come back in reporting order")
		assert.True(t, m.Faces[i].Normal.Equals(id.Direction(), tol),
			"face %s normal %v", id, m.Faces[i].Normal)
		assert.True(t, m.Faces[i].Connectable)
	}

	assert.True(t, m.NominalOffset().Equals(v3.Vec{X: 0.1}, tol))
}

func TestParseTwiceStructurallyEqual(t *testing.T) {
	doc := moduleXML("", "", "")
	a, err := parseString(t, doc, "")
	require.NoError(t, err)
	b, err := parseString(t, doc, "")
	require.NoError(t, err)

	require.NotSame(t, a, b)
	assert.Equal(t, a, b)
}

func TestParseMissingBody(t *testing.T) {
	doc := `<mujoco model="broken">
  <worldbody>
    <body name="ma_half">
      <body name="mb_half">
        <joint name="j1" type="hinge"/>
      </body>
    </body>
  </worldbody>
</mujoco>`
	_, err := parseString(t, doc, "")
	require.Error(t, err)
	assert.Equal(t, mjcf.UnknownTopology, kindOf(t, err))
	assert.Contains(t, err.Error(), "ax")
}

func TestParseThreeJoints(t *testing.T) {
	extra := `<joint name="j_extra" type="hinge" axis="0 1 0" range="-1 1"/>`
	_, err := parseString(t, moduleXML("", "", extra), "")
	require.Error(t, err)
	assert.Equal(t, mjcf.InvalidJointChain, kindOf(t, err))
}

func TestParseWrongChain(t *testing.T) {
	// ma and mb both hang off ax: a star, not the serial chain.
	doc := `<mujoco>
  <worldbody>
    <body name="ax_center">
      <body name="ma_half" pos="-0.05 0 0">
        <joint name="j1" type="hinge" axis="0 0 1" range="-1 1"/>
        <site name="ma_connector_right" pos="0.05 0 0" zaxis="1 0 0"/>
        <site name="ma_connector_bottom" pos="0 0 -0.05" zaxis="0 0 -1"/>
      </body>
      <body name="mb_half" pos="0.05 0 0">
        <joint name="j2" type="hinge" axis="0 0 1" range="-1 1"/>
        <site name="mb_connector_left" pos="-0.05 0 0" zaxis="-1 0 0"/>
        <site name="mb_connector_top" pos="0 0 0.05" zaxis="0 0 1"/>
      </body>
    </body>
  </worldbody>
</mujoco>`
	_, err := parseString(t, doc, "")
	require.Error(t, err)
	assert.Equal(t, mjcf.InvalidJointChain, kindOf(t, err))
}

func TestParseMissingFace(t *testing.T) {
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc, `<site name="mb_connector_top" pos="0 0 0.05" zaxis="0 0 1"/>`, "", 1)
	_, err := parseString(t, doc, "")
	require.Error(t, err)
	assert.Equal(t, mjcf.FaceCountMismatch, kindOf(t, err))
}

func TestParseUnknownConnector(t *testing.T) {
	extra := `<site name="ma_connector_front" pos="0 0.05 0" zaxis="0 1 0"/>`
	_, err := parseString(t, moduleXML(extra, "", ""), "")
	require.Error(t, err)
	assert.Equal(t, mjcf.FaceCountMismatch, kindOf(t, err))
}

func TestParseConnectorOnWrongHalf(t *testing.T) {
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc, "mb_connector_top", "ma_connector_right", 1)
	_, err := parseString(t, doc, "")
	require.Error(t, err)
	assert.Equal(t, mjcf.FaceCountMismatch, kindOf(t, err))
}

func TestParseAxSitesIgnored(t *testing.T) {
	// Connector-looking annotations on the central piece are skipped, not
	// rejected; ax is never connectable.
	extra := `<site name="ax_connector_probe" pos="0 0 0"/>`
	m, err := parseString(t, moduleXML("", extra, ""), "")
	require.NoError(t, err)
	assert.Len(t, m.Faces, 4)
}

func TestParseQuatNormal(t *testing.T) {
	// Identity quaternion: site z-axis is +Z, the mb_up direction.
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc,
		`<site name="mb_connector_top" pos="0 0 0.05" zaxis="0 0 1"/>`,
		`<site name="mb_connector_top" pos="0 0 0.05" quat="1 0 0 0"/>`, 1)
	m, err := parseString(t, doc, "")
	require.NoError(t, err)

	f, ok := m.Face(spec.FaceMBUp)
	require.True(t, ok)
	assert.True(t, f.Normal.Equals(v3.Vec{Z: 1}, tol), "quat normal %v", f.Normal)
}

func TestParseDegreeRanges(t *testing.T) {
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc, "<worldbody>", `<compiler angle="degree"/>
  <worldbody>`, 1)
	doc = strings.Replace(doc, `range="-1.5708 1.5708"`, `range="-90 90"`, 2)

	m, err := parseString(t, doc, "")
	require.NoError(t, err)
	for _, j := range m.Joints {
		assert.InDelta(t, -math.Pi/2, j.Min, 1e-12)
		assert.InDelta(t, math.Pi/2, j.Max, 1e-12)
	}
}

func TestParseRejectsGlobalCoordinates(t *testing.T) {
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc, "<worldbody>", `<compiler coordinate="global"/>
  <worldbody>`, 1)
	_, err := parseString(t, doc, "")
	require.Error(t, err)
	assert.Equal(t, mjcf.MalformedDocument, kindOf(t, err))
}

func TestParseMalformedXML(t *testing.T) {
	_, err := parseString(t, "<mujoco><worldbody>", "")
	require.Error(t, err)
	assert.Equal(t, mjcf.MalformedDocument, kindOf(t, err))
}

func TestParseSelectsNamedSubtree(t *testing.T) {
	// Two collections in one document; only unit_b is a valid module.
	doc := `<mujoco model="pair">
  <worldbody>
    <body name="scaffold">
      <geom type="box" name="floor"/>
    </body>
    <body name="unit_b">
      <body name="ma_half" pos="0 0 0">
        <site name="ma_connector_right" pos="0.05 0 0" zaxis="1 0 0"/>
        <site name="ma_connector_bottom" pos="0 0 -0.05" zaxis="0 0 -1"/>
        <body name="ax_center" pos="0.05 0 0">
          <joint name="j_ma_ax" type="hinge" axis="0 0 1" range="-1 1"/>
          <body name="mb_half" pos="0.05 0 0">
            <joint name="j_ax_mb" type="hinge" axis="1 0 0" range="-1 1"/>
            <site name="mb_connector_left" pos="-0.05 0 0" zaxis="-1 0 0"/>
            <site name="mb_connector_top" pos="0 0 0.05" zaxis="0 0 1"/>
          </body>
        </body>
      </body>
    </body>
  </worldbody>
</mujoco>`
	m, err := parseString(t, doc, "unit_b")
	require.NoError(t, err)
	assert.Equal(t, "unit_b", m.ModuleName)
	assert.Equal(t, "ma_half", m.MABody)

	_, err = parseString(t, doc, "unit_c")
	require.Error(t, err)
	assert.Equal(t, mjcf.UnknownTopology, kindOf(t, err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := mjcf.Load(filepath.Join("testdata", "does_not_exist.xml"), "")
	require.Error(t, err)
	assert.Equal(t, mjcf.MalformedDocument, kindOf(t, err))
}

func TestParseValidationSurfaceDistinct(t *testing.T) {
	// A document whose structure parses but whose geometry violates a
	// model invariant (zero joint axis) surfaces a ValidationError, not a
	// ParseError.
	doc := moduleXML("", "", "")
	doc = strings.Replace(doc, `axis="0 0 1"`, `axis="0 0 0"`, 1)
	_, err := parseString(t, doc, "")
	require.Error(t, err)

	verr, ok := err.(spec.ValidationError)
	require.True(t, ok, "error %v (%T) is not a ValidationError", err, err)
	assert.Equal(t, "NON_UNIT_AXIS", verr.Code)
}
