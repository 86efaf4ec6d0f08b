package mjcf

import (
	"encoding/xml"
	"io"
	"math"
	"os"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/ubotlab/ubot/pkg/spec"
)

// connectorFaces maps the connector site naming convention to face
// identifiers.
var connectorFaces = map[string]spec.FaceID{
	"ma_connector_right":  spec.FaceMARight,
	"ma_connector_bottom": spec.FaceMADown,
	"mb_connector_left":   spec.FaceMBLeft,
	"mb_connector_top":    spec.FaceMBUp,
}

// defaultRange bounds a hinge joint that declares no range attribute.
const defaultRangeMin, defaultRangeMax = -math.Pi, math.Pi

// Load reads the description file at path and extracts the module named
// moduleName. See Parse for the extraction rules.
func Load(path, moduleName string) (*spec.ModuleSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Kind: MalformedDocument, Detail: "open description", Err: err}
	}
	defer f.Close()
	return Parse(f, moduleName)
}

// Parse extracts one module from an MJCF document. moduleName selects which
// subtree to read when the document describes more than one collection: it
// may name the document's model, a specific body subtree, or be empty to
// read the whole document. The result is always a fully validated spec or
// an error, never a partial spec.
func Parse(r io.Reader, moduleName string) (*spec.ModuleSpec, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Kind: MalformedDocument, Detail: "decode XML", Err: err}
	}

	toRadians, err := checkConventions(doc.Compiler)
	if err != nil {
		return nil, err
	}

	roots, err := selectSubtree(&doc, moduleName)
	if err != nil {
		return nil, err
	}

	// Flatten the body tree, remembering each body's enclosing parent.
	var entries []bodyEntry
	var walk func(b body, parent string)
	walk = func(b body, parent string) {
		entries = append(entries, bodyEntry{body: b, parent: parent})
		for _, child := range b.Bodies {
			walk(child, b.Name)
		}
	}
	for _, b := range roots {
		walk(b, "")
	}

	roles, err := resolveRoles(entries)
	if err != nil {
		return nil, err
	}

	joints, err := extractJoints(entries, roles, toRadians)
	if err != nil {
		return nil, err
	}

	faces, err := extractFaces(entries, roles)
	if err != nil {
		return nil, err
	}

	name := moduleName
	if name == "" {
		name = doc.Model
	}
	if name == "" {
		name = "ubot_module"
	}

	return spec.New(spec.Config{
		ModuleName: name,
		MABody:     roles[spec.BodyMA],
		AXBody:     roles[spec.BodyAX],
		MBBody:     roles[spec.BodyMB],
		Faces:      faces,
		Joints:     joints,
	})
}

type bodyEntry struct {
	body   body
	parent string // enclosing body name, "" for worldbody children
}

// checkConventions vets the compiler declaration. Angle units are converted
// when explicitly declared in degrees; a declared coordinate convention
// other than the local one is rejected rather than guessed at. An absent
// compiler element means radians in the local convention, which matches the
// module frame.
func checkConventions(c *compiler) (toRadians bool, err error) {
	if c == nil {
		return false, nil
	}
	if c.Coordinate != "" && c.Coordinate != "local" {
		return false, parseErrorf(MalformedDocument,
			"unsupported coordinate convention %q", c.Coordinate)
	}
	switch c.Angle {
	case "", "radian":
		return false, nil
	case "degree":
		return true, nil
	}
	return false, parseErrorf(MalformedDocument, "unsupported angle unit %q", c.Angle)
}

// selectSubtree narrows the search to the named module's body tree when the
// document holds more than one collection.
func selectSubtree(doc *document, moduleName string) ([]body, error) {
	if moduleName == "" || moduleName == doc.Model {
		return doc.WorldBody.Bodies, nil
	}
	var found *body
	var search func(bs []body)
	search = func(bs []body) {
		for i := range bs {
			if bs[i].Name == moduleName {
				found = &bs[i]
				return
			}
			search(bs[i].Bodies)
		}
	}
	search(doc.WorldBody.Bodies)
	if found == nil {
		return nil, parseErrorf(UnknownTopology,
			"document describes neither a model nor a body named %q", moduleName)
	}
	return []body{*found}, nil
}

// resolveRoles assigns each of the ma/ax/mb roles to a document body by
// name token. "center" is accepted as an alias for the ax piece.
func resolveRoles(entries []bodyEntry) (map[spec.BodyRole]string, error) {
	roles := make(map[spec.BodyRole]string)
	assign := func(r spec.BodyRole, name string) error {
		if prev, ok := roles[r]; ok {
			return parseErrorf(UnknownTopology,
				"bodies %q and %q both look like the %s half", prev, name, r)
		}
		roles[r] = name
		return nil
	}
	for _, e := range entries {
		name := strings.ToLower(e.body.Name)
		switch {
		case strings.Contains(name, "ma"):
			if err := assign(spec.BodyMA, e.body.Name); err != nil {
				return nil, err
			}
		case strings.Contains(name, "mb"):
			if err := assign(spec.BodyMB, e.body.Name); err != nil {
				return nil, err
			}
		case strings.Contains(name, "ax"), strings.Contains(name, "center"):
			if err := assign(spec.BodyAX, e.body.Name); err != nil {
				return nil, err
			}
		}
	}
	var missing []string
	for _, r := range spec.Roles {
		if _, ok := roles[r]; !ok {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return nil, parseErrorf(UnknownTopology,
			"could not identify %s bodies in document", strings.Join(missing, ", "))
	}
	return roles, nil
}

// extractJoints reads the hinge joints and orders them along the serial
// chain. MJCF attaches a joint to the body that declares it; the joint
// links that body to its enclosing parent.
func extractJoints(entries []bodyEntry, roles map[spec.BodyRole]string, toRadians bool) ([]spec.JointSpec, error) {
	roleOf := func(name string) (spec.BodyRole, bool) {
		for r, n := range roles {
			if n == name {
				return r, true
			}
		}
		return "", false
	}

	var found []spec.JointSpec
	for _, e := range entries {
		for _, j := range e.body.Joints {
			// MJCF defaults the joint type to hinge.
			if j.Type != "" && j.Type != "hinge" {
				continue
			}
			child, ok := roleOf(e.body.Name)
			if !ok {
				return nil, parseErrorf(InvalidJointChain,
					"hinge joint %q attached to non-module body %q", j.Name, e.body.Name)
			}
			parent, ok := roleOf(e.parent)
			if !ok {
				return nil, parseErrorf(InvalidJointChain,
					"hinge joint %q in body %q has no module parent", j.Name, e.body.Name)
			}

			axisAttr := j.Axis
			if axisAttr == "" {
				axisAttr = "0 0 1"
			}
			axis, err := parseVec(axisAttr)
			if err != nil {
				return nil, &ParseError{Kind: MalformedDocument, Detail: "joint " + j.Name + " axis", Err: err}
			}
			if axis.Length() > spec.NormalTolerance {
				axis = axis.Normalize()
			}

			min, max := defaultRangeMin, defaultRangeMax
			if j.Range != "" {
				min, max, err = parseRange(j.Range)
				if err != nil {
					return nil, &ParseError{Kind: MalformedDocument, Detail: "joint " + j.Name + " range", Err: err}
				}
				if toRadians {
					min *= math.Pi / 180
					max *= math.Pi / 180
				}
			}

			bodyPos, err := parseVec(e.body.Pos)
			if err != nil {
				return nil, &ParseError{Kind: MalformedDocument, Detail: "body " + e.body.Name + " pos", Err: err}
			}
			jointPos, err := parseVec(j.Pos)
			if err != nil {
				return nil, &ParseError{Kind: MalformedDocument, Detail: "joint " + j.Name + " pos", Err: err}
			}

			found = append(found, spec.JointSpec{
				Name:   j.Name,
				Parent: parent,
				Child:  child,
				Axis:   axis,
				Min:    min,
				Max:    max,
				Offset: bodyPos.Add(jointPos),
			})
		}
	}

	if len(found) != 2 {
		return nil, parseErrorf(InvalidJointChain,
			"expected exactly 2 internal hinge joints, found %d", len(found))
	}

	ordered := make([]spec.JointSpec, 0, 2)
	for _, want := range [2][2]spec.BodyRole{{spec.BodyMA, spec.BodyAX}, {spec.BodyAX, spec.BodyMB}} {
		var match *spec.JointSpec
		for i := range found {
			if found[i].Parent == want[0] && found[i].Child == want[1] {
				match = &found[i]
				break
			}
		}
		if match == nil {
			return nil, parseErrorf(InvalidJointChain,
				"no joint links %s to %s; found %s-%s and %s-%s",
				want[0], want[1],
				found[0].Parent, found[0].Child, found[1].Parent, found[1].Child)
		}
		ordered = append(ordered, *match)
	}
	return ordered, nil
}

// extractFaces reads connector sites from the two connectable halves.
// Sites on ax are ignored rather than rejected; the central piece is never
// connectable. A site with no zaxis or quat annotation falls back to the
// direction its face identifier implies.
func extractFaces(entries []bodyEntry, roles map[spec.BodyRole]string) ([]spec.FaceSpec, error) {
	var faces []spec.FaceSpec
	seen := make(map[spec.FaceID]bool)

	for _, e := range entries {
		var half spec.BodyRole
		switch e.body.Name {
		case roles[spec.BodyMA]:
			half = spec.BodyMA
		case roles[spec.BodyMB]:
			half = spec.BodyMB
		default:
			continue
		}

		for _, s := range e.body.Sites {
			if !strings.Contains(s.Name, "connector") {
				continue
			}
			id, ok := connectorFaces[s.Name]
			if !ok {
				return nil, parseErrorf(FaceCountMismatch,
					"connector site %q does not name a known face", s.Name)
			}
			if id.Half() != half {
				return nil, parseErrorf(FaceCountMismatch,
					"connector site %q attached to body %q, belongs on the %s half",
					s.Name, e.body.Name, id.Half())
			}
			if seen[id] {
				return nil, parseErrorf(FaceCountMismatch, "face %s declared more than once", id)
			}
			seen[id] = true

			pos, err := parseVec(s.Pos)
			if err != nil {
				return nil, &ParseError{Kind: MalformedDocument, Detail: "site " + s.Name + " pos", Err: err}
			}

			normal, err := siteNormal(s, id)
			if err != nil {
				return nil, &ParseError{Kind: MalformedDocument, Detail: "site " + s.Name + " orientation", Err: err}
			}

			faces = append(faces, spec.FaceSpec{
				ID:          id,
				Position:    pos,
				Normal:      normal,
				Connectable: true,
			})
		}
	}

	if len(faces) != len(spec.FaceIDs) {
		return nil, parseErrorf(FaceCountMismatch,
			"expected exactly %d connector faces, found %d", len(spec.FaceIDs), len(faces))
	}

	// Fixed reporting order: ma faces before mb faces.
	ordered := make([]spec.FaceSpec, 0, len(faces))
	for _, id := range spec.FaceIDs {
		for _, f := range faces {
			if f.ID == id {
				ordered = append(ordered, f)
			}
		}
	}
	return ordered, nil
}

// siteNormal resolves a site's outward normal from its zaxis attribute, its
// wxyz quaternion, or the face's implied direction, in that priority order.
func siteNormal(s site, id spec.FaceID) (v3.Vec, error) {
	if s.ZAxis != "" {
		n, err := parseVec(s.ZAxis)
		if err != nil {
			return v3.Vec{}, err
		}
		if n.Length() > spec.NormalTolerance {
			n = n.Normalize()
		}
		return n, nil
	}
	if s.Quat != "" {
		return quatZAxis(s.Quat)
	}
	return id.Direction(), nil
}
