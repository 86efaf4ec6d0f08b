package mjcf

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// document mirrors the subset of MJCF this loader reads. Everything else in
// the file is skipped by the decoder.
type document struct {
	XMLName   xml.Name  `xml:"mujoco"`
	Model     string    `xml:"model,attr"`
	Compiler  *compiler `xml:"compiler"`
	WorldBody worldBody `xml:"worldbody"`
}

type compiler struct {
	Angle      string `xml:"angle,attr"`
	Coordinate string `xml:"coordinate,attr"`
}

type worldBody struct {
	Bodies []body `xml:"body"`
}

type body struct {
	Name   string  `xml:"name,attr"`
	Pos    string  `xml:"pos,attr"`
	Joints []joint `xml:"joint"`
	Sites  []site  `xml:"site"`
	Geoms  []geom  `xml:"geom"`
	Bodies []body  `xml:"body"`
}

type joint struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Axis  string `xml:"axis,attr"`
	Range string `xml:"range,attr"`
	Pos   string `xml:"pos,attr"`
}

type site struct {
	Name  string `xml:"name,attr"`
	Pos   string `xml:"pos,attr"`
	ZAxis string `xml:"zaxis,attr"`
	Quat  string `xml:"quat,attr"`
}

type geom struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Size string `xml:"size,attr"`
}

// parseVec reads a whitespace-separated 3-vector attribute. The empty
// string yields the zero vector, matching MJCF attribute defaults.
func parseVec(s string) (v3.Vec, error) {
	if strings.TrimSpace(s) == "" {
		return v3.Vec{}, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return v3.Vec{}, fmt.Errorf("expected 3 components, got %d in %q", len(fields), s)
	}
	var out [3]float64
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		out[i] = val
	}
	return v3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// parseRange reads a "min max" attribute pair.
func parseRange(s string) (min, max float64, err error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected 2 bounds, got %d in %q", len(fields), s)
	}
	min, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range min %q: %w", fields[0], err)
	}
	max, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range max %q: %w", fields[1], err)
	}
	return min, max, nil
}

// quatZAxis returns the third column of the rotation matrix encoded by a
// MuJoCo wxyz quaternion. Connector sites point their local z-axis along
// the outward face normal.
func quatZAxis(s string) (v3.Vec, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return v3.Vec{}, fmt.Errorf("expected 4 quaternion components, got %d in %q", len(fields), s)
	}
	var q [4]float64
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("quaternion component %d of %q: %w", i, s, err)
		}
		q[i] = val
	}
	w, x, y, z := q[0], q[1], q[2], q[3]
	return v3.Vec{
		X: 2*x*z + 2*w*y,
		Y: 2*y*z - 2*w*x,
		Z: 1 - 2*x*x - 2*y*y,
	}, nil
}
