package script

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/ubotlab/ubot/pkg/kinematics"
	"github.com/ubotlab/ubot/pkg/mjcf"
	"github.com/ubotlab/ubot/pkg/spec"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms checker script source before passing it to
// zygomys:
//
//  1. ; line comments become // comments, which is what zygomys expects.
//  2. Kebab-case identifiers become underscore form (load-module ->
//     load_module), since zygomys reads a hyphen as subtraction.
//
// Both transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/8)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Copy double-quoted string literals untouched.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments.
		if b[i] == ';' {
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Hyphen between identifier characters is kebab-case, not minus.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpModule wraps a loaded spec so it can be passed between builtins.
type sexpModule struct {
	m *spec.ModuleSpec
}

func (s *sexpModule) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(module %q)", s.m.ModuleName)
}
func (s *sexpModule) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a 3-vector literal built by the vec3 builtin.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPose wraps a kinematics.Pose.
type sexpPose struct {
	p kinematics.Pose
}

func (s *sexpPose) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pose :t (%g %g %g))", s.p.T.X, s.p.T.Y, s.p.T.Z)
}
func (s *sexpPose) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toRole extracts a body role ("ma", "ax", "mb") from a Sexp.
func toRole(s zygo.Sexp) (spec.BodyRole, error) {
	name, err := toString(s)
	if err != nil {
		return "", err
	}
	r := spec.BodyRole(name)
	if !r.Valid() {
		return "", fmt.Errorf("invalid body %q, expected ma, ax, or mb", name)
	}
	return r, nil
}

// toAngles extracts the [q1 q2] joint-angle vector from the tail of an
// argument list.
func toAngles(args []zygo.Sexp) ([2]float64, error) {
	var q [2]float64
	if len(args) != 2 {
		return q, fmt.Errorf("expected 2 joint angles, got %d", len(args))
	}
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return q, fmt.Errorf("q%d: %w", i+1, err)
		}
		q[i] = f
	}
	return q, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the checker builtins into a zygomys environment.
// The builtins operate on the session, loading a module and recording
// report lines as the script runs.
func registerBuiltins(env *zygo.Zlisp, sess *session) {

	// -----------------------------------------------------------------------
	// (load-module "path" "module-name"?)
	// -----------------------------------------------------------------------
	env.AddFunction("load_module", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("load-module requires a path argument")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("load-module: path: %w", err)
		}
		moduleName := ""
		if len(args) > 1 {
			moduleName, err = toString(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("load-module: name: %w", err)
			}
		}

		m, err := mjcf.Load(path, moduleName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("load-module: %w", err)
		}
		sess.module = m
		sess.printf("loaded %s from %s", m.ModuleName, path)
		return &sexpModule{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (summary)
	// -----------------------------------------------------------------------
	env.AddFunction("summary", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if sess.module == nil {
			return zygo.SexpNull, fmt.Errorf("summary: no module loaded")
		}
		text := spec.Summarize(sess.module).String()
		sess.printf("%s", text)
		return &zygo.SexpStr{S: text}, nil
	})

	// -----------------------------------------------------------------------
	// (fk q1 q2) -> pose of mb in ma; reports all three chain poses
	// -----------------------------------------------------------------------
	env.AddFunction("fk", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if sess.module == nil {
			return zygo.SexpNull, fmt.Errorf("fk: no module loaded")
		}
		q, err := toAngles(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fk: %w", err)
		}
		poses, err := kinematics.ForwardKinematics(sess.module, q)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fk: %w", err)
		}
		sess.printf("q=[%g, %g]", q[0], q[1])
		sess.printf("  ax in ma: t=(%g, %g, %g)", poses.AxInMa.T.X, poses.AxInMa.T.Y, poses.AxInMa.T.Z)
		sess.printf("  mb in ax: t=(%g, %g, %g)", poses.MbInAx.T.X, poses.MbInAx.T.Y, poses.MbInAx.T.Z)
		sess.printf("  mb in ma: t=(%g, %g, %g)", poses.MbInMa.T.X, poses.MbInMa.T.Y, poses.MbInMa.T.Z)
		return &sexpPose{p: poses.MbInMa}, nil
	})

	// -----------------------------------------------------------------------
	// (pose "mb" "ma" q1 q2) -> pose of the first body in the second's frame
	// -----------------------------------------------------------------------
	env.AddFunction("pose", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if sess.module == nil {
			return zygo.SexpNull, fmt.Errorf("pose: no module loaded")
		}
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("pose requires body, frame, q1, q2")
		}
		of, err := toRole(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pose: body: %w", err)
		}
		in, err := toRole(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pose: frame: %w", err)
		}
		q, err := toAngles(args[2:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pose: %w", err)
		}
		p, err := kinematics.PoseBetween(sess.module, of, in, q)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pose: %w", err)
		}
		sess.printf("%s in %s: t=(%g, %g, %g)", of, in, p.T.X, p.T.Y, p.T.Z)
		return &sexpPose{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (nominal-offset) -> static mb-in-ma translation at q=[0,0]
	// -----------------------------------------------------------------------
	env.AddFunction("nominal_offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if sess.module == nil {
			return zygo.SexpNull, fmt.Errorf("nominal-offset: no module loaded")
		}
		off := sess.module.NominalOffset()
		sess.printf("nominal offset: (%g, %g, %g)", off.X, off.Y, off.Z)
		return &sexpPose{p: kinematics.Pose{R: kinematics.Identity3(), T: off}}, nil
	})
}
