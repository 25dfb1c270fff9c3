package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/fracture/pkg/config"
	"github.com/chazu/fracture/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites a parameter script into something zygomys can
// read:
//
//  1. :keyword becomes the string literal "__kw_keyword", so option names
//     never collide with user variables.
//  2. kebab-case identifiers become snake_case, since zygomys reads a
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
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
		if b[i] == '`' {
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
			continue
		}
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
		if b[i] == ':' && i+1 < len(b) {
			// := is assignment, not a keyword.
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name; anywhere
		// else it is the minus operator or a sign.
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

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape wraps a tessellate.Shape so it can be passed between builtins.
type sexpShape struct {
	shape *tessellate.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string { return s.shape.String() }
func (s *sexpShape) Type() *zygo.RegisteredType            { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A
// trailing keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

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

// toInt extracts an integer. Floats are accepted when they are whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && math.Abs(v.Val) <= math.MaxInt32 {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %v", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_keep) and plain strings ("keep").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toOrphanPolicy converts :keep, :merge or :fail.
func toOrphanPolicy(s zygo.Sexp) (config.OrphanPolicy, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected orphan policy keyword (:keep, :merge, :fail): %w", err)
	}
	p := config.OrphanPolicy(name)
	if !p.Valid() {
		return "", fmt.Errorf("invalid orphan policy %q, expected keep, merge, or fail", name)
	}
	return p, nil
}

// toShape extracts a Shape from a sexpShape.
func toShape(s zygo.Sexp) (*tessellate.Shape, error) {
	if v, ok := s.(*sexpShape); ok {
		return v.shape, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toShapes extracts every element of args as a Shape.
func toShapes(args []zygo.Sexp) ([]*tessellate.Shape, error) {
	out := make([]*tessellate.Shape, len(args))
	for i, a := range args {
		s, err := toShape(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i+1, err)
		}
		out[i] = s
	}
	return out, nil
}

// toVec reads three numbers.
func toVec(args []zygo.Sexp) (r3.Vec, error) {
	if len(args) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 numbers, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%c: %w", "xyz"[i], err)
		}
		c[i] = f
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// option stores a script value into one configuration field.
type option func(v zygo.Sexp) error

func floatOpt(dst *float64) option {
	return func(v zygo.Sexp) error {
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func intOpt(dst *int) option {
	return func(v zygo.Sexp) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func orphanOpt(dst *config.OrphanPolicy) option {
	return func(v zygo.Sexp) error {
		p, err := toOrphanPolicy(v)
		if err != nil {
			return err
		}
		*dst = p
		return nil
	}
}

// addSection registers a builtin that sets the named options of one
// configuration section. Options are applied in name order so the first
// reported error does not depend on map iteration.
func addSection(env *zygo.Zlisp, fn string, opts map[string]option) {
	env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("%s: unexpected positional argument %s",
				fn, pa.positional[0].SexpString(nil))
		}

		keys := lo.Keys(pa.kw)
		sort.Strings(keys)
		for _, k := range keys {
			set, ok := opts[k]
			if !ok {
				known := lo.Keys(opts)
				sort.Strings(known)
				return zygo.SexpNull, fmt.Errorf("%s: unknown option :%s (known: :%s)",
					fn, k, strings.Join(known, ", :"))
			}
			if err := set(pa.kw[k]); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fn, k, err)
			}
		}
		return zygo.SexpNull, nil
	})
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the script builtins into a zygomys
// environment. Parameter builtins write into sc.Config; calling one twice
// layers the second call's options over the first. Shape builtins return
// shape values, and (solid ...) stores one in sc.Shape.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *Script) {
	registerParams(env, &sc.Config)
	registerShapes(env, sc)
}

func registerParams(env *zygo.Zlisp, cfg *config.Config) {
	// (segmentation :max-curvature-deg 30 :area-limit-fraction 0.02 :orphans :keep)
	s := &cfg.Segmentation
	addSection(env, "segmentation", map[string]option{
		"max-curvature-deg":   floatOpt(&s.MaxCurvatureDeg),
		"area-limit-fraction": floatOpt(&s.AreaLimitFraction),
		"orphans":             orphanOpt(&s.Orphans),
	})

	// (clustering :radius 20 :normal-threshold 0.95 :min-cluster-size 10 :voxel-size 0)
	c := &cfg.Clustering
	addSection(env, "clustering", map[string]option{
		"radius":           floatOpt(&c.Radius),
		"normal-threshold": floatOpt(&c.NormalThreshold),
		"min-cluster-size": intOpt(&c.MinClusterSize),
		"voxel-size":       floatOpt(&c.VoxelSize),
	})

	// (boundary :curvature-threshold 0.01 :neighbor-radius 4
	//           :min-cluster-points 50 :chain-neighbors 10)
	b := &cfg.Boundary
	addSection(env, "boundary", map[string]option{
		"curvature-threshold": floatOpt(&b.CurvatureThreshold),
		"neighbor-radius":     floatOpt(&b.NeighborRadius),
		"min-cluster-points":  intOpt(&b.MinClusterPoints),
		"chain-neighbors":     intOpt(&b.ChainNeighbors),
	})

	// (normals :radius 1.0 :max-neighbors 30)
	n := &cfg.Normals
	addSection(env, "normals", map[string]option{
		"radius":        floatOpt(&n.Radius),
		"max-neighbors": intOpt(&n.MaxNeighbors),
	})
}

func registerShapes(env *zygo.Zlisp, sc *Script) {
	// (box 100 50 25)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := toVec(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpShape{shape: tessellate.Box(v.X, v.Y, v.Z)}, nil
	})

	// (cylinder 30 8 :segments 32)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires a height and a radius, got %d arguments", len(pa.positional))
		}
		h, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, err := toFloat64(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		segments := 0
		if v, ok := pa.kw["segments"]; ok {
			if segments, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
		}
		return &sexpShape{shape: tessellate.Cylinder(h, r, segments)}, nil
	})

	// (union a b ...), (difference a b ...), (intersection a b ...)
	booleans := map[string]func(*tessellate.Shape, ...*tessellate.Shape) *tessellate.Shape{
		"union":        tessellate.Union,
		"difference":   tessellate.Difference,
		"intersection": tessellate.Intersection,
	}
	for fn, op := range booleans {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 shapes, got %d", fn, len(args))
			}
			shapes, err := toShapes(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			return &sexpShape{shape: op(shapes[0], shapes[1:]...)}, nil
		})
	}

	// (translate s 10 0 0), (rotate s 0 0 90)
	transforms := map[string]func(*tessellate.Shape, r3.Vec) *tessellate.Shape{
		"translate": tessellate.Translate,
		"rotate":    tessellate.Rotate,
	}
	for fn, op := range transforms {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 4 {
				return zygo.SexpNull, fmt.Errorf("%s requires a shape and 3 numbers, got %d arguments", fn, len(args))
			}
			s, err := toShape(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			v, err := toVec(args[1:])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			return &sexpShape{shape: op(s, v)}, nil
		})
	}

	// (solid (box 10 10 10))
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly 1 shape, got %d", len(args))
		}
		if sc.Shape != nil {
			return zygo.SexpNull, fmt.Errorf("solid: already declared as %s", sc.Shape)
		}
		s, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		sc.Shape = s
		return args[0], nil
	})
}
