package concept

import (
	"fmt"
	"math"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

// DatatypeKind selects the membership function shape.
type DatatypeKind uint8

const (
	LeftShoulder DatatypeKind = iota
	RightShoulder
	Triangular
	Trapezoidal
	Linear
	Crisp
)

var datatypeKindNames = [...]string{
	LeftShoulder:  "left-shoulder",
	RightShoulder: "right-shoulder",
	Triangular:    "triangular",
	Trapezoidal:   "trapezoidal",
	Linear:        "linear",
	Crisp:         "crisp",
}

func (k DatatypeKind) String() string {
	if int(k) < len(datatypeKindNames) {
		return datatypeKindNames[k]
	}
	return fmt.Sprintf("datatype(%d)", uint8(k))
}

// ParseDatatypeKind maps a knowledge-base keyword to a DatatypeKind.
func ParseDatatypeKind(s string) (DatatypeKind, error) {
	for i, n := range datatypeKindNames {
		if n == s {
			return DatatypeKind(i), nil
		}
	}
	return 0, fmt.Errorf("datatype kind %q: %w", s, internalerr.ErrInvalidInput)
}

// paramCount is the number of shape parameters after k1 and k2.
func (k DatatypeKind) paramCount() int {
	switch k {
	case Triangular:
		return 3
	case Trapezoidal:
		return 4
	default:
		return 2
	}
}

// Datatype is a piecewise-linear fuzzy membership function over [K1, K2].
type Datatype struct {
	Name   string
	Kind   DatatypeKind
	K1, K2 float64
	Params []float64
}

// Segment is one linear piece: membership = Slope*v + Intercept on [From, To].
type Segment struct {
	From, To         float64
	Slope, Intercept float64
}

// At evaluates the segment line at v.
func (s Segment) At(v float64) float64 { return s.Slope*v + s.Intercept }

// NewDatatype validates the parameters of a membership function.
//
//	left-shoulder  a b      1 up to a, falls to 0 at b
//	right-shoulder a b      0 up to a, rises to 1 at b
//	triangular     a b c    0 at a, 1 at b, 0 at c
//	trapezoidal    a b c d  0 at a, 1 on [b,c], 0 at d
//	linear         a b      (k1,0) to (a,b) to (k2,1)
//	crisp          a b      1 on [a,b], 0 elsewhere
func NewDatatype(name string, kind DatatypeKind, k1, k2 float64, params ...float64) (*Datatype, error) {
	if name == "" {
		return nil, fmt.Errorf("datatype without name: %w", internalerr.ErrInvalidInput)
	}
	if len(params) != kind.paramCount() {
		return nil, fmt.Errorf("%s %s wants %d parameters, got %d: %w",
			kind, name, kind.paramCount(), len(params), internalerr.ErrInvalidInput)
	}
	if !(k1 < k2) {
		return nil, fmt.Errorf("%s range [%g,%g] is empty: %w", name, k1, k2, internalerr.ErrInvalidInput)
	}
	if kind == Linear {
		a, b := params[0], params[1]
		if a < k1 || a > k2 || b < 0 || b > 1 {
			return nil, fmt.Errorf("linear %s(%g,%g) outside range: %w", name, a, b, internalerr.ErrInvalidInput)
		}
	} else {
		prev := k1
		for _, p := range params {
			if math.IsNaN(p) || p < prev {
				return nil, fmt.Errorf("%s %s parameters must be ordered inside [%g,%g]: %w",
					kind, name, k1, k2, internalerr.ErrInvalidInput)
			}
			prev = p
		}
		if prev > k2 {
			return nil, fmt.Errorf("%s %s parameters must be ordered inside [%g,%g]: %w",
				kind, name, k1, k2, internalerr.ErrInvalidInput)
		}
	}
	return &Datatype{Name: name, Kind: kind, K1: k1, K2: k2, Params: append([]float64(nil), params...)}, nil
}

// Segments returns the linear pieces covering [K1, K2], skipping pieces of
// zero width.
func (d *Datatype) Segments() []Segment {
	var pts [][2]float64
	p := d.Params
	switch d.Kind {
	case LeftShoulder:
		pts = [][2]float64{{d.K1, 1}, {p[0], 1}, {p[1], 0}, {d.K2, 0}}
	case RightShoulder:
		pts = [][2]float64{{d.K1, 0}, {p[0], 0}, {p[1], 1}, {d.K2, 1}}
	case Triangular:
		pts = [][2]float64{{d.K1, 0}, {p[0], 0}, {p[1], 1}, {p[2], 0}, {d.K2, 0}}
	case Trapezoidal:
		pts = [][2]float64{{d.K1, 0}, {p[0], 0}, {p[1], 1}, {p[2], 1}, {p[3], 0}, {d.K2, 0}}
	case Linear:
		pts = [][2]float64{{d.K1, 0}, {p[0], p[1]}, {d.K2, 1}}
	case Crisp:
		return trimSegments([]Segment{
			{From: d.K1, To: p[0]},
			{From: p[0], To: p[1], Intercept: 1},
			{From: p[1], To: d.K2},
		})
	}
	segs := make([]Segment, 0, len(pts)-1)
	for i := 0; i+1 < len(pts); i++ {
		x0, y0 := pts[i][0], pts[i][1]
		x1, y1 := pts[i+1][0], pts[i+1][1]
		if x1 <= x0 {
			continue
		}
		slope := (y1 - y0) / (x1 - x0)
		segs = append(segs, Segment{From: x0, To: x1, Slope: slope, Intercept: y0 - slope*x0})
	}
	if len(segs) == 0 {
		segs = append(segs, Segment{From: d.K1, To: d.K2})
	}
	return segs
}

func trimSegments(in []Segment) []Segment {
	out := in[:0]
	for _, s := range in {
		if s.To > s.From {
			out = append(out, s)
		}
	}
	return out
}

// Membership evaluates the membership function at v. Values outside
// [K1, K2] have membership 0.
func (d *Datatype) Membership(v float64) float64 {
	if v < d.K1 || v > d.K2 {
		return 0
	}
	if d.Kind == Crisp {
		if v >= d.Params[0] && v <= d.Params[1] {
			return 1
		}
		return 0
	}
	for _, s := range d.Segments() {
		if v >= s.From && v <= s.To {
			return s.At(v)
		}
	}
	return 0
}

func (d *Datatype) String() string {
	return fmt.Sprintf("%s %s(%g, %g, %v)", d.Name, d.Kind, d.K1, d.K2, d.Params)
}
