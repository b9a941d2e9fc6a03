package load

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Gravity is standard gravitational acceleration in m/s².
const Gravity = 9.81

// ErrInvalidInput is returned for any mass or direction that fails validation.
var ErrInvalidInput = errors.New("load: invalid input")

// InputError names the field and raw value that failed validation.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Direction is an axis token such as "x+" or "z-".
type Direction string

const (
	XPos Direction = "x+"
	XNeg Direction = "x-"
	YPos Direction = "y+"
	YNeg Direction = "y-"
	ZPos Direction = "z+"
	ZNeg Direction = "z-"
)

// Directions lists the valid axis tokens in canonical order.
var Directions = []Direction{XPos, XNeg, YPos, YNeg, ZPos, ZNeg}

func (d Direction) Valid() bool {
	switch d {
	case XPos, XNeg, YPos, YNeg, ZPos, ZNeg:
		return true
	}
	return false
}

// Axis returns 0, 1 or 2 for x, y or z. It returns -1 for an invalid token.
func (d Direction) Axis() int {
	if !d.Valid() {
		return -1
	}
	return int(d[0] - 'x')
}

// Sign returns +1 or -1.
func (d Direction) Sign() float64 {
	if strings.HasSuffix(string(d), "-") {
		return -1
	}
	return 1
}

func (d Direction) Unit() r3.Vec {
	var v r3.Vec
	switch d.Axis() {
	case 0:
		v.X = d.Sign()
	case 1:
		v.Y = d.Sign()
	case 2:
		v.Z = d.Sign()
	}
	return v
}

func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return d
	}
	if d.Sign() > 0 {
		return Direction(d[:1] + "-")
	}
	return Direction(d[:1] + "+")
}

func (d Direction) String() string { return string(d) }

// ParseDirection normalizes raw (trim, lowercase) and checks it against the
// six axis tokens.
func ParseDirection(raw string) (Direction, error) {
	tok := strings.ToLower(strings.TrimSpace(raw))
	d := Direction(tok)
	if !d.Valid() {
		return "", &InputError{
			Field:  "direction",
			Value:  strings.TrimSpace(raw),
			Reason: "use one of x+, x-, y+, y-, z+, z-",
		}
	}
	return d, nil
}

// Spec is the validated load entered for one run. It is built fresh before
// each run and discarded once the force has been handed to the deck.
type Spec struct {
	MassKg         float64   `json:"mass_kg" yaml:"mass_kg"`
	IncludeGravity bool      `json:"include_gravity" yaml:"include_gravity"`
	From           Direction `json:"direction_from" yaml:"direction_from"`
	To             Direction `json:"direction_to" yaml:"direction_to"`
}

// Force is the force magnitude: mass*g with gravity, else mass.
func (s Spec) Force() float64 {
	if s.IncludeGravity {
		return s.MassKg * Gravity
	}
	return s.MassKg
}

// Vector is the load in global axes. The force acts on the face named by
// From and points along To.
func (s Spec) Vector() r3.Vec {
	return r3.Scale(s.Force(), s.To.Unit())
}

// LoadedFace is the bounding-box face that receives the load.
func (s Spec) LoadedFace() Direction {
	return s.From
}

// Validate checks a Spec built directly rather than through Parse.
func (s Spec) Validate() error {
	if math.IsNaN(s.MassKg) || math.IsInf(s.MassKg, 0) || s.MassKg < 0 {
		return &InputError{Field: "mass", Value: strconv.FormatFloat(s.MassKg, 'g', -1, 64), Reason: "must be a non-negative number"}
	}
	if !s.From.Valid() {
		return &InputError{Field: "direction", Value: string(s.From), Reason: "use one of x+, x-, y+, y-, z+, z-"}
	}
	if !s.To.Valid() {
		return &InputError{Field: "direction", Value: string(s.To), Reason: "use one of x+, x-, y+, y-, z+, z-"}
	}
	return nil
}

// ParseMass parses a non-negative finite mass in kilograms.
func ParseMass(raw string) (float64, error) {
	tok := strings.TrimSpace(raw)
	m, err := strconv.ParseFloat(tok, 64)
	if err == nil && isHex(tok) {
		err = strconv.ErrSyntax
	}
	if err != nil {
		return 0, &InputError{Field: "mass", Value: tok, Reason: "not a number"}
	}
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return 0, &InputError{Field: "mass", Value: tok, Reason: "must be a non-negative number"}
	}
	return m, nil
}

// isHex reports whether tok uses Go's hexadecimal float syntax (0x1p4).
func isHex(tok string) bool {
	tok = strings.TrimLeft(tok, "+-")
	return len(tok) > 1 && tok[0] == '0' && (tok[1] == 'x' || tok[1] == 'X')
}

// Parse validates raw form input and returns the spec with its force
// magnitude. Any failure is terminal for the run.
func Parse(mass, from, to string, gravity bool) (Spec, float64, error) {
	m, err := ParseMass(mass)
	if err != nil {
		return Spec{}, 0, err
	}
	dFrom, err := ParseDirection(from)
	if err != nil {
		return Spec{}, 0, err
	}
	dTo, err := ParseDirection(to)
	if err != nil {
		return Spec{}, 0, err
	}
	s := Spec{MassKg: m, IncludeGravity: gravity, From: dFrom, To: dTo}
	return s, s.Force(), nil
}
