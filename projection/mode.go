// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Mode selects how geographic coordinates are mapped to Cartesian space.
type Mode int

const (
	Spherical Mode = iota
	CylindricalEquidistant
	Cassini
	Mollweide
	Passthrough
	Spilhouse

	numModes
)

var modeNames = [numModes]string{
	Spherical:              "spherical",
	CylindricalEquidistant: "cylindrical",
	Cassini:                "cassini",
	Mollweide:              "mollweide",
	Passthrough:            "passthrough",
	Spilhouse:              "spilhouse",
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < numModes
}

// IsPlanar reports whether m maps onto a plane rather than the unit sphere.
func (m Mode) IsPlanar() bool {
	return m != Spherical
}

// WrapAxis returns the projected axis (0 for x, 1 for y) along which m is
// periodic and the length of one period. ok is false for modes without a
// constant-period seam.
func (m Mode) WrapAxis() (axis int, period float64, ok bool) {
	switch m {
	case CylindricalEquidistant, Passthrough:
		return 0, 2 * math.Pi, true
	case Cassini:
		return 1, 2 * math.Pi, true
	}
	return 0, 0, false
}

// ParseMode accepts a mode name (case-insensitive) or its numeric index as
// any value cast can turn into a string or int.
func ParseMode(v any) (Mode, error) {
	if s, err := cast.ToStringE(v); err == nil {
		name := strings.ToLower(strings.TrimSpace(s))
		for i, n := range modeNames {
			if n == name {
				return Mode(i), nil
			}
		}
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("projection: unknown mode %v", v)
	}
	m := Mode(i)
	if !m.Valid() {
		return 0, fmt.Errorf("projection: mode index %d out of range [0 %d)", i, int(numModes))
	}
	return m, nil
}
