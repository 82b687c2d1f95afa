// Package save holds the canonical in-memory form of one save file.
//
// The decoder produces it, the transform rewrites it, the encoder consumes
// it. Neither binary layout leaks past this package.
package save

// Color is a linear RGBA palette entry as the source format stores it,
// components in 0..1.
type Color struct {
	R, G, B, A float32
}

// Brick is one placed building unit in source terms. Positions are in
// source studs; the transform owns the unit and axis conversion.
type Brick struct {
	TypeID     string
	Position   [3]float32
	Angle      uint8 // quarter turns, 0..3
	UpsideDown bool
	ColorIndex uint8
	ColorFX    uint8
	Print      string
	Collision  bool
	Rendering  bool
}

// Document is the whole save: metadata, palette and the ordered brick list.
// Brick order is load-bearing; it survives conversion except where a
// substitution expands one slot into several contiguous ones.
type Document struct {
	Author      string
	Description string
	Palette     []Color
	Bricks      []Brick
}

// Reason classifies a non-fatal conversion defect.
type Reason int

const (
	UnknownType Reason = iota + 1
	UnknownPaletteIndex
	UnknownMaterial
	InvalidRotation
	Dropped
)

func (r Reason) String() string {
	switch r {
	case UnknownType:
		return "unknown_type"
	case UnknownPaletteIndex:
		return "unknown_palette_index"
	case UnknownMaterial:
		return "unknown_material"
	case InvalidRotation:
		return "invalid_rotation"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Warning records one non-fatal defect for user diagnostics. BrickIndex is
// the brick's position in the source document.
type Warning struct {
	BrickIndex int
	TypeID     string
	Reason     Reason
}
