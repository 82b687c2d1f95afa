// Package brs encodes the target save format.
//
// The layout is magic + version followed by two zlib sections: a header
// section carrying document metadata and the shared tables (assets,
// colors, materials, owners), then a brick section with one fixed-shape
// record per brick referencing those tables by index.
package brs

import (
	"github.com/google/uuid"
)

const (
	Magic   = "BRS"
	Version = 4
)

// Directions for the brick's local up axis.
const (
	DirectionZPositive uint8 = 4
	DirectionZNegative uint8 = 5
)

// Brick record flag bits.
const (
	flagCollision    = 0
	flagVisibility   = 1
	flagColorIsIndex = 2
)

// Color is a packed sRGB color, r<<24|g<<16|b<<8|a.
type Color uint32

func ColorFromRGBA(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

func (c Color) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// User identifies an author or brick owner.
type User struct {
	ID   uuid.UUID
	Name string
}

// Brick is one target-format brick record. Index fields refer into the
// document tables in WriteData.
type Brick struct {
	AssetIndex    uint32
	Size          [3]uint32
	Position      [3]int32
	Direction     uint8
	Rotation      uint8
	Collision     bool
	Visibility    bool
	ColorIsIndex  bool
	Color         uint32 // palette index or packed RGBA, per ColorIsIndex
	MaterialIndex uint32
	OwnerIndex    uint32
}

// WriteData is everything the encoder needs for one output file.
type WriteData struct {
	Map         string
	Author      User
	Description string
	SaveTime    uint64 // unix seconds
	Mods        []string
	BrickAssets []string
	Colors      []Color
	Materials   []string
	BrickOwners []User
	Bricks      []Brick
}
