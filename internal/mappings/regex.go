package mappings

import (
	"regexp"
	"strconv"
)

// Brick families whose ui names encode their dimensions are resolved here
// instead of the literal table: one handler covers the whole family.
// Handlers run in order after a literal-table miss; the first matching
// pattern decides.

type regexHandler struct {
	re *regexp.Regexp
	fn func(m []string, print string) []BrickDesc
}

// Prints with no artwork; those bricks render better as tiles.
var blankPrints = map[string]bool{
	"Letters/-space": true,
	"1x2f/blank":     true,
	"2x2f/blank":     true,
}

var regexHandlers = []regexHandler{
	// NxM bricks, flat (F), half (H) and tall (xH) variants.
	// TODO: Drop the " Print" suffix handling once prints convert properly.
	{
		re: regexp.MustCompile(`^(\d+)x(\d+)(?:x(\d+)|([Ff])|([Hh]))?( Print)?$`),
		fn: func(m []string, print string) []BrickDesc {
			width, ok1 := atoiU32(m[1])
			length, ok2 := atoiU32(m[2])
			if !ok1 || !ok2 {
				return nil
			}
			var z uint32
			switch {
			case m[4] != "": // F
				z = 2
			case m[5] != "": // H
				z = 4
			case m[3] != "":
				h, ok := atoiU32(m[3])
				if !ok {
					return nil
				}
				z = h * 6
			default:
				z = 6
			}

			isPrint := m[6] != ""
			asset := "PB_DefaultBrick"
			rotation := uint8(1)
			if isPrint {
				rotation = 0
				if blankPrints[print] {
					asset = "PB_DefaultTile"
				}
			}
			return []BrickDesc{{
				Asset:          asset,
				Size:           [3]uint32{width * 5, length * 5, z},
				RotationOffset: rotation,
			}}
		},
	},

	// Ramp family: 25/45/72/80 degrees, negative, corner, inner corner.
	{
		re: regexp.MustCompile(`^(-)?(25|45|72|80)° (Inv )?Ramp(?: (\d+)x)?( Corner)?( Print)?$`),
		fn: func(m []string, _ string) []BrickDesc {
			neg := m[1] != ""
			inv := m[3] != ""
			corner := m[5] != ""

			if inv && !corner {
				return nil
			}

			var asset string
			switch {
			case neg && inv:
				asset = "PB_DefaultRampInnerCornerInverted"
			case neg && corner:
				asset = "PB_DefaultRampCornerInverted"
			case neg:
				asset = "PB_DefaultRampInverted"
			case inv:
				asset = "PB_DefaultRampInnerCorner"
			case corner:
				asset = "PB_DefaultRampCorner"
			default:
				asset = "PB_DefaultRamp"
			}

			var x, z uint32
			switch m[2] {
			case "25":
				x, z = 15, 6
			case "45":
				x, z = 10, 6
			case "72":
				x, z = 10, 18
			case "80":
				x, z = 10, 30
			default:
				return nil
			}

			y := x
			if m[4] != "" {
				if corner {
					return nil
				}
				length, ok := atoiU32(m[4])
				if !ok {
					return nil
				}
				y = length * 5
			}

			return []BrickDesc{{
				Asset:          asset,
				Size:           [3]uint32{x, y, z},
				RotationOffset: 0,
			}}
		},
	},

	// Crest family (ridge caps).
	{
		re: regexp.MustCompile(`(?P<angle>25|45)° Crest (?:(?P<end>End)|(?P<corner>Corner)|(?P<length>\d+)x)`),
		fn: func(m []string, _ string) []BrickDesc {
			var z uint32
			var zOffset int32
			switch m[1] {
			case "25":
				z, zOffset = 4, -2
			case "45":
				z, zOffset = 6, 0
			default:
				return nil
			}

			var asset string
			var x, y uint32
			var rotation uint8
			switch {
			case m[2] != "": // End
				asset, x, y, rotation = "PB_DefaultRampCrestEnd", 10, 5, 2
			case m[3] != "": // Corner
				asset, x, y, rotation = "PB_DefaultRampCrestCorner", 10, 10, 0
			default:
				length, ok := atoiU32(m[4])
				if !ok {
					return nil
				}
				asset, x, y, rotation = "PB_DefaultRampCrest", 10, length*5, 0
			}

			return []BrickDesc{{
				Asset:          asset,
				Size:           [3]uint32{x, y, z},
				Offset:         [3]int32{0, 0, zOffset},
				RotationOffset: rotation,
			}}
		},
	},

	// NxMF tiles.
	{
		re: regexp.MustCompile(`^(\d+)x(\d+)F Tile$`),
		fn: func(m []string, _ string) []BrickDesc {
			width, ok1 := atoiU32(m[1])
			length, ok2 := atoiU32(m[2])
			if !ok1 || !ok2 {
				return nil
			}
			return []BrickDesc{{
				Asset:          "PB_DefaultTile",
				Size:           [3]uint32{width * 5, length * 5, 2},
				RotationOffset: 1,
			}}
		},
	},

	// NxM baseplates.
	{
		re: regexp.MustCompile(`^(\d+)x(\d+) Base$`),
		fn: func(m []string, _ string) []BrickDesc {
			width, ok1 := atoiU32(m[1])
			length, ok2 := atoiU32(m[2])
			if !ok1 || !ok2 {
				return nil
			}
			return []BrickDesc{{
				Asset:          "PB_DefaultBrick",
				Size:           [3]uint32{width * 5, length * 5, 2},
				RotationOffset: 1,
			}}
		},
	},

	// Nx cubes.
	{
		re: regexp.MustCompile(`^(\d+)x Cube$`),
		fn: func(m []string, _ string) []BrickDesc {
			size, ok := atoiU32(m[1])
			if !ok {
				return nil
			}
			return []BrickDesc{{
				Asset:          "PB_DefaultBrick",
				Size:           [3]uint32{size * 5, size * 5, size * 5},
				RotationOffset: 1,
			}}
		},
	},

	// Large-brick terrain set: cubes, ramps, wedges and corner pieces with
	// steep/half/quarter height modifiers.
	{
		re: largeBrickRe,
		fn: func(m []string, _ string) []BrickDesc {
			g := largeBrickGroups
			size, ok := atoiU32(m[g.size])
			if !ok {
				return nil
			}

			var height uint32
			switch {
			case m[g.steep] != "":
				height = size * 2
			case m[g.threeQuarters] != "":
				// No 3/4-height target brick exists.
				return nil
			case m[g.half] != "":
				height = size / 2
			case m[g.quarter] != "":
				height = size / 4
			default:
				height = size
			}

			var asset string
			var rotation uint8
			switch {
			case m[g.cube] != "":
				asset, rotation = "PB_DefaultBrick", 1
			case m[g.wedge] != "":
				asset, rotation = "PB_DefaultSideWedge", 2
			case m[g.ramp] != "":
				asset, rotation = "PB_DefaultWedge", 3
			case m[g.cornerA] != "":
				// No matching target brick yet.
				return nil
			case m[g.cornerB] != "", m[g.cornerD] != "":
				// Approximation; nothing closer exists.
				asset, rotation = "PB_DefaultRampInnerCorner", 2
			case m[g.cornerC] != "":
				asset, rotation = "PB_DefaultRampCorner", 2
			default:
				return nil
			}

			return []BrickDesc{{
				Asset:          asset,
				Size:           [3]uint32{size * 5, size * 5, height * 5},
				RotationOffset: rotation,
			}}
		},
	},
}

var largeBrickRe = regexp.MustCompile(`^(?P<size>\d+)x (?:(?P<cube>Cube)|(?P<ramp>Ramp)|(?P<cornera>CornerA)|(?P<cornerb>CornerB)|(?P<cornerc>CornerC)|(?P<cornerd>CornerD)|(?P<wedge>Wedge))(?:(?P<steep> Steep)|(?P<three_quarters> 3/4h)|(?P<half> 1/2h)|(?P<quarter> 1/4h)| )?$`)

// Subgroup indices for the large-brick pattern, resolved once at init so
// the handler does not depend on group ordering by number.
var largeBrickGroups = func() (g struct {
	size, cube, ramp, cornerA, cornerB, cornerC, cornerD, wedge int
	steep, threeQuarters, half, quarter                         int
}) {
	re := largeBrickRe
	g.size = re.SubexpIndex("size")
	g.cube = re.SubexpIndex("cube")
	g.ramp = re.SubexpIndex("ramp")
	g.cornerA = re.SubexpIndex("cornera")
	g.cornerB = re.SubexpIndex("cornerb")
	g.cornerC = re.SubexpIndex("cornerc")
	g.cornerD = re.SubexpIndex("cornerd")
	g.wedge = re.SubexpIndex("wedge")
	g.steep = re.SubexpIndex("steep")
	g.threeQuarters = re.SubexpIndex("three_quarters")
	g.half = re.SubexpIndex("half")
	g.quarter = re.SubexpIndex("quarter")
	return g
}()

func atoiU32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
