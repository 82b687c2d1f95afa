// Package mappings holds the static conversion tables: source brick type
// to target brick(s), color-fx to material, and source palette colors to
// the target color space.
//
// Tables are built once at init and never written again, so concurrent
// conversions can read them without locking. Literal entries live in an
// embedded JSON file validated against an embedded schema; brick families
// whose names encode their dimensions are resolved by the regex handlers
// in regex.go.
package mappings

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"bls2brs.dev/internal/brs"
	"bls2brs.dev/internal/save"
)

//go:embed data/brick_map.json
var brickMapJSON []byte

//go:embed data/brick_map.schema.json
var brickMapSchema string

// BrickDesc describes one target brick produced for a source brick. Offset
// is relative to the source brick's converted position, in target grid
// units, and rotates with the brick.
type BrickDesc struct {
	Asset          string
	Size           [3]uint32
	Offset         [3]int32
	RotationOffset uint8
	HasColor       bool
	Color          brs.Color
}

var literal map[string][]BrickDesc

func init() {
	var err error
	literal, err = loadLiteral(brickMapJSON)
	if err != nil {
		panic(fmt.Sprintf("mappings: embedded brick map: %v", err))
	}
}

type descJSON struct {
	Asset          string     `json:"asset"`
	Size           *[3]uint32 `json:"size"`
	Offset         *[3]int32  `json:"offset"`
	RotationOffset *uint8     `json:"rotation_offset"`
	Color          *[4]uint8  `json:"color"`
}

func loadLiteral(raw []byte) (map[string][]BrickDesc, error) {
	schema, err := jsonschema.CompileString("brick_map.schema.json", brickMapSchema)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var entries map[string][]descJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse entries: %w", err)
	}

	table := make(map[string][]BrickDesc, len(entries))
	for name, descs := range entries {
		list := make([]BrickDesc, 0, len(descs))
		for _, d := range descs {
			desc := BrickDesc{Asset: d.Asset, RotationOffset: 1}
			if d.Size != nil {
				desc.Size = *d.Size
			}
			if d.Offset != nil {
				desc.Offset = *d.Offset
			}
			if d.RotationOffset != nil {
				desc.RotationOffset = *d.RotationOffset
			}
			if d.Color != nil {
				desc.HasColor = true
				desc.Color = brs.ColorFromRGBA(d.Color[0], d.Color[1], d.Color[2], d.Color[3])
			}
			list = append(list, desc)
		}
		table[name] = list
	}
	return table, nil
}

// Lookup resolves a source ui name to its target bricks. The print name
// participates for print-capable families (blank prints become tiles).
// A nil result means the brick has no target equivalent, whether the table
// says so explicitly or has never heard of the name.
func Lookup(uiName, print string) []BrickDesc {
	if descs, ok := literal[uiName]; ok {
		return descs
	}
	for _, h := range regexHandlers {
		if m := h.re.FindStringSubmatch(uiName); m != nil {
			return h.fn(m, print)
		}
	}
	return nil
}

// Material indices into MaterialTable.
const (
	MaterialPlastic = iota
	MaterialGlow
	MaterialMetallic
)

var materialTable = []string{"BMC_Plastic", "BMC_Glow", "BMC_Metallic"}

// MaterialTable returns the fixed material list every output file carries,
// in index order.
func MaterialTable() []string {
	out := make([]string, len(materialTable))
	copy(out, materialTable)
	return out
}

// MapMaterial translates a source color-fx code to a material index. The
// second result is false for codes outside the known set; those fall back
// to plastic.
func MapMaterial(fx uint8) (uint32, bool) {
	switch fx {
	case 0:
		return MaterialPlastic, true
	case 1, 2:
		return MaterialMetallic, true
	case 3:
		return MaterialGlow, true
	default:
		return MaterialPlastic, false
	}
}

// DefaultColor stands in for palette indices past the end of the source
// palette.
var DefaultColor = brs.ColorFromRGBA(128, 128, 128, 255)

// MapColor converts a linear source palette color into the target's packed
// sRGB space (gamma 2.2, clamped to 0..255 per channel).
func MapColor(c save.Color) brs.Color {
	conv := func(v float32) uint8 {
		g := math.Pow(float64(v), 2.2) * 255.0
		if g < 0 {
			g = 0
		}
		if g > 255 {
			g = 255
		}
		return uint8(g)
	}
	return brs.ColorFromRGBA(conv(c.R), conv(c.G), conv(c.B), conv(c.A))
}
