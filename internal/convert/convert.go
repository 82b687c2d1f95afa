// Package convert wires the conversion pipeline: decode the source save,
// rewrite it brick by brick through the mapping tables, encode the target
// save. Pure function of its input and the static tables; no I/O.
package convert

import (
	"fmt"

	"github.com/google/uuid"

	"bls2brs.dev/internal/bls"
	"bls2brs.dev/internal/brs"
	"bls2brs.dev/internal/mappings"
	"bls2brs.dev/internal/save"
)

// ErrUnmappedBrickType aborts a strict-mode conversion on the first source
// brick with no target equivalent.
var ErrUnmappedBrickType = fmt.Errorf("unmapped brick type")

// Options control one conversion call.
type Options struct {
	// Strict makes an unmapped brick type fatal instead of a drop+warning.
	Strict bool
	// Overrides are extra literal mappings consulted before the static
	// tables. An entry with an empty list deliberately drops that type.
	Overrides map[string][]mappings.BrickDesc
	// SaveTime is stamped into the output header, unix seconds. Zero is
	// fine and keeps output reproducible.
	SaveTime uint64
	// DescriptionPrefix is prepended to the source description, e.g. a
	// provenance line naming the original file.
	DescriptionPrefix string
}

// Result is a completed conversion: the full target byte stream plus the
// defects recorded along the way.
type Result struct {
	Output   []byte
	Warnings []save.Warning

	SourceBricks int
	Converted    int
	Dropped      int

	// UnknownTypes tallies unmapped ui names so mapping gaps are visible.
	UnknownTypes map[string]int
}

// Convert runs decode → transform → encode over one complete source save.
// It either returns a full target stream or an error; never partial bytes.
func Convert(data []byte, opts Options) (*Result, error) {
	doc, warnings, err := bls.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	res := &Result{
		Warnings:     warnings,
		SourceBricks: len(doc.Bricks),
		UnknownTypes: map[string]int{},
	}

	out, err := transform(doc, opts, res)
	if err != nil {
		return nil, err
	}

	res.Output, err = brs.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return res, nil
}

// publicOwner is the brick owner every converted brick is assigned to.
var publicOwner = brs.User{
	ID:   uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
	Name: "PUBLIC",
}

func transform(doc *save.Document, opts Options, res *Result) (*brs.WriteData, error) {
	author := doc.Author
	if author == "" {
		author = "Unknown"
	}

	description := doc.Description
	if opts.DescriptionPrefix != "" {
		if description != "" {
			description = opts.DescriptionPrefix + "\n" + description
		} else {
			description = opts.DescriptionPrefix
		}
	}

	out := &brs.WriteData{
		Map:         "Unknown",
		Author:      brs.User{ID: uuid.Nil, Name: author},
		Description: description,
		SaveTime:    opts.SaveTime,
		Materials:   mappings.MaterialTable(),
		BrickOwners: []brs.User{publicOwner},
		Bricks:      make([]brs.Brick, 0, len(doc.Bricks)),
	}
	out.Colors = make([]brs.Color, len(doc.Palette))
	for i, c := range doc.Palette {
		out.Colors[i] = mappings.MapColor(c)
	}

	assets := assetInterner{data: out}

	for i, from := range doc.Bricks {
		descs, explicit := resolveType(from, opts)
		if descs == nil {
			if !explicit {
				if opts.Strict {
					return nil, fmt.Errorf("%w: %q (brick %d)", ErrUnmappedBrickType, from.TypeID, i)
				}
				res.UnknownTypes[from.TypeID]++
			}
			reason := save.UnknownType
			if explicit {
				reason = save.Dropped
			}
			res.Warnings = append(res.Warnings, save.Warning{BrickIndex: i, TypeID: from.TypeID, Reason: reason})
			res.Dropped++
			continue
		}

		pos := convertPosition(from.Position)

		materialIndex, known := mappings.MapMaterial(from.ColorFX)
		if !known {
			res.Warnings = append(res.Warnings, save.Warning{BrickIndex: i, TypeID: from.TypeID, Reason: save.UnknownMaterial})
		}

		colorIsIndex := true
		colorValue := uint32(from.ColorIndex)
		if int(from.ColorIndex) >= len(out.Colors) {
			colorIsIndex = false
			colorValue = uint32(mappings.DefaultColor)
			res.Warnings = append(res.Warnings, save.Warning{BrickIndex: i, TypeID: from.TypeID, Reason: save.UnknownPaletteIndex})
		}

		direction := brs.DirectionZPositive
		if from.UpsideDown {
			direction = brs.DirectionZNegative
		}

		for _, desc := range descs {
			rotation := (from.Angle + desc.RotationOffset) % 4
			offset := rotateOffset(desc.Offset, from.Angle)

			b := brs.Brick{
				AssetIndex: assets.index(desc.Asset),
				Size:       desc.Size,
				Position: [3]int32{
					pos[0] + offset[0],
					pos[1] + offset[1],
					pos[2] + offset[2],
				},
				Direction:     direction,
				Rotation:      rotation,
				Collision:     from.Collision,
				Visibility:    from.Rendering,
				MaterialIndex: materialIndex,
				OwnerIndex:    0,
			}
			if desc.HasColor {
				b.ColorIsIndex = false
				b.Color = uint32(desc.Color)
			} else {
				b.ColorIsIndex = colorIsIndex
				b.Color = colorValue
			}
			out.Bricks = append(out.Bricks, b)
		}
		res.Converted++
	}

	return out, nil
}

// resolveType finds the target bricks for a source brick. The second
// result marks a deliberate drop requested through Overrides; those are
// never fatal, unlike table misses under strict mode. Static-table entries
// with an empty list count as misses: the table is stating there is no
// equivalent, and strictness decides what that means.
func resolveType(from save.Brick, opts Options) ([]mappings.BrickDesc, bool) {
	if descs, ok := opts.Overrides[from.TypeID]; ok {
		if len(descs) == 0 {
			return nil, true
		}
		return descs, false
	}
	descs := mappings.Lookup(from.TypeID, from.Print)
	if len(descs) == 0 {
		return nil, false
	}
	return descs, false
}

// convertPosition maps source studs to target grid units: the formats
// disagree on which horizontal axis is which, and one stud is twenty
// target units.
func convertPosition(p [3]float32) [3]int32 {
	return [3]int32{
		int32(p[1] * 20),
		int32(p[0] * 20),
		int32(p[2] * 20),
	}
}

// invertPosition undoes convertPosition. Exact for positions on the
// 5-unit target grid, which is every position a real brick can occupy.
func invertPosition(p [3]int32) [3]float32 {
	return [3]float32{
		float32(p[1]) / 20,
		float32(p[0]) / 20,
		float32(p[2]) / 20,
	}
}

// rotateOffset spins a mapping offset through the source brick's quarter
// turns so substitution groups stay rigid under rotation.
func rotateOffset(off [3]int32, angle uint8) [3]int32 {
	x, y := off[0], off[1]
	for i := uint8(0); i < angle%4; i++ {
		x, y = -y, x
	}
	return [3]int32{x, y, off[2]}
}

// assetInterner assigns dense indices to asset names in first-use order.
type assetInterner struct {
	data    *brs.WriteData
	indexes map[string]uint32
}

func (a *assetInterner) index(asset string) uint32 {
	if idx, ok := a.indexes[asset]; ok {
		return idx
	}
	if a.indexes == nil {
		a.indexes = map[string]uint32{}
	}
	idx := uint32(len(a.data.BrickAssets))
	a.data.BrickAssets = append(a.data.BrickAssets, asset)
	a.indexes[asset] = idx
	return idx
}
