// Package bls decodes the source save format.
package bls

import (
	"fmt"

	"bls2brs.dev/internal/bin"
	"bls2brs.dev/internal/save"
)

const (
	// Magic opens every source save.
	Magic = "BLSB"
	// Version is the only record layout this decoder understands. Other
	// versions lay fields out differently, so a mismatch is fatal.
	Version = 2
)

// Record flag bits. Bits 5..7 are reserved and ignored.
const (
	flagCollision  = 0
	flagRendering  = 1
	flagColorFX    = 2
	flagPrint      = 3
	flagUpsideDown = 4
)

var ErrUnsupportedVersion = fmt.Errorf("unsupported save version")

// Decode parses a complete source save. Structural problems (bad magic,
// wrong version, truncation) are fatal. A single malformed brick is not:
// it decodes with a defaulted field and a warning, so one bad record does
// not lose the rest of a large build.
func Decode(data []byte) (*save.Document, []save.Warning, error) {
	r := bin.NewReader(data)

	magic, err := r.FixedString(len(Magic))
	if err != nil {
		return nil, nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != Magic {
		return nil, nil, fmt.Errorf("bad magic %q", magic)
	}
	version, err := r.U16()
	if err != nil {
		return nil, nil, fmt.Errorf("read version: %w", err)
	}
	if version != Version {
		return nil, nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, version, Version)
	}

	doc := &save.Document{}
	var warnings []save.Warning

	if doc.Author, err = r.String(); err != nil {
		return nil, nil, fmt.Errorf("read author: %w", err)
	}
	if doc.Description, err = r.String(); err != nil {
		return nil, nil, fmt.Errorf("read description: %w", err)
	}

	paletteCount, err := r.U8()
	if err != nil {
		return nil, nil, fmt.Errorf("read palette count: %w", err)
	}
	doc.Palette = make([]save.Color, paletteCount)
	for i := range doc.Palette {
		c := &doc.Palette[i]
		for _, f := range []*float32{&c.R, &c.G, &c.B, &c.A} {
			if *f, err = r.F32(); err != nil {
				return nil, nil, fmt.Errorf("read palette[%d]: %w", i, err)
			}
		}
	}

	brickCount, err := r.U32()
	if err != nil {
		return nil, nil, fmt.Errorf("read brick count: %w", err)
	}
	// A record is at least 17 bytes, so a count the remaining bytes cannot
	// possibly satisfy is a truncated (or hostile) stream, caught before
	// allocating for it.
	const minRecordSize = 17
	if uint64(brickCount)*minRecordSize > uint64(r.Remaining()) {
		return nil, nil, fmt.Errorf("%w: %d bricks declared, %d bytes left", bin.ErrTruncated, brickCount, r.Remaining())
	}

	doc.Bricks = make([]save.Brick, 0, brickCount)
	for i := uint32(0); i < brickCount; i++ {
		b, ws, err := decodeBrick(r, int(i))
		if err != nil {
			return nil, nil, fmt.Errorf("brick %d: %w", i, err)
		}
		doc.Bricks = append(doc.Bricks, b)
		warnings = append(warnings, ws...)
	}

	return doc, warnings, nil
}

func decodeBrick(r *bin.Reader, index int) (save.Brick, []save.Warning, error) {
	var b save.Brick
	var warnings []save.Warning
	var err error

	if b.TypeID, err = r.String(); err != nil {
		return b, nil, fmt.Errorf("ui name: %w", err)
	}
	for axis := range b.Position {
		if b.Position[axis], err = r.F32(); err != nil {
			return b, nil, fmt.Errorf("position: %w", err)
		}
	}

	angle, err := r.U8()
	if err != nil {
		return b, nil, fmt.Errorf("angle: %w", err)
	}
	if angle > 3 {
		// Out-of-range rotation code: keep the brick, default the angle.
		warnings = append(warnings, save.Warning{
			BrickIndex: index,
			TypeID:     b.TypeID,
			Reason:     save.InvalidRotation,
		})
		angle = 0
	}
	b.Angle = angle

	flags, err := r.Flags()
	if err != nil {
		return b, nil, fmt.Errorf("flags: %w", err)
	}
	b.Collision = flags.Has(flagCollision)
	b.Rendering = flags.Has(flagRendering)
	b.UpsideDown = flags.Has(flagUpsideDown)

	if b.ColorIndex, err = r.U8(); err != nil {
		return b, nil, fmt.Errorf("color index: %w", err)
	}
	if flags.Has(flagColorFX) {
		if b.ColorFX, err = r.U8(); err != nil {
			return b, nil, fmt.Errorf("color fx: %w", err)
		}
	}
	if flags.Has(flagPrint) {
		if b.Print, err = r.String(); err != nil {
			return b, nil, fmt.Errorf("print: %w", err)
		}
	}

	return b, warnings, nil
}
