package brs

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"bls2brs.dev/internal/bin"
)

// ErrInvalidTargetBrick reports a brick referencing a table slot that does
// not exist. The transform guarantees this cannot happen; the encoder
// checks anyway rather than emit corrupt bytes.
var ErrInvalidTargetBrick = fmt.Errorf("invalid target brick")

// Encode serializes a complete target save.
func Encode(d *WriteData) ([]byte, error) {
	if err := validate(d); err != nil {
		return nil, err
	}

	w := bin.NewWriter()
	w.Raw([]byte(Magic))
	w.U16(Version)

	if err := writeSection(w, encodeHeader(d)); err != nil {
		return nil, fmt.Errorf("header section: %w", err)
	}
	if err := writeSection(w, encodeBricks(d)); err != nil {
		return nil, fmt.Errorf("brick section: %w", err)
	}
	return w.Bytes(), nil
}

func validate(d *WriteData) error {
	for i, b := range d.Bricks {
		switch {
		case int(b.AssetIndex) >= len(d.BrickAssets):
			return fmt.Errorf("%w: brick %d asset index %d of %d", ErrInvalidTargetBrick, i, b.AssetIndex, len(d.BrickAssets))
		case int(b.MaterialIndex) >= len(d.Materials):
			return fmt.Errorf("%w: brick %d material index %d of %d", ErrInvalidTargetBrick, i, b.MaterialIndex, len(d.Materials))
		case int(b.OwnerIndex) >= len(d.BrickOwners):
			return fmt.Errorf("%w: brick %d owner index %d of %d", ErrInvalidTargetBrick, i, b.OwnerIndex, len(d.BrickOwners))
		case b.ColorIsIndex && int(b.Color) >= len(d.Colors):
			return fmt.Errorf("%w: brick %d color index %d of %d", ErrInvalidTargetBrick, i, b.Color, len(d.Colors))
		}
	}
	return nil
}

func encodeHeader(d *WriteData) []byte {
	w := bin.NewWriter()
	w.String(d.Map)
	w.String(d.Author.Name)
	w.Raw(d.Author.ID[:])
	w.String(d.Description)
	w.U64(d.SaveTime)
	w.U32(uint32(len(d.Bricks)))

	writeStringList(w, d.Mods)
	writeStringList(w, d.BrickAssets)

	w.U32(uint32(len(d.Colors)))
	for _, c := range d.Colors {
		w.U32(uint32(c))
	}

	writeStringList(w, d.Materials)

	w.U32(uint32(len(d.BrickOwners)))
	for _, u := range d.BrickOwners {
		w.Raw(u.ID[:])
		w.String(u.Name)
	}
	return w.Bytes()
}

func encodeBricks(d *WriteData) []byte {
	w := bin.NewWriter()
	for _, b := range d.Bricks {
		w.U32(b.AssetIndex)
		for _, s := range b.Size {
			w.U32(s)
		}
		for _, p := range b.Position {
			w.I32(p)
		}
		w.U8(b.Direction)
		w.U8(b.Rotation)

		var flags uint8
		if b.Collision {
			flags |= 1 << flagCollision
		}
		if b.Visibility {
			flags |= 1 << flagVisibility
		}
		if b.ColorIsIndex {
			flags |= 1 << flagColorIsIndex
		}
		w.U8(flags)

		w.U32(b.Color)
		w.U32(b.MaterialIndex)
		w.U32(b.OwnerIndex)
	}
	return w.Bytes()
}

func writeStringList(w *bin.Writer, list []string) {
	w.U32(uint32(len(list)))
	for _, s := range list {
		w.String(s)
	}
}

// writeSection frames a payload as (compressed len, uncompressed len,
// bytes). Payloads that zlib cannot shrink are stored raw with a
// compressed length of zero.
func writeSection(w *bin.Writer, payload []byte) error {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if buf.Len() >= len(payload) {
		w.U32(0)
		w.U32(uint32(len(payload)))
		w.Raw(payload)
		return nil
	}
	w.U32(uint32(buf.Len()))
	w.U32(uint32(len(payload)))
	w.Raw(buf.Bytes())
	return nil
}
