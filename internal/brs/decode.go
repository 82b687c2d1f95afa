package brs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"bls2brs.dev/internal/bin"
)

// Decode parses a target save back into WriteData. The converter never
// needs this path; it exists so tests and tooling can verify emitted files
// without a game client.
func Decode(data []byte) (*WriteData, error) {
	r := bin.NewReader(data)

	magic, err := r.FixedString(len(Magic))
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	version, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported version %d (want %d)", version, Version)
	}

	header, err := readSection(r)
	if err != nil {
		return nil, fmt.Errorf("header section: %w", err)
	}
	brickBytes, err := readSection(r)
	if err != nil {
		return nil, fmt.Errorf("brick section: %w", err)
	}

	d, brickCount, err := decodeHeader(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if err := decodeBricks(d, brickCount, brickBytes); err != nil {
		return nil, fmt.Errorf("bricks: %w", err)
	}
	return d, nil
}

func decodeHeader(payload []byte) (*WriteData, uint32, error) {
	r := bin.NewReader(payload)
	d := &WriteData{}
	var err error

	if d.Map, err = r.String(); err != nil {
		return nil, 0, err
	}
	if d.Author.Name, err = r.String(); err != nil {
		return nil, 0, err
	}
	idBytes, err := r.Bytes(16)
	if err != nil {
		return nil, 0, err
	}
	copy(d.Author.ID[:], idBytes)
	if d.Description, err = r.String(); err != nil {
		return nil, 0, err
	}
	if d.SaveTime, err = r.U64(); err != nil {
		return nil, 0, err
	}
	brickCount, err := r.U32()
	if err != nil {
		return nil, 0, err
	}

	if d.Mods, err = readStringList(r); err != nil {
		return nil, 0, err
	}
	if d.BrickAssets, err = readStringList(r); err != nil {
		return nil, 0, err
	}

	colorCount, err := r.U32()
	if err != nil {
		return nil, 0, err
	}
	d.Colors = make([]Color, colorCount)
	for i := range d.Colors {
		v, err := r.U32()
		if err != nil {
			return nil, 0, err
		}
		d.Colors[i] = Color(v)
	}

	if d.Materials, err = readStringList(r); err != nil {
		return nil, 0, err
	}

	ownerCount, err := r.U32()
	if err != nil {
		return nil, 0, err
	}
	d.BrickOwners = make([]User, ownerCount)
	for i := range d.BrickOwners {
		idBytes, err := r.Bytes(16)
		if err != nil {
			return nil, 0, err
		}
		copy(d.BrickOwners[i].ID[:], idBytes)
		if d.BrickOwners[i].Name, err = r.String(); err != nil {
			return nil, 0, err
		}
	}

	return d, brickCount, nil
}

func decodeBricks(d *WriteData, count uint32, payload []byte) error {
	r := bin.NewReader(payload)
	d.Bricks = make([]Brick, 0, count)
	for i := uint32(0); i < count; i++ {
		var b Brick
		var err error
		if b.AssetIndex, err = r.U32(); err != nil {
			return err
		}
		for axis := range b.Size {
			if b.Size[axis], err = r.U32(); err != nil {
				return err
			}
		}
		for axis := range b.Position {
			if b.Position[axis], err = r.I32(); err != nil {
				return err
			}
		}
		if b.Direction, err = r.U8(); err != nil {
			return err
		}
		if b.Rotation, err = r.U8(); err != nil {
			return err
		}
		flags, err := r.Flags()
		if err != nil {
			return err
		}
		b.Collision = flags.Has(flagCollision)
		b.Visibility = flags.Has(flagVisibility)
		b.ColorIsIndex = flags.Has(flagColorIsIndex)
		if b.Color, err = r.U32(); err != nil {
			return err
		}
		if b.MaterialIndex, err = r.U32(); err != nil {
			return err
		}
		if b.OwnerIndex, err = r.U32(); err != nil {
			return err
		}
		d.Bricks = append(d.Bricks, b)
	}
	return nil
}

func readStringList(r *bin.Reader) ([]string, error) {
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	list := make([]string, count)
	for i := range list {
		if list[i], err = r.String(); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func readSection(r *bin.Reader) ([]byte, error) {
	compLen, err := r.U32()
	if err != nil {
		return nil, err
	}
	uncompLen, err := r.U32()
	if err != nil {
		return nil, err
	}

	if compLen == 0 {
		return r.Bytes(int(uncompLen))
	}

	raw, err := r.Bytes(int(compLen))
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	payload := make([]byte, uncompLen)
	if _, err := io.ReadFull(zr, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
