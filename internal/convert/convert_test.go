package convert

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"bls2brs.dev/internal/bin"
	"bls2brs.dev/internal/bls"
	"bls2brs.dev/internal/brs"
	"bls2brs.dev/internal/mappings"
	"bls2brs.dev/internal/save"
)

type fixtureBrick struct {
	name       string
	pos        [3]float32
	angle      uint8
	upsideDown bool
	colorIndex uint8
	colorFX    *uint8
	print      *string
}

func buildSave(palette []save.Color, bricks ...fixtureBrick) []byte {
	w := bin.NewWriter()
	w.Raw([]byte(bls.Magic))
	w.U16(bls.Version)
	w.String("builder")
	w.String("test build")
	w.U8(uint8(len(palette)))
	for _, c := range palette {
		w.F32(c.R)
		w.F32(c.G)
		w.F32(c.B)
		w.F32(c.A)
	}
	w.U32(uint32(len(bricks)))
	for _, b := range bricks {
		w.String(b.name)
		for _, p := range b.pos {
			w.F32(p)
		}
		w.U8(b.angle)
		flags := uint8(0b11) // collision + rendering
		if b.colorFX != nil {
			flags |= 1 << 2
		}
		if b.print != nil {
			flags |= 1 << 3
		}
		if b.upsideDown {
			flags |= 1 << 4
		}
		w.U8(flags)
		w.U8(b.colorIndex)
		if b.colorFX != nil {
			w.U8(*b.colorFX)
		}
		if b.print != nil {
			w.String(*b.print)
		}
	}
	return w.Bytes()
}

func whitePalette() []save.Color {
	return []save.Color{{R: 1, G: 1, B: 1, A: 1}}
}

func decodeOutput(t *testing.T, res *Result) *brs.WriteData {
	t.Helper()
	out, err := brs.Decode(res.Output)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return out
}

func TestConvertDirectMapping(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "2x2 Round", pos: [3]float32{1, 2, 3}, angle: 0, colorIndex: 0})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted != 1 || res.Dropped != 0 || len(res.Warnings) != 0 {
		t.Fatalf("result: %+v", res)
	}

	out := decodeOutput(t, res)
	if len(out.Bricks) != 1 {
		t.Fatalf("bricks: %d", len(out.Bricks))
	}
	b := out.Bricks[0]
	if out.BrickAssets[b.AssetIndex] != "B_2x2_Round" {
		t.Fatalf("asset: %s", out.BrickAssets[b.AssetIndex])
	}
	// Axes swap and scale by 20: (1,2,3) studs -> (40,20,60) grid units.
	if b.Position != [3]int32{40, 20, 60} {
		t.Fatalf("position: %v", b.Position)
	}
	if b.Rotation != 1 {
		t.Fatalf("rotation: %d", b.Rotation)
	}
	if b.Direction != brs.DirectionZPositive {
		t.Fatalf("direction: %d", b.Direction)
	}
	if !b.ColorIsIndex || b.Color != 0 {
		t.Fatalf("color: %+v", b)
	}
	if out.Colors[0] != brs.ColorFromRGBA(255, 255, 255, 255) {
		t.Fatalf("palette: %v", out.Colors)
	}
	if b.MaterialIndex != mappings.MaterialPlastic {
		t.Fatalf("material: %d", b.MaterialIndex)
	}
	if out.BrickOwners[b.OwnerIndex].Name != "PUBLIC" {
		t.Fatalf("owner: %+v", out.BrickOwners)
	}
	if out.Author.Name != "builder" || out.Description != "test build" {
		t.Fatalf("header: %+v", out)
	}
}

func TestConvertDeterminism(t *testing.T) {
	fx := uint8(3)
	data := buildSave(whitePalette(),
		fixtureBrick{name: "2x2 Octo", pos: [3]float32{0, 0, 1}, angle: 1, colorIndex: 0},
		fixtureBrick{name: "No Such Brick", pos: [3]float32{5, 5, 0}},
		fixtureBrick{name: "4x4", pos: [3]float32{1, 1, 1}, colorFX: &fx, colorIndex: 9})

	first, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	second, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !bytes.Equal(first.Output, second.Output) {
		t.Fatal("outputs differ between runs")
	}
	if !reflect.DeepEqual(first.Warnings, second.Warnings) {
		t.Fatalf("warnings differ: %+v vs %+v", first.Warnings, second.Warnings)
	}
}

func TestConvertUnknownTypeLenient(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "No Such Brick", pos: [3]float32{0, 0, 0}})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted != 0 || res.Dropped != 1 {
		t.Fatalf("counts: %+v", res)
	}
	want := []save.Warning{{BrickIndex: 0, TypeID: "No Such Brick", Reason: save.UnknownType}}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings: %+v", res.Warnings)
	}
	if res.UnknownTypes["No Such Brick"] != 1 {
		t.Fatalf("tally: %+v", res.UnknownTypes)
	}
	out := decodeOutput(t, res)
	if len(out.Bricks) != 0 {
		t.Fatalf("bricks: %d", len(out.Bricks))
	}
}

func TestConvertUnknownTypeStrict(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "No Such Brick"})

	_, err := Convert(data, Options{Strict: true})
	if !errors.Is(err, ErrUnmappedBrickType) {
		t.Fatalf("err=%v want ErrUnmappedBrickType", err)
	}
}

func TestConvertExplicitUnsupportedStrict(t *testing.T) {
	// "Spawn Point" is in the table as explicitly unsupported; strictness
	// treats it the same as a miss.
	data := buildSave(whitePalette(), fixtureBrick{name: "Spawn Point"})

	_, err := Convert(data, Options{Strict: true})
	if !errors.Is(err, ErrUnmappedBrickType) {
		t.Fatalf("err=%v want ErrUnmappedBrickType", err)
	}
}

func TestConvertPaletteOverflow(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "2x2 Round", colorIndex: 3})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := []save.Warning{{BrickIndex: 0, TypeID: "2x2 Round", Reason: save.UnknownPaletteIndex}}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings: %+v", res.Warnings)
	}
	out := decodeOutput(t, res)
	b := out.Bricks[0]
	if b.ColorIsIndex {
		t.Fatal("expected a literal fallback color, not an index")
	}
	if brs.Color(b.Color) != mappings.DefaultColor {
		t.Fatalf("color: %08x", b.Color)
	}
}

func TestConvertSubstitutionExpansion(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "2x2 Octo", pos: [3]float32{1, 1, 1}})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted != 1 {
		t.Fatalf("converted: %d", res.Converted)
	}
	out := decodeOutput(t, res)
	if len(out.Bricks) != 3 {
		t.Fatalf("bricks: %d", len(out.Bricks))
	}
	for i, wantZ := range []int32{16, 20, 24} {
		if out.Bricks[i].Position != [3]int32{20, 20, wantZ} {
			t.Fatalf("brick %d: %v", i, out.Bricks[i].Position)
		}
	}
}

func TestConvertSubstitutionOffsetsRotate(t *testing.T) {
	// Castle Wall's first sub-brick sits at offset (0,-10,0). With one
	// quarter turn the whole group must turn with the parent: (0,-10)
	// becomes (10,0).
	data := buildSave(whitePalette(),
		fixtureBrick{name: "Castle Wall", pos: [3]float32{0, 0, 0}, angle: 1})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)
	if len(out.Bricks) != 4 {
		t.Fatalf("bricks: %d", len(out.Bricks))
	}
	if out.Bricks[0].Position != [3]int32{10, 0, 0} {
		t.Fatalf("rotated offset: %v", out.Bricks[0].Position)
	}
	if out.Bricks[1].Position != [3]int32{-10, 0, 0} {
		t.Fatalf("rotated offset: %v", out.Bricks[1].Position)
	}
	// Z-only offsets are unaffected by the turn.
	if out.Bricks[2].Position != [3]int32{0, 0, -18} {
		t.Fatalf("z offset: %v", out.Bricks[2].Position)
	}
}

func TestConvertOrderPreservation(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "1x1 Round"},
		fixtureBrick{name: "2x2 Octo"},
		fixtureBrick{name: "No Such Brick"},
		fixtureBrick{name: "2x2F Round"})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)

	var assets []string
	for _, b := range out.Bricks {
		assets = append(assets, out.BrickAssets[b.AssetIndex])
	}
	want := []string{"B_1x1_Round", "B_2x2F_Octo", "B_2x2F_Octo", "B_2x2F_Octo", "B_2x2F_Round"}
	if !reflect.DeepEqual(assets, want) {
		t.Fatalf("order: %v", assets)
	}
}

func TestConvertMaterials(t *testing.T) {
	glow, metal, bogus := uint8(3), uint8(2), uint8(9)
	data := buildSave(whitePalette(),
		fixtureBrick{name: "1x1 Round", colorFX: &glow},
		fixtureBrick{name: "1x1 Round", colorFX: &metal},
		fixtureBrick{name: "1x1 Round", colorFX: &bogus})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)
	if out.Bricks[0].MaterialIndex != mappings.MaterialGlow {
		t.Fatalf("glow: %d", out.Bricks[0].MaterialIndex)
	}
	if out.Bricks[1].MaterialIndex != mappings.MaterialMetallic {
		t.Fatalf("metallic: %d", out.Bricks[1].MaterialIndex)
	}
	if out.Bricks[2].MaterialIndex != mappings.MaterialPlastic {
		t.Fatalf("fallback: %d", out.Bricks[2].MaterialIndex)
	}
	want := []save.Warning{{BrickIndex: 2, TypeID: "1x1 Round", Reason: save.UnknownMaterial}}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings: %+v", res.Warnings)
	}
}

func TestConvertRotationComposition(t *testing.T) {
	// Default bricks carry a rotation offset of 1, ramps 0.
	data := buildSave(whitePalette(),
		fixtureBrick{name: "2x4", angle: 3},
		fixtureBrick{name: "45° Ramp", angle: 2})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)
	if out.Bricks[0].Rotation != 0 { // (3+1)%4
		t.Fatalf("brick rotation: %d", out.Bricks[0].Rotation)
	}
	if out.Bricks[1].Rotation != 2 { // (2+0)%4
		t.Fatalf("ramp rotation: %d", out.Bricks[1].Rotation)
	}
}

func TestConvertUpsideDown(t *testing.T) {
	data := buildSave(whitePalette(),
		fixtureBrick{name: "1x1 Round", upsideDown: true})

	res, err := Convert(data, Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)
	if out.Bricks[0].Direction != brs.DirectionZNegative {
		t.Fatalf("direction: %d", out.Bricks[0].Direction)
	}
}

func TestConvertOverrides(t *testing.T) {
	overrides := map[string][]mappings.BrickDesc{
		"No Such Brick": {{Asset: "PB_DefaultBrick", Size: [3]uint32{5, 5, 6}, RotationOffset: 1}},
		"1x1 Round":     {}, // deliberate drop
	}
	data := buildSave(whitePalette(),
		fixtureBrick{name: "No Such Brick"},
		fixtureBrick{name: "1x1 Round"})

	res, err := Convert(data, Options{Strict: true, Overrides: overrides})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted != 1 || res.Dropped != 1 {
		t.Fatalf("counts: %+v", res)
	}
	want := []save.Warning{{BrickIndex: 1, TypeID: "1x1 Round", Reason: save.Dropped}}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings: %+v", res.Warnings)
	}
	out := decodeOutput(t, res)
	if len(out.Bricks) != 1 || out.BrickAssets[out.Bricks[0].AssetIndex] != "PB_DefaultBrick" {
		t.Fatalf("bricks: %+v", out.Bricks)
	}
}

func TestConvertDescriptionPrefix(t *testing.T) {
	data := buildSave(whitePalette())

	res, err := Convert(data, Options{DescriptionPrefix: "Converted from a.bls with bls2brs."})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out := decodeOutput(t, res)
	if out.Description != "Converted from a.bls with bls2brs.\ntest build" {
		t.Fatalf("description: %q", out.Description)
	}
}

func TestConvertDecodeErrorsPropagate(t *testing.T) {
	data := buildSave(whitePalette(), fixtureBrick{name: "1x1 Round"})

	if _, err := Convert(data[:len(data)-2], Options{}); !errors.Is(err, bin.ErrTruncated) {
		t.Fatalf("err=%v want ErrTruncated", err)
	}
	if _, err := Convert([]byte("not a save"), Options{}); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestRotateOffset(t *testing.T) {
	off := [3]int32{3, 4, 5}
	cases := [][3]int32{
		{3, 4, 5},
		{-4, 3, 5},
		{-3, -4, 5},
		{4, -3, 5},
	}
	for angle, want := range cases {
		if got := rotateOffset(off, uint8(angle)); got != want {
			t.Fatalf("angle %d: got %v want %v", angle, got, want)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	// Every reachable brick position sits on the 5-unit target grid, and
	// quarter studs are exact in float32, so the remap inverts cleanly.
	cases := [][3]int32{
		{0, 0, 0},
		{5, -10, 15},
		{40, 20, 60},
		{-1000005, 999995, 500000},
	}
	for _, p := range cases {
		if got := convertPosition(invertPosition(p)); got != p {
			t.Fatalf("round trip %v: got %v", p, got)
		}
	}
}
