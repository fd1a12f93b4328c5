package terrain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Altitude table errors.
var (
	ErrAltitudeMagic      = errors.New("invalid altitude table magic: expected 'GRAT'")
	ErrAltitudeVersion    = errors.New("unsupported altitude table version")
	ErrAltitudeTruncated  = errors.New("truncated altitude table")
	ErrAltitudeDimensions = errors.New("invalid altitude table dimensions")
)

const (
	altitudeMagic      = "GRAT"
	altitudeHeaderSize = 14
	altitudeMaxSide    = 4096
)

// CellType classifies an altitude table cell.
type CellType uint32

// Cell types as stored on disk.
const (
	CellWalkable     CellType = 0
	CellBlocked      CellType = 1
	CellWater        CellType = 2
	CellShallowWater CellType = 3 // Walkable water
	CellCliff        CellType = 4 // Not walkable, open to projectiles
	CellCliffBlocked CellType = 5
)

// Walkable reports whether agents may stand on the cell.
func (t CellType) Walkable() bool {
	return t == CellWalkable || t == CellShallowWater
}

// Water reports whether the cell is covered by water.
func (t CellType) Water() bool {
	return t == CellWater || t == CellShallowWater
}

func (t CellType) String() string {
	switch t {
	case CellWalkable:
		return "walkable"
	case CellBlocked:
		return "blocked"
	case CellWater:
		return "water"
	case CellShallowWater:
		return "shallow_water"
	case CellCliff:
		return "cliff"
	case CellCliffBlocked:
		return "cliff_blocked"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// AltitudeCell is one square of the table. Corner depths are ordered
// south-west, south-east, north-west, north-east and grow downwards.
type AltitudeCell struct {
	Corners [4]float32
	Type    CellType
}

// AltitudeTable is a grid of per-cell corner depths and walkability, in the
// GRAT binary layout.
type AltitudeTable struct {
	Major, Minor uint8
	Width        int
	Depth        int
	Cells        []AltitudeCell // Row-major, z * Width + x
}

// Cell returns the cell at (x, z), or nil outside the table.
func (t *AltitudeTable) Cell(x, z int) *AltitudeCell {
	if x < 0 || z < 0 || x >= t.Width || z >= t.Depth {
		return nil
	}
	return &t.Cells[z*t.Width+x]
}

// ParseAltitudeTable decodes a GRAT table. Versions 1.x to 3.x share the
// cell layout.
func ParseAltitudeTable(data []byte) (*AltitudeTable, error) {
	if len(data) < altitudeHeaderSize {
		return nil, ErrAltitudeTruncated
	}
	if string(data[:4]) != altitudeMagic {
		return nil, ErrAltitudeMagic
	}

	t := &AltitudeTable{Minor: data[4], Major: data[5]}
	if t.Major < 1 || t.Major > 3 {
		return nil, fmt.Errorf("%w: %d.%d", ErrAltitudeVersion, t.Major, t.Minor)
	}

	width := binary.LittleEndian.Uint32(data[6:10])
	depth := binary.LittleEndian.Uint32(data[10:14])
	if width == 0 || depth == 0 || width > altitudeMaxSide || depth > altitudeMaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrAltitudeDimensions, width, depth)
	}
	t.Width, t.Depth = int(width), int(depth)

	t.Cells = make([]AltitudeCell, t.Width*t.Depth)
	need := len(t.Cells) * binary.Size(AltitudeCell{})
	if len(data)-altitudeHeaderSize < need {
		return nil, fmt.Errorf("%w: %d cell bytes, want %d", ErrAltitudeTruncated, len(data)-altitudeHeaderSize, need)
	}
	if err := binary.Read(bytes.NewReader(data[altitudeHeaderSize:]), binary.LittleEndian, t.Cells); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAltitudeTruncated, err)
	}
	return t, nil
}

// LoadAltitudeTable reads and decodes a table file.
func LoadAltitudeTable(path string) (*AltitudeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading altitude table: %w", err)
	}
	t, err := ParseAltitudeTable(data)
	if err != nil {
		return nil, fmt.Errorf("altitude table %s: %w", path, err)
	}
	return t, nil
}

// Encode writes the table in the GRAT layout.
func (t *AltitudeTable) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(altitudeHeaderSize + len(t.Cells)*binary.Size(AltitudeCell{}))
	buf.WriteString(altitudeMagic)
	buf.WriteByte(t.Minor)
	buf.WriteByte(t.Major)
	_ = binary.Write(buf, binary.LittleEndian, uint32(t.Width))
	_ = binary.Write(buf, binary.LittleEndian, uint32(t.Depth))
	_ = binary.Write(buf, binary.LittleEndian, t.Cells)
	return buf.Bytes()
}
