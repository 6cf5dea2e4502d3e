package library

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// vectors.bin layout: 4-byte magic, uint32 row count, uint32 dimension,
// then rows*dim little-endian float32 values in row-major order. Row i
// corresponds to table row i.
var vectorsMagic = [4]byte{'M', 'R', 'V', '1'}

func readVectors(path string) ([][]float32, int, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, 0, false, fmt.Errorf("%w: vectors header: %v", ErrCorruptIndex, err)
	}
	if magic != vectorsMagic {
		return nil, 0, false, fmt.Errorf("%w: bad vectors magic %q", ErrCorruptIndex, magic[:])
	}

	var rows, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, 0, false, fmt.Errorf("%w: vectors row count: %v", ErrCorruptIndex, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, 0, false, fmt.Errorf("%w: vectors dimension: %v", ErrCorruptIndex, err)
	}

	buf := make([]byte, int(rows)*int(dim)*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, false, fmt.Errorf("%w: vectors truncated: %v", ErrCorruptIndex, err)
	}
	if extra, _ := r.Peek(1); len(extra) != 0 {
		return nil, 0, false, fmt.Errorf("%w: trailing bytes after vector matrix", ErrCorruptIndex)
	}

	vecs := make([][]float32, rows)
	for i := range vecs {
		row := make([]float32, dim)
		base := i * int(dim) * 4
		for j := range row {
			bits := binary.LittleEndian.Uint32(buf[base+j*4:])
			row[j] = math.Float32frombits(bits)
		}
		vecs[i] = row
	}
	return vecs, int(dim), true, nil
}

func writeVectors(path string, vecs [][]float32, dim int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vectors: %w", err)
	}
	w := bufio.NewWriter(f)

	if _, err := w.Write(vectorsMagic[:]); err != nil {
		f.Close()
		return fmt.Errorf("write vectors magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vecs))); err != nil {
		f.Close()
		return fmt.Errorf("write vectors row count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		f.Close()
		return fmt.Errorf("write vectors dimension: %w", err)
	}

	buf := make([]byte, 4)
	for i, row := range vecs {
		if len(row) != dim {
			f.Close()
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := w.Write(buf); err != nil {
				f.Close()
				return fmt.Errorf("write vector row: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush vectors: %w", err)
	}
	return f.Close()
}
