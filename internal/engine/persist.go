package engine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// magicHeader tags the on-disk diagram format: a header (this magic,
// name, rank, class string, storage order, element-type byte, block
// count), followed by one (irrep tuple, dims, raw little-endian
// doubles) record per block. The header is not fixed-size: strings are
// written with a uint32 length prefix, and there is no separate valence
// mask -- valence-restricted lines are written as v/g class letters.
const magicHeader = "EXPTDG01"

// Write persists diagram name to path in the layout of spec.md §6.
func (r *Registry) Write(name, path string) error {
	d, err := r.MustFind("write", name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	rank := d.Rank()
	classStr := make([]byte, rank)
	for i, c := range d.Classes {
		classStr[i] = byte(c)
		if d.Valence[i] {
			classStr[i] = spinor.Letter(c, true)
		}
	}
	keys := r.store.Keys(name)

	writeStr := func(s string) error {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
			return err
		}
		_, err := w.WriteString(s)
		return err
	}

	if err := writeStr(magicHeader); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	if err := writeStr(name); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(rank)); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	if err := writeStr(string(classStr)); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	orderStr := orderToDigits(d.Order)
	if err := writeStr(orderStr); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	elemByte := byte(0)
	if d.Elem == Real {
		elemByte = 1
	}
	if err := w.WriteByte(elemByte); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(keys))); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}

	for _, k := range keys {
		b, _ := r.store.Get(name, k)
		tuple := k.Tuple(rank)
		for _, ir := range tuple {
			if err := binary.Write(w, binary.LittleEndian, uint32(ir)); err != nil {
				return kerr("write", name, ErrStorageError, err.Error())
			}
		}
		for _, dim := range b.Dims {
			if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
				return kerr("write", name, ErrStorageError, err.Error())
			}
		}
		for _, v := range b.Data {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(real(v))); err != nil {
				return kerr("write", name, ErrStorageError, err.Error())
			}
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(imag(v))); err != nil {
				return kerr("write", name, ErrStorageError, err.Error())
			}
		}
	}
	if err := w.Flush(); err != nil {
		return kerr("write", name, ErrStorageError, err.Error())
	}
	return nil
}

// Read loads a diagram previously written by Write, registering it
// under the name stored in the file, and returns that name.
func (r *Registry) Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", kerr("read", path, ErrStorageError, err.Error())
	}
	defer f.Close()
	rd := bufio.NewReader(f)

	readStr := func() (string, error) {
		var n uint32
		if err := binary.Read(rd, binary.LittleEndian, &n); err != nil {
			return "", err
		}
		buf := make([]byte, n)
		if _, err := rd.Read(buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	magic, err := readStr()
	if err != nil || magic != magicHeader {
		return "", kerr("read", path, ErrStorageError, "bad or missing header")
	}
	name, err := readStr()
	if err != nil {
		return "", kerr("read", path, ErrStorageError, err.Error())
	}
	var rank uint32
	if err := binary.Read(rd, binary.LittleEndian, &rank); err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	classStr, err := readStr()
	if err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	orderStr, err := readStr()
	if err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	elemByte, err := rd.ReadByte()
	if err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	var nBlocks uint32
	if err := binary.Read(rd, binary.LittleEndian, &nBlocks); err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}

	classes, valence, err := spinor.ParseClassString(classStr)
	if err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	order, err := parseOrder(orderStr, int(rank))
	if err != nil {
		return "", kerr("read", name, ErrStorageError, err.Error())
	}
	elem := Complex
	if elemByte == 1 {
		elem = Real
	}

	r.Erase(name)
	d := &Diagram{Name: name, Classes: classes, Valence: valence, Order: order, Elem: elem}
	r.diagrams[name] = d
	r.recordCreated(name)
	r.store.CreateDiagram(name)

	for i := uint32(0); i < nBlocks; i++ {
		tuple := make([]symmetry.Irrep, rank)
		for j := range tuple {
			var v uint32
			if err := binary.Read(rd, binary.LittleEndian, &v); err != nil {
				return "", kerr("read", name, ErrStorageError, err.Error())
			}
			tuple[j] = symmetry.Irrep(v)
		}
		dims := make([]int, rank)
		for j := range dims {
			var v uint32
			if err := binary.Read(rd, binary.LittleEndian, &v); err != nil {
				return "", kerr("read", name, ErrStorageError, err.Error())
			}
			dims[j] = int(v)
		}
		b := block.NewZero(dims)
		for k := range b.Data {
			var reBits, imBits uint64
			if err := binary.Read(rd, binary.LittleEndian, &reBits); err != nil {
				return "", kerr("read", name, ErrStorageError, err.Error())
			}
			if err := binary.Read(rd, binary.LittleEndian, &imBits); err != nil {
				return "", kerr("read", name, ErrStorageError, err.Error())
			}
			b.Data[k] = complex(math.Float64frombits(reBits), math.Float64frombits(imBits))
		}
		r.store.Put(name, block.NewKey(tuple), b)
	}
	return name, nil
}

// DiagramFilePath is the `<letter><rank>c.dg` / `veff<hp>.dg` naming
// convention of spec.md §6.
func DiagramFilePath(dir, diagramName string) string {
	return fmt.Sprintf("%s/%s.dg", dir, diagramName)
}
