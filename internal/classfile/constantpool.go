package classfile

import (
	"math"
	"strings"
)

// Constant pool tags, per the JVM spec; sizing mirrors the per-tag switch in
// other_examples/1475948c_raskyer-asm__asm-classreader.go.go.
const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry is one constant pool slot. Only the fields relevant to the
// recorded facts are populated; unused tags keep raw numeric fields at
// zero.
type cpEntry struct {
	tag      byte
	utf8     string
	intVal   int32
	longVal  int64
	floatVal float32
	doubleVal float64
	class    uint16 // name_index for Class
	nameType uint16 // NameAndType: name_index
	descType uint16 // NameAndType: descriptor_index
}

// constantPool is a 1-indexed table (index 0 is unused, per the JVM spec;
// long/double entries additionally occupy the following index).
type constantPool struct {
	entries []cpEntry
}

func parseConstantPool(r *reader) (*constantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	pool := &constantPool{entries: make([]cpEntry, count)}

	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}

		var e cpEntry
		e.tag = tag

		switch tag {
		case tagUTF8:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			e.utf8 = decodeModifiedUTF8(b)
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.intVal = int32(v)
		case tagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.floatVal = int32BitsToFloat32(v)
		case tagLong:
			hi, err := r.u4()
			if err != nil {
				return nil, err
			}
			lo, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.longVal = int64(hi)<<32 | int64(lo)
			pool.entries[i] = e
			i++ // long/double occupy two constant pool indices
			continue
		case tagDouble:
			hi, err := r.u4()
			if err != nil {
				return nil, err
			}
			lo, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.doubleVal = int64BitsToFloat64(int64(hi)<<32 | int64(lo))
			pool.entries[i] = e
			i++
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.class = idx
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			a, err := r.u2()
			if err != nil {
				return nil, err
			}
			b, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.nameType = a
			e.descType = b
		case tagMethodHandle:
			if _, err := r.u1(); err != nil {
				return nil, err
			}
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.class = idx
		default:
			return nil, &ParseError{Offset: r.pos, Msg: "unrecognized constant pool tag"}
		}

		pool.entries[i] = e
	}

	return pool, nil
}

func (p *constantPool) get(idx uint16) (cpEntry, error) {
	if int(idx) <= 0 || int(idx) >= len(p.entries) {
		return cpEntry{}, &ParseError{Msg: "constant pool index out of range"}
	}
	return p.entries[idx], nil
}

// utf8 resolves a UTF8 constant pool entry. An idx of zero (the "no value"
// sentinel used by several optional attribute fields) yields "" and no
// error.
func (p *constantPool) utf8(idx uint16) (string, error) {
	if idx == 0 {
		return "", nil
	}
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != tagUTF8 {
		return "", &ParseError{Msg: "constant pool entry is not UTF8"}
	}
	return e.utf8, nil
}

// className resolves a CONSTANT_Class entry to its internal-form name
// (slash-separated) converted to the dotted form used throughout the rest
// of this package.
func (p *constantPool) className(idx uint16) (string, error) {
	if idx == 0 {
		return "", nil
	}
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != tagClass {
		return "", &ParseError{Msg: "constant pool entry is not a Class"}
	}
	internal, err := p.utf8(e.class)
	if err != nil {
		return "", err
	}
	return internalToDotted(internal), nil
}

// internalToDotted converts "com/example/Widget" to "com.example.Widget".
// Array and primitive descriptors (as seen embedded in some Class entries
// for array types) are left as-is; descriptor normalization happens where
// type descriptors are consumed, not here.
func internalToDotted(name string) string {
	if strings.HasPrefix(name, "[") {
		return name
	}
	return strings.ReplaceAll(name, "/", ".")
}

func int32BitsToFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func int64BitsToFloat64(bits int64) float64 {
	return math.Float64frombits(uint64(bits))
}
