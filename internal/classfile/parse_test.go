package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/classgraph/internal/scanspec"
)

// cpBuilder accumulates constant pool entries and hands back 1-based
// indices, mirroring the layout parseConstantPool expects.
type cpBuilder struct {
	buf  bytes.Buffer
	next uint16
}

func newCPBuilder() *cpBuilder {
	return &cpBuilder{next: 1}
}

func (b *cpBuilder) utf8(s string) uint16 {
	idx := b.next
	b.buf.WriteByte(tagUTF8)
	binary.Write(&b.buf, binary.BigEndian, uint16(len(s)))
	b.buf.WriteString(s)
	b.next++
	return idx
}

func (b *cpBuilder) class(nameIdx uint16) uint16 {
	idx := b.next
	b.buf.WriteByte(tagClass)
	binary.Write(&b.buf, binary.BigEndian, nameIdx)
	b.next++
	return idx
}

// count returns the constant_pool_count value: highest assigned index + 1.
func (b *cpBuilder) count() uint16 {
	return b.next
}

// buildMinimalClass assembles a classfile with no superclass interfaces,
// fields, or methods, just a this_class/super_class pair naming
// "com/example/Widget" extending "java/lang/Object", with the given
// class-level access flags.
func buildMinimalClass(t *testing.T, accessFlags uint16) []byte {
	t.Helper()

	cp := newCPBuilder()
	widgetNameIdx := cp.utf8("com/example/Widget")
	widgetClassIdx := cp.class(widgetNameIdx)
	objNameIdx := cp.utf8("java/lang/Object")
	objClassIdx := cp.class(objNameIdx)

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major (Java 8)

	binary.Write(&out, binary.BigEndian, cp.count())
	out.Write(cp.buf.Bytes())

	binary.Write(&out, binary.BigEndian, accessFlags)
	binary.Write(&out, binary.BigEndian, widgetClassIdx)
	binary.Write(&out, binary.BigEndian, objClassIdx)

	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // methods_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // attributes_count

	return out.Bytes()
}

func TestParseMinimalClass(t *testing.T) {
	data := buildMinimalClass(t, AccPublic|AccSuper())

	rec, err := Parse(data, nil, nil, ClasspathElementRef{Path: "test.jar"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec == nil {
		t.Fatal("Parse returned nil record")
	}
	if rec.ClassName != "com.example.Widget" {
		t.Errorf("ClassName = %q, want com.example.Widget", rec.ClassName)
	}
	if rec.SuperclassName != "java.lang.Object" {
		t.Errorf("SuperclassName = %q, want java.lang.Object", rec.SuperclassName)
	}
	if rec.Origin.Path != "test.jar" {
		t.Errorf("Origin.Path = %q, want test.jar", rec.Origin.Path)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildMinimalClass(t, AccPublic)
	data[0] = 0x00

	_, err := Parse(data, nil, nil, ClasspathElementRef{})
	if _, ok := err.(*UnrecognizedVersionError); !ok {
		t.Fatalf("err = %v (%T), want *UnrecognizedVersionError", err, err)
	}
}

func TestParseAppliesMatcherPreFilter(t *testing.T) {
	data := buildMinimalClass(t, AccPublic)

	spec := scanspec.New(scanspec.WithBlacklistPackages("com.example"))
	matcher := scanspec.NewMatcher(spec)

	rec, err := Parse(data, spec, matcher, ClasspathElementRef{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec != nil {
		t.Fatalf("Parse returned %+v, want nil (filtered by matcher)", rec)
	}
}

func TestParseInterfaceClearsSuperclass(t *testing.T) {
	data := buildMinimalClass(t, AccPublic|AccInterface|AccAbstract)

	rec, err := Parse(data, nil, nil, ClasspathElementRef{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !rec.IsInterface {
		t.Error("IsInterface = false, want true")
	}
	if rec.SuperclassName != "" {
		t.Errorf("SuperclassName = %q, want empty for an interface", rec.SuperclassName)
	}
}

func TestParseTruncatedInputIsParseError(t *testing.T) {
	data := buildMinimalClass(t, AccPublic)
	truncated := data[:len(data)-4]

	_, err := Parse(truncated, nil, nil, ClasspathElementRef{})
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("err = %v (%T), want *ParseError", err, err)
	}
}

// AccSuper returns the ACC_SUPER bit (0x0020), set by the compiler on
// virtually every real classfile but not otherwise inspected by this
// package; included here to keep the fixture realistic.
func AccSuper() uint16 { return 0x0020 }
