// Package classfile parses the JVM classfile binary format into an unlinked
// class record: magic/version header, a tagged constant pool, access flags,
// superclass/interface/field/method/attribute tables.
//
// Grounded on internal/parser/hprof for the overall shape of a hand-rolled
// tagged binary-record reader (big-endian field reads, tag dispatch,
// forward-only cursor with explicit bounds checks) and
// on the constant-pool tag layout shown in
// other_examples/1475948c_raskyer-asm__asm-classreader.go.go (per-tag entry
// sizes) and other_examples/2741dc8f_tarczynskitomek-jacobin__src-classloader-parser.go.go.
package classfile

import (
	"encoding/binary"
	"fmt"
)

// reader is a forward-reading cursor over a classfile byte buffer with
// explicit bounds checks on every read, matching the hprof parser's
// core_reader.go style of returning a ParseError instead of panicking on a
// short buffer.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) require(n int) error {
	if n < 0 {
		return &ParseError{Offset: r.pos, Msg: "negative length"}
	}
	if r.remaining() < n {
		return &ParseError{Offset: r.pos, Msg: "unexpected end of stream"}
	}
	return nil
}

func (r *reader) u1() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u2() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ParseError reports a malformed classfile at a byte offset. EOF reads,
// invalid constant-pool references, and negative lengths are all
// classified this way; the containing file is skipped but the rest of the
// classpath root continues.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classfile parse error at offset %d: %s", e.Offset, e.Msg)
}

// UnrecognizedVersionError marks a classfile whose magic or major version
// is unrecognized. Unlike ParseError, this is detected before any
// constant-pool interpretation is attempted and is always fatal to just
// this file.
type UnrecognizedVersionError struct {
	Magic        uint32
	MajorVersion uint16
}

func (e *UnrecognizedVersionError) Error() string {
	return fmt.Sprintf("unrecognized classfile (magic=%#x, major=%d)", e.Magic, e.MajorVersion)
}

const (
	classMagic = 0xCAFEBABE

	// minSupportedMajor/maxSupportedMajor bound the major version range this
	// parser understands. Versions outside this range are reported via
	// UnrecognizedVersionError rather than guessed at.
	minSupportedMajor = 45  // JDK 1.1
	maxSupportedMajor = 68  // JDK 24
)
