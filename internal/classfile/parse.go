package classfile

import "github.com/classgraph/internal/scanspec"

// Parse decodes one classfile into an UnlinkedClassRecord, applying the
// scan spec's name-based pre-filter, visibility gates, and indexing flags
// as it goes. origin identifies the classpath element the bytes came from,
// recorded on the returned record for the cross-linker's first-seen-wins
// collision handling.
//
// Returns (nil, nil) — not an error — when the class is filtered out by
// matcher before its body is read; returns (nil, *UnrecognizedVersionError)
// when the magic/major version is unrecognized; returns (nil, *ParseError)
// for any other malformed input. All three are file-local failures: the
// caller skips this file and continues with the rest of the classpath root.
func Parse(data []byte, spec *scanspec.ScanSpec, matcher *scanspec.Matcher, origin ClasspathElementRef) (*UnlinkedClassRecord, error) {
	r := newReader(data)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, &UnrecognizedVersionError{Magic: magic}
	}

	if _, err := r.u2(); err != nil { // minor_version, unused
		return nil, err
	}
	major, err := r.u2()
	if err != nil {
		return nil, err
	}
	if major < minSupportedMajor || major > maxSupportedMajor {
		return nil, &UnrecognizedVersionError{Magic: magic, MajorVersion: major}
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u2()
	if err != nil {
		return nil, err
	}
	thisClassIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	superClassIdx, err := r.u2()
	if err != nil {
		return nil, err
	}

	className, err := pool.className(thisClassIdx)
	if err != nil {
		return nil, err
	}

	if matcher != nil && !matcher.ClassAllowed(className) {
		return nil, nil
	}

	superclassName := ""
	if superClassIdx != 0 {
		superclassName, err = pool.className(superClassIdx)
		if err != nil {
			return nil, err
		}
	}

	interfaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	interfaceNames := make([]string, 0, interfaceCount)
	for i := 0; i < int(interfaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := pool.className(idx)
		if err != nil {
			return nil, err
		}
		interfaceNames = append(interfaceNames, name)
	}

	fields, err := parseFields(r, pool, spec)
	if err != nil {
		return nil, err
	}
	methods, err := parseMethods(r, pool, spec)
	if err != nil {
		return nil, err
	}

	classAttrs, err := readAttributes(r, pool)
	if err != nil {
		return nil, err
	}

	record := &UnlinkedClassRecord{
		ClassName:      className,
		Modifiers:      accessFlags,
		IsInterface:    accessFlags&AccInterface != 0,
		IsAnnotation:   accessFlags&AccAnnotation != 0,
		SuperclassName: superclassName,
		InterfaceNames: interfaceNames,
		Origin:         origin,
	}

	if record.IsInterface {
		record.SuperclassName = ""
	}

	if spec == nil || spec.EnableClassInfo {
		sig, err := resolveSignature(classAttrs, pool)
		if err != nil {
			return nil, err
		}
		record.TypeSignature = sig

		enclosing, err := resolveEnclosingMethod(classAttrs, pool)
		if err != nil {
			return nil, err
		}
		record.EnclosingMethod = enclosing

		inner, err := resolveInnerClasses(classAttrs, pool)
		if err != nil {
			return nil, err
		}
		record.InnerClasses = inner
	}

	if spec == nil || spec.EnableAnnotationInfo {
		anns, err := decodeClassAnnotations(classAttrs, pool)
		if err != nil {
			return nil, err
		}
		record.Annotations = anns
	}

	if record.IsAnnotation {
		// AnnotationDefault lives on the annotation type's elements (its
		// methods), not on the class itself; aggregate across methods.
		var defaults []AnnotationParam
		for _, m := range methods {
			if m.AnnotationDefault != nil {
				defaults = append(defaults, AnnotationParam{Name: m.Name, Value: *m.AnnotationDefault})
			}
		}
		record.AnnotationDefaults = defaults
	}

	record.Fields = fields
	record.Methods = methods

	return record, nil
}

func decodeClassAnnotations(attrs attributeSet, pool *constantPool) ([]AnnotationRecord, error) {
	visible, err := readAnnotations(attrs[attrRuntimeVisibleAnnotations], pool)
	if err != nil {
		return nil, err
	}
	invisible, err := readAnnotations(attrs[attrRuntimeInvisibleAnnotations], pool)
	if err != nil {
		return nil, err
	}
	return append(visible, invisible...), nil
}

