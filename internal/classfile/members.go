package classfile

import "github.com/classgraph/internal/scanspec"

// indexingAllowed reports whether an already-read member passes the
// ignore-visibility gate: kept if visibility is ignored, or if the public
// bit is set.
func indexingAllowed(modifiers uint16, ignoreVisibility bool) bool {
	return ignoreVisibility || modifiers&AccPublic != 0
}

// parseFields reads the fields_count-prefixed field table. Always consumes
// the bytes (the table must be read to reach the methods table that
// follows it) but only retains entries when index-fields is enabled and
// the member passes the visibility gate.
func parseFields(r *reader, pool *constantPool, spec *scanspec.ScanSpec) ([]FieldRecord, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	indexFields := spec == nil || spec.IndexFields
	indexAnnotations := spec == nil || spec.IndexFieldAnnotations
	ignoreVisibility := spec != nil && spec.IgnoreFieldVisibility

	var out []FieldRecord
	for i := 0; i < int(count); i++ {
		modifiers, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := readAttributes(r, pool)
		if err != nil {
			return nil, err
		}

		if !indexFields {
			continue
		}
		if !indexingAllowed(modifiers, ignoreVisibility) {
			continue
		}

		name, err := pool.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		descriptor, err := pool.utf8(descIdx)
		if err != nil {
			return nil, err
		}
		signature, err := resolveSignature(attrs, pool)
		if err != nil {
			return nil, err
		}

		fr := FieldRecord{
			Modifiers:      modifiers,
			Name:           name,
			TypeDescriptor: descriptor,
			TypeSignature:  signature,
		}

		if modifiers&AccStatic != 0 && modifiers&AccFinal != 0 {
			cv, err := resolveConstantValue(attrs, pool)
			if err != nil {
				return nil, err
			}
			fr.ConstantValue = cv
		}

		if indexAnnotations {
			visible, err := readAnnotations(attrs[attrRuntimeVisibleAnnotations], pool)
			if err != nil {
				return nil, err
			}
			invisible, err := readAnnotations(attrs[attrRuntimeInvisibleAnnotations], pool)
			if err != nil {
				return nil, err
			}
			fr.Annotations = append(visible, invisible...)
		}

		out = append(out, fr)
	}
	return out, nil
}

// parseMethods reads the methods_count-prefixed method table. Methods are
// always walked (the attribute table must be consumed to reach class
// attributes afterward) but are retained only when index-methods is
// enabled, or when index-method-annotations is enabled and the method
// carries at least one annotation — scanned, then filtered to the
// annotated subset.
func parseMethods(r *reader, pool *constantPool, spec *scanspec.ScanSpec) ([]MethodRecord, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	indexMethods := spec == nil || spec.IndexMethods
	indexAnnotations := spec == nil || spec.IndexMethodAnnotations
	ignoreVisibility := spec != nil && spec.IgnoreMethodVisibility

	var out []MethodRecord
	for i := 0; i < int(count); i++ {
		modifiers, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		attrs, err := readAttributes(r, pool)
		if err != nil {
			return nil, err
		}

		if !indexMethods && !indexAnnotations {
			continue
		}
		if !indexingAllowed(modifiers, ignoreVisibility) {
			continue
		}

		visible, err := readAnnotations(attrs[attrRuntimeVisibleAnnotations], pool)
		if err != nil {
			return nil, err
		}
		invisible, err := readAnnotations(attrs[attrRuntimeInvisibleAnnotations], pool)
		if err != nil {
			return nil, err
		}
		annotations := append(visible, invisible...)

		if !indexMethods && len(annotations) == 0 {
			continue
		}

		name, err := pool.utf8(nameIdx)
		if err != nil {
			return nil, err
		}
		descriptor, err := pool.utf8(descIdx)
		if err != nil {
			return nil, err
		}
		signature, err := resolveSignature(attrs, pool)
		if err != nil {
			return nil, err
		}
		exceptions, err := resolveExceptions(attrs, pool)
		if err != nil {
			return nil, err
		}
		params, err := resolveMethodParameters(attrs, pool)
		if err != nil {
			return nil, err
		}
		paramAnnotationsVisible, err := readParameterAnnotations(attrs[attrRuntimeVisibleParameterAnnotations], pool)
		if err != nil {
			return nil, err
		}
		paramAnnotationsInvisible, err := readParameterAnnotations(attrs[attrRuntimeInvisibleParameterAnnotations], pool)
		if err != nil {
			return nil, err
		}
		annotationDefault, err := readAnnotationDefault(attrs[attrAnnotationDefault], pool)
		if err != nil {
			return nil, err
		}

		mr := MethodRecord{
			Modifiers:            modifiers,
			Name:                 name,
			TypeDescriptor:       descriptor,
			TypeSignature:        signature,
			Parameters:           params,
			Annotations:          annotations,
			ParameterAnnotations: mergeParameterAnnotations(paramAnnotationsVisible, paramAnnotationsInvisible),
			ExceptionTypes:       exceptions,
			AnnotationDefault:    annotationDefault,
		}

		out = append(out, mr)
	}
	return out, nil
}

func mergeParameterAnnotations(a, b [][]AnnotationRecord) [][]AnnotationRecord {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([][]AnnotationRecord, n)
	for i := 0; i < n; i++ {
		var merged []AnnotationRecord
		if i < len(a) {
			merged = append(merged, a[i]...)
		}
		if i < len(b) {
			merged = append(merged, b[i]...)
		}
		out[i] = merged
	}
	return out
}
