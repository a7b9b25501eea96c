package classfile

import "sort"

// element_value tags, per the JVM spec's RuntimeVisibleAnnotations layout.
const (
	evByte       = 'B'
	evChar       = 'C'
	evDouble     = 'D'
	evFloat      = 'F'
	evInt        = 'I'
	evLong       = 'J'
	evShort      = 'S'
	evBoolean    = 'Z'
	evString     = 's'
	evEnum       = 'e'
	evClass      = 'c'
	evAnnotation = '@'
	evArray      = '['
)

// readAnnotations decodes a RuntimeVisible/InvisibleAnnotations attribute's
// num_annotations-prefixed list.
func readAnnotations(data []byte, pool *constantPool) ([]AnnotationRecord, error) {
	if data == nil {
		return nil, nil
	}
	r := newReader(data)
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]AnnotationRecord, 0, count)
	for i := 0; i < int(count); i++ {
		rec, err := readAnnotation(r, pool)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// readParameterAnnotations decodes a RuntimeVisible/InvisibleParameterAnnotations
// attribute: num_parameters, then one num_annotations-prefixed list per
// parameter.
func readParameterAnnotations(data []byte, pool *constantPool) ([][]AnnotationRecord, error) {
	if data == nil {
		return nil, nil
	}
	r := newReader(data)
	numParams, err := r.u1()
	if err != nil {
		return nil, err
	}
	out := make([][]AnnotationRecord, numParams)
	for p := 0; p < int(numParams); p++ {
		count, err := r.u2()
		if err != nil {
			return nil, err
		}
		recs := make([]AnnotationRecord, 0, count)
		for i := 0; i < int(count); i++ {
			rec, err := readAnnotation(r, pool)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
		out[p] = recs
	}
	return out, nil
}

func readAnnotation(r *reader, pool *constantPool) (AnnotationRecord, error) {
	typeIdx, err := r.u2()
	if err != nil {
		return AnnotationRecord{}, err
	}
	descriptor, err := pool.utf8(typeIdx)
	if err != nil {
		return AnnotationRecord{}, err
	}

	numPairs, err := r.u2()
	if err != nil {
		return AnnotationRecord{}, err
	}
	params := make([]AnnotationParam, 0, numPairs)
	for i := 0; i < int(numPairs); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return AnnotationRecord{}, err
		}
		name, err := pool.utf8(nameIdx)
		if err != nil {
			return AnnotationRecord{}, err
		}
		val, err := readElementValue(r, pool)
		if err != nil {
			return AnnotationRecord{}, err
		}
		params = append(params, AnnotationParam{Name: name, Value: val})
	}

	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })

	return AnnotationRecord{ClassName: fieldDescriptorToClassName(descriptor), Params: params}, nil
}

// readAnnotationDefault decodes an AnnotationDefault attribute, which holds
// a single element_value with no surrounding annotation wrapper.
func readAnnotationDefault(data []byte, pool *constantPool) (*AnnotationValue, error) {
	if data == nil {
		return nil, nil
	}
	r := newReader(data)
	val, err := readElementValue(r, pool)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func readElementValue(r *reader, pool *constantPool) (AnnotationValue, error) {
	tag, err := r.u1()
	if err != nil {
		return AnnotationValue{}, err
	}

	switch tag {
	case evByte, evChar, evInt, evShort, evBoolean:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := pool.get(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValuePrimitive, Primitive: decodePrimitiveConst(tag, e.intVal)}, nil
	case evDouble:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := pool.get(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValuePrimitive, Primitive: e.doubleVal}, nil
	case evFloat:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := pool.get(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValuePrimitive, Primitive: e.floatVal}, nil
	case evLong:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := pool.get(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValuePrimitive, Primitive: e.longVal}, nil
	case evString:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		s, err := pool.utf8(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValueString, String: s}, nil
	case evClass:
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		s, err := pool.utf8(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValueClass, ClassDescriptor: s}, nil
	case evEnum:
		typeIdx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		constIdx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		typeDesc, err := pool.utf8(typeIdx)
		if err != nil {
			return AnnotationValue{}, err
		}
		constName, err := pool.utf8(constIdx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{
			Kind:             ValueEnum,
			EnumClassName:    fieldDescriptorToClassName(typeDesc),
			EnumConstantName: constName,
		}, nil
	case evAnnotation:
		rec, err := readAnnotation(r, pool)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: ValueAnnotation, Annotation: &rec}, nil
	case evArray:
		count, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		arr := make([]AnnotationValue, 0, count)
		for i := 0; i < int(count); i++ {
			v, err := readElementValue(r, pool)
			if err != nil {
				return AnnotationValue{}, err
			}
			arr = append(arr, v)
		}
		return AnnotationValue{Kind: ValueArray, Array: arr}, nil
	default:
		return AnnotationValue{}, &ParseError{Msg: "unrecognized element_value tag"}
	}
}

func decodePrimitiveConst(tag byte, raw int32) interface{} {
	switch tag {
	case evByte:
		return int8(raw)
	case evChar:
		return uint16(raw)
	case evShort:
		return int16(raw)
	case evBoolean:
		return raw != 0
	default: // evInt
		return raw
	}
}

// fieldDescriptorToClassName converts a field descriptor like
// "Lcom/example/Widget;" to "com.example.Widget". Non-object descriptors
// (arrays, primitives) are returned unchanged since annotation class names
// and enum type names are always object descriptors in valid classfiles.
func fieldDescriptorToClassName(descriptor string) string {
	if len(descriptor) >= 2 && descriptor[0] == 'L' && descriptor[len(descriptor)-1] == ';' {
		return internalToDotted(descriptor[1 : len(descriptor)-1])
	}
	return descriptor
}
