package types

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	anyType             = reflect.TypeOf((*any)(nil)).Elem()
)

// builtins are the type names usable in a type attribute without
// registration.
var builtins = map[string]reflect.Type{
	"string":        reflect.TypeOf(""),
	"bool":          reflect.TypeOf(false),
	"int":           reflect.TypeOf(int(0)),
	"int8":          reflect.TypeOf(int8(0)),
	"int16":         reflect.TypeOf(int16(0)),
	"int32":         reflect.TypeOf(int32(0)),
	"int64":         reflect.TypeOf(int64(0)),
	"uint":          reflect.TypeOf(uint(0)),
	"uint8":         reflect.TypeOf(uint8(0)),
	"uint16":        reflect.TypeOf(uint16(0)),
	"uint32":        reflect.TypeOf(uint32(0)),
	"uint64":        reflect.TypeOf(uint64(0)),
	"byte":          reflect.TypeOf(byte(0)),
	"rune":          reflect.TypeOf(rune(0)),
	"float32":       reflect.TypeOf(float32(0)),
	"float64":       reflect.TypeOf(float64(0)),
	"duration":      durationType,
	"time.Duration": durationType,
	"time":          timeType,
	"time.Time":     timeType,
	"any":           anyType,
	"interface{}":   anyType,
}

// Convert parses text into a value of type t.
//
// format is a time layout for time.Time (RFC 3339 when empty) and a
// fmt.Sscanf verb pattern for everything else. Types implementing
// encoding.TextUnmarshaler parse themselves. Integers accept base
// prefixes (0x, 0o, 0b).
func Convert(text, format string, t reflect.Type) (reflect.Value, error) {
	switch {
	case t == timeType:
		layout := format
		if layout == "" {
			layout = time.RFC3339
		}
		tm, err := time.Parse(layout, text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(tm), nil

	case t == durationType && format == "":
		d, err := time.ParseDuration(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil

	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerType):
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil

	case format != "" && t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface:
		ptr := reflect.New(t)
		if _, err := fmt.Sscanf(text, format, ptr.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("parse %q with pattern %q: %w", text, format, err)
		}
		return ptr.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(text)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(strings.TrimSpace(text), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)

	case reflect.Pointer:
		elem, err := Convert(text, format, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return reflect.Value{}, fmt.Errorf("cannot convert text to %s", t)
		}
		v.Set(reflect.ValueOf(text))

	case reflect.Slice:
		if text == "" {
			return reflect.MakeSlice(t, 0, 0), nil
		}
		parts := strings.Split(text, ",")
		s := reflect.MakeSlice(t, 0, len(parts))
		for _, part := range parts {
			elem, err := Convert(strings.TrimSpace(part), format, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			s = reflect.Append(s, elem)
		}
		return s, nil

	default:
		return reflect.Value{}, fmt.Errorf("cannot convert text to %s", t)
	}
	return v, nil
}

// Assign adapts v so it can be stored in a location of type target.
// Values are used as-is when assignable, converted between named and
// underlying types of the same kind, converted between numeric kinds when
// the value is representable in target, and parsed when v is a string and
// target is not.
func Assign(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		if isNillable(target.Kind()) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", target)
	}
	rv := reflect.ValueOf(v)
	return fit(rv, target)
}

func fit(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	rt := rv.Type()
	switch {
	case rt.AssignableTo(target):
		return rv, nil
	case rt.Kind() == target.Kind() && rt.ConvertibleTo(target):
		return rv.Convert(target), nil
	case isNumeric(rt.Kind()) && isNumeric(target.Kind()):
		if err := representable(rv, target); err != nil {
			return reflect.Value{}, err
		}
		return rv.Convert(target), nil
	case rt.Kind() == reflect.String && target.Kind() != reflect.String:
		return Convert(rv.String(), "", target)
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", rt, target)
}

// representable reports an error unless the numeric value rv survives
// conversion to target unchanged in magnitude. Float targets accept any
// finite value in range; precision loss is allowed there.
func representable(rv reflect.Value, target reflect.Type) error {
	zero := reflect.Zero(target)
	bad := func(why string) error {
		return fmt.Errorf("cannot use %v as %s: %s", rv.Interface(), target, why)
	}

	switch {
	case isInt(target.Kind()):
		switch {
		case isInt(rv.Kind()):
			if zero.OverflowInt(rv.Int()) {
				return bad("out of range")
			}
		case isUint(rv.Kind()):
			if rv.Uint() > math.MaxInt64 || zero.OverflowInt(int64(rv.Uint())) {
				return bad("out of range")
			}
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return bad("has a fractional part")
			}
			if f < math.MinInt64 || f >= math.MaxInt64 || zero.OverflowInt(int64(f)) {
				return bad("out of range")
			}
		}
	case isUint(target.Kind()):
		switch {
		case isInt(rv.Kind()):
			if rv.Int() < 0 {
				return bad("negative")
			}
			if zero.OverflowUint(uint64(rv.Int())) {
				return bad("out of range")
			}
		case isUint(rv.Kind()):
			if zero.OverflowUint(rv.Uint()) {
				return bad("out of range")
			}
		default:
			f := rv.Float()
			if f != math.Trunc(f) {
				return bad("has a fractional part")
			}
			if f < 0 {
				return bad("negative")
			}
			if f >= math.MaxUint64 || zero.OverflowUint(uint64(f)) {
				return bad("out of range")
			}
		}
	default:
		if isFloat(rv.Kind()) && zero.OverflowFloat(rv.Float()) {
			return bad("out of range")
		}
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
