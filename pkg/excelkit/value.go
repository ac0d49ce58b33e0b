package excelkit

import (
	sqldriver "database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/locvowork/fleet_management_sample/pkg/excelkit/driver"
)

// fieldTags are consulted, in order, when a path segment does not match a
// struct field name.
var fieldTags = []string{"excel", "json", "db"}

// ExtractPath walks a dotted path through structs, maps and pointers.
// Segments match a struct field name or its excel, json or db tag, or a map
// key. Any missing step yields nil.
func ExtractPath(row interface{}, path string) interface{} {
	if row == nil || path == "" {
		return nil
	}
	v := reflect.ValueOf(row)
	for _, seg := range strings.Split(path, ".") {
		v = indirect(v)
		if !v.IsValid() {
			return nil
		}
		switch v.Kind() {
		case reflect.Struct:
			v = structField(v, seg)
		case reflect.Map:
			v = mapIndex(v, seg)
		default:
			return nil
		}
		if !v.IsValid() {
			return nil
		}
	}
	v = indirect(v)
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func structField(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return v.FieldByIndex(f.Index)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		for _, key := range fieldTags {
			tag := strings.Split(f.Tag.Get(key), ",")[0]
			if tag != "" && tag == name {
				return v.Field(i)
			}
		}
	}
	return reflect.Value{}
}

func mapIndex(v reflect.Value, key string) reflect.Value {
	kt := v.Type().Key()
	if kt.Kind() != reflect.String {
		return reflect.Value{}
	}
	return v.MapIndex(reflect.ValueOf(key).Convert(kt))
}

// NormalizeCellValue reduces v to a value a driver accepts: nil, string,
// bool, an integer or float, time.Time or driver.RichText.
func NormalizeCellValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		elem := rv.Elem().Interface()
		switch elem.(type) {
		case time.Time, driver.RichText, sqldriver.Valuer, error, fmt.Stringer:
			return NormalizeCellValue(elem)
		}
		// methods declared on the pointer only
		switch x := v.(type) {
		case sqldriver.Valuer:
			val, err := x.Value()
			if err != nil {
				return nil
			}
			return NormalizeCellValue(val)
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
		return NormalizeCellValue(elem)
	}

	switch x := v.(type) {
	case string, bool, time.Time, driver.RichText:
		return x
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil
		}
		return x
	case []byte:
		return string(x)
	case sqldriver.Valuer:
		val, err := x.Value()
		if err != nil {
			return nil
		}
		return NormalizeCellValue(val)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return NormalizeCellValue(rv.Float())
	}
	return fmt.Sprint(v)
}
