package config

import (
	"reflect"
	"strings"
)

// walkStruct calls visit on val, then on every exported field, recursively,
// through pointers. Pointers are visited before being followed so visit may
// allocate them.
func walkStruct(val reflect.Value, visit func(reflect.Value)) {
	visit(val)

	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if !typ.Field(i).IsExported() {
			continue
		}
		walkStruct(val.Field(i), visit)
	}
}

// toScreamingSnakeCase turns "CustomerId" into "CUSTOMER_ID" and
// "log-level" into "LOG_LEVEL".
func toScreamingSnakeCase(in string) string {
	in = strings.TrimSpace(in)

	var sb strings.Builder
	sb.Grow(len(in) + len(in)/3)

	previousWasSeparator := true
	for i := 0; i < len(in); i++ {
		b := in[i]
		switch {
		case 'a' <= b && b <= 'z':
			sb.WriteByte(b - ('a' - 'A'))
			previousWasSeparator = false
		case 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
			if !previousWasSeparator && !isUpperOrDigit(in[i-1]) {
				sb.WriteByte('_')
			}
			sb.WriteByte(b)
			previousWasSeparator = false
		case b == '_' || b == '-' || b == '.':
			if !previousWasSeparator {
				sb.WriteByte('_')
			}
			previousWasSeparator = true
		default:
			sb.WriteByte(b)
			previousWasSeparator = false
		}
	}

	return strings.TrimSuffix(sb.String(), "_")
}

func isUpperOrDigit(b byte) bool {
	return ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
