// file: internal/protocol/json/tags.go
package json

import (
	"github.com/cockroachdb/errors"

	"github.com/dkoosis/thriftrt/internal/terror"
	"github.com/dkoosis/thriftrt/internal/ttype"
)

// Type tags from the closed set in spec.md §4.3/§6. Disambiguation on
// read uses the first character, then the second for the i-family and
// str-vs-set.
const (
	tagBool   = "tf"
	tagByte   = "i8"
	tagI16    = "i16"
	tagI32    = "i32"
	tagI64    = "i64"
	tagDouble = "dbl"
	tagString = "str"
	tagStruct = "rec"
	tagMap    = "map"
	tagList   = "lst"
	tagSet    = "set"
)

func tagForType(t ttype.TType) (string, error) {
	switch t {
	case ttype.BOOL:
		return tagBool, nil
	case ttype.BYTE:
		return tagByte, nil
	case ttype.I16:
		return tagI16, nil
	case ttype.I32:
		return tagI32, nil
	case ttype.I64:
		return tagI64, nil
	case ttype.DOUBLE:
		return tagDouble, nil
	case ttype.STRING:
		return tagString, nil
	case ttype.STRUCT:
		return tagStruct, nil
	case ttype.MAP:
		return tagMap, nil
	case ttype.LIST:
		return tagList, nil
	case ttype.SET:
		return tagSet, nil
	default:
		return "", terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.Newf("no JSON type tag for %s", t))
	}
}

func typeForTag(tag string) (ttype.TType, error) {
	switch tag {
	case tagBool:
		return ttype.BOOL, nil
	case tagByte:
		return ttype.BYTE, nil
	case tagI16:
		return ttype.I16, nil
	case tagI32:
		return ttype.I32, nil
	case tagI64:
		return ttype.I64, nil
	case tagDouble:
		return ttype.DOUBLE, nil
	case tagString:
		return ttype.STRING, nil
	case tagStruct:
		return ttype.STRUCT, nil
	case tagMap:
		return ttype.MAP, nil
	case tagList:
		return ttype.LIST, nil
	case tagSet:
		return ttype.SET, nil
	default:
		return 0, terror.NewTProtocolExceptionWithType(terror.TProtocolInvalidData,
			errors.Newf("unrecognized JSON type tag %q", tag))
	}
}
