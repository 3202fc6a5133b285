package registry

import (
	"strconv"
	"strings"
)

// Value types, numbered as in winnt.h
const (
	typeSZ       uint32 = 1
	typeExpandSZ uint32 = 2
	typeBinary   uint32 = 3
	typeDWORD    uint32 = 4
	typeMultiSZ  uint32 = 7
	typeQWORD    uint32 = 11
)

// multiSeparator joins the strings of a REG_MULTI_SZ value
const multiSeparator = ","

// valueReader is the part of a registry key used to decode values
type valueReader interface {
	GetStringValue(name string) (string, uint32, error)
	GetIntegerValue(name string) (uint64, uint32, error)
	GetStringsValue(name string) ([]string, uint32, error)
}

// decodeValue renders a value of type valtype as text. ok is false for types
// with no text form, such as REG_BINARY and REG_DWORD_BIG_ENDIAN.
func decodeValue(r valueReader, name string, valtype uint32) (v string, ok bool, err error) {
	switch valtype {
	case typeSZ, typeExpandSZ:
		s, _, err := r.GetStringValue(name)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	case typeDWORD, typeQWORD:
		n, _, err := r.GetIntegerValue(name)
		if err != nil {
			return "", false, err
		}
		return strconv.FormatUint(n, 10), true, nil
	case typeMultiSZ:
		parts, _, err := r.GetStringsValue(name)
		if err != nil {
			return "", false, err
		}
		return strings.Join(parts, multiSeparator), true, nil
	}
	return "", false, nil
}
