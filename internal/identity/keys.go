// Package identity holds the process-wide device identity that the rest of a
// process reads after the spoofing engine has run.
package identity

import (
	"fmt"
	"strings"
)

// Key is one reported identity attribute
type Key int

const (
	KeyBrand Key = iota
	KeyManufacturer
	KeyDevice
	KeyProduct
	KeyModel
	KeyFingerprint
	KeyType
	KeyTags

	keyCount
)

// Keys lists every attribute key in declaration order.
var Keys = []Key{
	KeyBrand,
	KeyManufacturer,
	KeyDevice,
	KeyProduct,
	KeyModel,
	KeyFingerprint,
	KeyType,
	KeyTags,
}

// KeyString to upper-case attribute name
func KeyString(k Key) string {
	switch k {
	case KeyBrand:
		return "BRAND"
	case KeyManufacturer:
		return "MANUFACTURER"
	case KeyDevice:
		return "DEVICE"
	case KeyProduct:
		return "PRODUCT"
	case KeyModel:
		return "MODEL"
	case KeyFingerprint:
		return "FINGERPRINT"
	case KeyType:
		return "TYPE"
	case KeyTags:
		return "TAGS"
	default:
		return "UNKNOWN"
	}
}

func (k Key) String() string {
	return KeyString(k)
}

// Valid reports whether k is a member of the closed key set.
func (k Key) Valid() bool {
	return k >= 0 && k < keyCount
}

// ParseKey case-insensitive
func ParseKey(s string) (Key, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range Keys {
		if KeyString(k) == name {
			return k, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// MarshalText lets keys be used as JSON object keys.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
	}
	return []byte(KeyString(k)), nil
}

// UnmarshalText
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// VersionField is a numeric build-version attribute
type VersionField int

const (
	VersionDeviceInitialSDK VersionField = iota
)

// VersionFieldString
func VersionFieldString(f VersionField) string {
	switch f {
	case VersionDeviceInitialSDK:
		return "DEVICE_INITIAL_SDK_INT"
	default:
		return "UNKNOWN"
	}
}
