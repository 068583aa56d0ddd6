package gen

import (
	"fmt"
	"strings"
)

// VariantType enumerates the shapes generated for each model.
type VariantType uint8

const (
	// VariantPure is the field-only shape of a model.
	VariantPure VariantType = iota
	// VariantInput is the shape accepted by create/update operations.
	VariantInput
	// VariantResult is the shape returned by read operations.
	VariantResult
)

// AllVariants lists every variant in generation order.
var AllVariants = []VariantType{VariantPure, VariantInput, VariantResult}

var variantNames = [...]string{
	VariantPure:   "pure",
	VariantInput:  "input",
	VariantResult: "result",
}

// String returns the lower-case variant name.
func (v VariantType) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", v)
}

// Valid reports if v is one of the known variants.
func (v VariantType) Valid() bool { return int(v) < len(variantNames) }

// ParseVariantType parses a variant name. It is case-insensitive and
// accepts the upper-case tags (PURE, INPUT, RESULT) as well.
func ParseVariantType(s string) (VariantType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pure":
		return VariantPure, nil
	case "input":
		return VariantInput, nil
	case "result":
		return VariantResult, nil
	default:
		return 0, NewConfigError("Variant", s, "unknown variant; use pure, input or result")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v VariantType) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, NewConfigError("Variant", uint8(v), "unknown variant")
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VariantType) UnmarshalText(text []byte) error {
	parsed, err := ParseVariantType(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// variantDefaults returns the built-in configuration of a variant, the
// lowest layer of the configuration merge.
func variantDefaults(v VariantType) *VariantOverride {
	switch v {
	case VariantPure:
		return &VariantOverride{
			Naming: &NamingOverride{
				FileSuffix:   ptr(".pure"),
				SchemaSuffix: ptr("ModelSchema"),
				TypeSuffix:   ptr("Model"),
				Directory:    ptr("variants/pure"),
			},
			AutoExclude:              ptr(false),
			Documentation:            ptr(true),
			EmitTypes:                ptr(true),
			Strictness:               ptr(StrictnessStrip),
			IncludeRelations:         ptr(false),
			ExcludeCircularRelations: ptr(false),
			DateTimeStrategy:         ptr(DateTimeDate),
			Priority:                 ptr(10),
		}
	case VariantInput:
		return &VariantOverride{
			Naming: &NamingOverride{
				FileSuffix:   ptr(".input"),
				SchemaSuffix: ptr("InputSchema"),
				TypeSuffix:   ptr("Input"),
				Directory:    ptr("variants/input"),
			},
			AutoExclude:      ptr(true),
			Documentation:    ptr(false),
			EmitTypes:        ptr(true),
			Strictness:       ptr(StrictnessStrict),
			IncludeRelations: ptr(false),
			DateTimeStrategy: ptr(DateTimeCoerce),
			Priority:         ptr(20),
		}
	default:
		return &VariantOverride{
			Naming: &NamingOverride{
				FileSuffix:   ptr(".result"),
				SchemaSuffix: ptr("ResultSchema"),
				TypeSuffix:   ptr("Result"),
				Directory:    ptr("variants/result"),
			},
			AutoExclude:      ptr(false),
			Documentation:    ptr(false),
			EmitTypes:        ptr(true),
			Strictness:       ptr(StrictnessStrip),
			IncludeRelations: ptr(false),
			DateTimeStrategy: ptr(DateTimeDate),
			Priority:         ptr(30),
		}
	}
}

func ptr[T any](v T) *T { return &v }
