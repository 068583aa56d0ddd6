package gen

import (
	"slices"
)

// Operation is a CRUD operation for which an envelope schema is generated.
type Operation string

// Supported operations.
const (
	OpFindUnique Operation = "findUnique"
	OpFindFirst  Operation = "findFirst"
	OpFindMany   Operation = "findMany"
	OpCreate     Operation = "create"
	OpCreateMany Operation = "createMany"
	OpUpdate     Operation = "update"
	OpUpdateMany Operation = "updateMany"
	OpUpsert     Operation = "upsert"
	OpDelete     Operation = "delete"
	OpDeleteMany Operation = "deleteMany"
	OpCount      Operation = "count"
	OpAggregate  Operation = "aggregate"
	OpGroupBy    Operation = "groupBy"
)

// AllOperations lists every supported operation in generation order.
var AllOperations = []Operation{
	OpFindUnique, OpFindFirst, OpFindMany,
	OpCreate, OpCreateMany,
	OpUpdate, OpUpdateMany, OpUpsert,
	OpDelete, OpDeleteMany,
	OpCount, OpAggregate, OpGroupBy,
}

// MinimalOperations is the operation set of the minimal mode.
var MinimalOperations = []Operation{OpFindUnique, OpFindMany, OpCreate, OpUpdate, OpDelete}

// Valid reports if the operation is supported.
func (o Operation) Valid() bool { return slices.Contains(AllOperations, o) }

// Preset describes the variants and operations a mode enables by default.
type Preset struct {
	Mode        Mode
	Description string
	Variants    map[VariantType]bool
	Operations  []Operation
}

var (
	// PresetFull generates every variant and every operation envelope.
	PresetFull = Preset{
		Mode:        ModeFull,
		Description: "Generates every variant and the envelopes of all CRUD operations",
		Variants:    map[VariantType]bool{VariantPure: true, VariantInput: true, VariantResult: true},
		Operations:  AllOperations,
	}

	// PresetMinimal generates the pure and input shapes with the basic operations.
	PresetMinimal = Preset{
		Mode:        ModeMinimal,
		Description: "Generates the pure and input variants with basic CRUD envelopes only",
		Variants:    map[VariantType]bool{VariantPure: true, VariantInput: true},
		Operations:  MinimalOperations,
	}

	// PresetCustom generates the operations listed by the configuration,
	// globally or per model, and every operation when none is listed.
	PresetCustom = Preset{
		Mode:        ModeCustom,
		Description: "Generates the variants and operations selected by the configuration",
		Variants:    map[VariantType]bool{VariantPure: true, VariantInput: true, VariantResult: true},
		Operations:  AllOperations,
	}

	// AllPresets holds all the presets by mode.
	AllPresets = map[Mode]Preset{
		ModeFull:    PresetFull,
		ModeMinimal: PresetMinimal,
		ModeCustom:  PresetCustom,
	}
)

// presetFor returns the preset of a mode, defaulting to the full preset.
func presetFor(m Mode) Preset {
	if p, ok := AllPresets[m]; ok {
		return p
	}
	return PresetFull
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := AllPresets[m]; !ok {
		return "", NewConfigError("Mode", s, "unknown mode; use full, minimal or custom")
	}
	return m, nil
}

// ParseOperations parses a list of operation names.
func ParseOperations(names ...string) ([]Operation, error) {
	ops := make([]Operation, 0, len(names))
	for _, n := range names {
		op := Operation(n)
		if !op.Valid() {
			return nil, NewConfigError("Operations", n, "unknown operation")
		}
		ops = append(ops, op)
	}
	return ops, nil
}
