// Package gen turns a loaded model description into Zod validation modules.
//
// Every model is generated in up to three variants (pure, input and result),
// optionally wrapped by CRUD operation envelopes, together with one module
// per enum in use and the barrels stitching them together.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	Model description (load.Document)
//	        ↓
//	   Resolver (layered, cached VariantConfig per model × variant)
//	        ↓
//	   DependencyGraph + CircularResolver (acyclic pure relations)
//	        ↓
//	   NamingSystem (collision-free identifiers, reserved up front)
//	        ↓
//	   TypeMapper (field → Expr) + Emitter (module bodies)
//	        ↓
//	   Coordinator → Result → ExportManager (barrels, validation) → Writer
//
// # Key Types
//
//   - Config: Global configuration, built with functional options
//   - VariantConfig: Resolved configuration of one (model, variant) pair
//   - NamingResult: File path and identifiers of one module
//   - Expr: Typed expression IR, serialized once per module
//   - Module: Descriptor of one generated module
//   - Result: Outcome of a batch, with successes and failures side by side
//
// # Interface Hierarchy
//
//	MinimalEmitter (basic target support)
//	├── Name() string
//	├── VariantEmitter
//	└── EnumEmitter
//
//	Emitter (full interface, extends MinimalEmitter)
//	├── OperationEmitter (CRUD envelopes)
//	├── BarrelEmitter (index modules)
//	└── HelpersEmitter (shared helper schemas)
//
// The coordinator only generates envelopes and helpers when its emitter
// implements the matching optional interface.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - ConfigError: Configuration errors
//   - NamingError: Collision that could not be resolved (THROW_ERROR)
//   - GraphError: Relation graph errors
//   - GenerationError: Failure of one (model, variant) unit
//   - ValidationError: Unresolved imports, duplicate exports, cycles
//
// Failures of one unit never abort the batch:
//
//	res, err := coordinator.GenerateAllVariants(ctx, doc)
//	if err != nil {
//	    return err // invalid configuration or cancellation
//	}
//	for _, err := range res.Errors {
//	    if gen.IsNamingError(err) {
//	        // Handle the collision
//	    }
//	}
//
// # Configuration
//
//	cfg, err := gen.NewConfig(
//	    gen.WithMode(gen.ModeMinimal),
//	    gen.WithGlobalExclusions(gen.VariantInput, "password"),
//	    gen.WithModelFields("User", gen.FieldRules{Include: []string{"password"}}),
//	    gen.WithConcurrency(4),
//	)
//
// # Generated Output
//
//	{output}/
//	├── index.ts
//	├── variants/
//	│   ├── pure/{Model}.pure.ts
//	│   ├── input/{Model}.input.ts
//	│   └── result/{Model}.result.ts
//	├── enums/{Enum}.schema.ts
//	├── operations/{Model}{Operation}.schema.ts
//	└── helpers/json-helpers.ts
package gen
