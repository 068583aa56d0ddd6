package gen

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
)

// NamingResult holds the identifiers and paths of one generated module.
type NamingResult struct {
	// FileName is the base file name, with extension.
	FileName string
	// Directory is the output directory, relative to the output root.
	Directory string
	// FilePath joins Directory and FileName.
	FilePath   string
	SchemaName string
	TypeName   string
	// IsCollisionResolved is set when the names differ from the base names
	// because of a collision.
	IsCollisionResolved bool
	// Original holds the base names computed before collision resolution.
	Original BaseNames
	// Attempts is the number of collision attempts made.
	Attempts int
	// Warning is set when the retry bound was exceeded and a name was
	// found past it.
	Warning string
}

// BaseNames are the names computed from the model name and the naming policy.
type BaseNames struct {
	FileName   string
	SchemaName string
	TypeName   string
}

// ModulePath returns the file path without its extension, as used in import
// specifiers.
func (r *NamingResult) ModulePath() string {
	return strings.TrimSuffix(r.FilePath, path.Ext(r.FilePath))
}

// NamingSystem derives collision-free names. One instance serves one
// generation batch; Reset must be called before reusing it for an unrelated
// batch. It is safe for concurrent use.
type NamingSystem struct {
	mu          sync.Mutex
	collision   CollisionOptions
	casing      Casing
	usedFiles   map[string]struct{}
	usedSchemas map[string]struct{}
}

// NewNamingSystem creates a naming system with the collision and casing
// policy of the configuration.
func NewNamingSystem(cfg *Config) *NamingSystem {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.withDefaults()
	return &NamingSystem{
		collision:   cfg.Collision,
		casing:      cfg.Naming.Casing,
		usedFiles:   make(map[string]struct{}),
		usedSchemas: make(map[string]struct{}),
	}
}

// Reset clears the used-name sets.
func (n *NamingSystem) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.usedFiles)
	clear(n.usedSchemas)
}

// Used reports if a schema identifier was already handed out.
func (n *NamingSystem) Used(schema string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.usedSchemas[schema]
	return ok
}

// Generate derives the names of a (model, variant) pair and marks them used.
// A nil naming config means the variant defaults.
func (n *NamingSystem) Generate(model string, v VariantType, nc *NamingConfig) (*NamingResult, error) {
	if nc == nil {
		d := resolveNaming(variantDefaults(v).Naming, n.casing)
		nc = &d
	}
	casing := nc.Casing
	if casing == "" {
		casing = n.casing
	}
	name := normalizeName(model)
	base := BaseNames{
		FileName:   fileName(name, nc.FileSuffix, casing),
		SchemaName: nc.Prefix + name + nc.SchemaSuffix,
		TypeName:   nc.Prefix + name + nc.TypeSuffix,
	}
	return n.reserve(model, v, nc.Directory, name, base, nc.FileSuffix, casing)
}

// NameOperation derives the names of the envelope module of a CRUD operation.
func (n *NamingSystem) NameOperation(model string, op Operation) (*NamingResult, error) {
	name := normalizeName(model) + pascal(string(op))
	nc := &NamingConfig{
		FileSuffix:   ".schema",
		SchemaSuffix: "ArgsSchema",
		TypeSuffix:   "Args",
		Directory:    "operations",
		Casing:       n.casing,
	}
	return n.Generate(name, VariantInput, nc)
}

// NameEnum derives the names of an enum module.
func (n *NamingSystem) NameEnum(enum string) (*NamingResult, error) {
	nc := &NamingConfig{
		FileSuffix:   ".schema",
		SchemaSuffix: "Schema",
		Directory:    "enums",
		Casing:       CasingPascal,
	}
	return n.Generate(enum, VariantPure, nc)
}

func fileName(name, suffix string, casing Casing) string {
	if casing == CasingCamel {
		name = camel(name)
	}
	return name + suffix + ".ts"
}

// reserve resolves collisions and marks the final names used.
func (n *NamingSystem) reserve(model string, v VariantType, dir, name string, base BaseNames, suffix string, casing Casing) (*NamingResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	res := &NamingResult{
		FileName:   base.FileName,
		Directory:  dir,
		SchemaName: base.SchemaName,
		TypeName:   base.TypeName,
		Original:   base,
	}
	res.FilePath = path.Join(dir, res.FileName)
	if n.free(res) {
		n.mark(res)
		return res, nil
	}
	retries := n.collision.MaxRetries
	for i := 1; i <= retries; i++ {
		n.attempt(res, i, v, dir, name, base, suffix, casing)
		if n.free(res) {
			res.IsCollisionResolved = true
			n.mark(res)
			return res, nil
		}
	}
	if n.collision.Strategy == ThrowError {
		return nil, NewNamingError(model, v, res.SchemaName, retries)
	}
	for i := retries + 1; ; i++ {
		n.attempt(res, i, v, dir, name, base, suffix, casing)
		if n.free(res) {
			res.IsCollisionResolved = true
			res.Warning = fmt.Sprintf("naming %s (%s): retry bound %d exceeded, using %s", model, v, retries, res.SchemaName)
			n.mark(res)
			return res, nil
		}
	}
}

// attempt computes the names of collision attempt i.
func (n *NamingSystem) attempt(res *NamingResult, i int, v VariantType, dir, name string, base BaseNames, suffix string, casing Casing) {
	res.Attempts = i
	num := strconv.Itoa(i)
	switch n.collision.Strategy {
	case PrefixVariant:
		prefix := n.collision.Prefix
		if prefix == "" {
			prefix = pascal(v.String())
		}
		res.SchemaName = prefix + num + base.SchemaName
		res.FileName = fileName(prefix+num+name, suffix, casing)
	default:
		res.SchemaName = base.SchemaName + "_" + num
		res.FileName = fileName(name, "_"+num+suffix, casing)
	}
	// Derive the type from the resolved schema so both stay paired.
	res.TypeName = strings.Replace(res.SchemaName, base.SchemaName, base.TypeName, 1)
	res.FilePath = path.Join(dir, res.FileName)
}

func (n *NamingSystem) free(res *NamingResult) bool {
	_, file := n.usedFiles[res.FilePath]
	_, schema := n.usedSchemas[res.SchemaName]
	return !file && !schema
}

func (n *NamingSystem) mark(res *NamingResult) {
	n.usedFiles[res.FilePath] = struct{}{}
	n.usedSchemas[res.SchemaName] = struct{}{}
}
