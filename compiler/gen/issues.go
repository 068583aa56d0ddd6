package gen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ConfigIssue is a configuration problem found by validation. Issues are
// reported to the caller, never raised in the middle of generation.
type ConfigIssue struct {
	// Path locates the offending value, e.g. "models.User.variants.pure.priority".
	Path    string
	Message string
	// Warning marks issues that do not prevent generation.
	Warning bool
}

func (i ConfigIssue) String() string {
	level := "error"
	if i.Warning {
		level = "warning"
	}
	return fmt.Sprintf("%s: %s: %s", level, i.Path, i.Message)
}

// HasErrors reports if any issue is not a warning.
func HasErrors(issues []ConfigIssue) bool {
	for _, i := range issues {
		if !i.Warning {
			return true
		}
	}
	return false
}

// JoinIssues formats the issues on one line.
func JoinIssues(issues []ConfigIssue) string {
	parts := make([]string, len(issues))
	for i, is := range issues {
		parts[i] = is.String()
	}
	return strings.Join(parts, "; ")
}

var identSuffix = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// ValidateOverride checks one override layer.
func ValidateOverride(o *VariantOverride) []ConfigIssue {
	return validateOverride("override", o)
}

func validateOverride(path string, o *VariantOverride) []ConfigIssue {
	if o == nil {
		return nil
	}
	var issues []ConfigIssue
	add := func(field, format string, args ...any) {
		issues = append(issues, ConfigIssue{Path: path + "." + field, Message: fmt.Sprintf(format, args...)})
	}
	if o.Priority != nil && (*o.Priority < 0 || *o.Priority > 100) {
		add("priority", "priority %d out of range [0, 100]", *o.Priority)
	}
	if o.Strictness != nil {
		switch *o.Strictness {
		case StrictnessStrip, StrictnessStrict, StrictnessPassthrough:
		default:
			add("strictness", "unknown strictness %q", *o.Strictness)
		}
	}
	if o.DateTimeStrategy != nil {
		switch *o.DateTimeStrategy {
		case DateTimeDate, DateTimeCoerce, DateTimeISO:
		default:
			add("dateTimeStrategy", "unknown date-time strategy %q", *o.DateTimeStrategy)
		}
	}
	if n := o.Naming; n != nil {
		if n.Casing != nil && *n.Casing != CasingPascal && *n.Casing != CasingCamel {
			add("naming.casing", "unknown casing %q", *n.Casing)
		}
		for field, v := range map[string]*string{
			"schemaSuffix": n.SchemaSuffix,
			"typeSuffix":   n.TypeSuffix,
			"prefix":       n.Prefix,
		} {
			if v != nil && !identSuffix.MatchString(*v) {
				add("naming."+field, "%q contains characters not allowed in identifiers", *v)
			}
		}
		if n.Directory != nil && strings.HasPrefix(*n.Directory, "/") {
			add("naming.directory", "directory %q must be relative", *n.Directory)
		}
	}
	for kind, patterns := range map[string][]string{"exclude": o.Exclude, "include": o.Include} {
		issues = append(issues, validatePatterns(path+"."+kind, patterns)...)
	}
	for name, fv := range o.Validations {
		if name == "" {
			add("validations", "field name cannot be empty")
			continue
		}
		if fv == nil {
			continue
		}
		for i, e := range fv.Expressions {
			if strings.TrimSpace(strings.TrimPrefix(e, ".")) == "" {
				add(fmt.Sprintf("validations.%s[%d]", name, i), "empty validation expression")
			}
		}
	}
	sortIssues(issues)
	return issues
}

func validatePatterns(path string, patterns []string) []ConfigIssue {
	var issues []ConfigIssue
	for i, p := range patterns {
		switch {
		case strings.TrimSpace(p) == "":
			issues = append(issues, ConfigIssue{Path: fmt.Sprintf("%s[%d]", path, i), Message: "empty field pattern"})
		case isPattern(p):
			if _, err := glob.Compile(p); err != nil {
				issues = append(issues, ConfigIssue{Path: fmt.Sprintf("%s[%d]", path, i), Message: fmt.Sprintf("invalid pattern %q: %v", p, err)})
			}
		}
	}
	return issues
}

// Validate checks the whole configuration and returns every issue found.
func (c *Config) Validate() []ConfigIssue {
	var issues []ConfigIssue
	if c.Mode != "" {
		if _, ok := AllPresets[c.Mode]; !ok {
			issues = append(issues, ConfigIssue{Path: "mode", Message: fmt.Sprintf("unknown mode %q", c.Mode)})
		}
	}
	switch c.Collision.Strategy {
	case "", SuffixIncrement, PrefixVariant, ThrowError:
	default:
		issues = append(issues, ConfigIssue{Path: "collision.strategy", Message: fmt.Sprintf("unknown strategy %q", c.Collision.Strategy)})
	}
	if c.Collision.MaxRetries < 0 {
		issues = append(issues, ConfigIssue{Path: "collision.maxRetries", Message: "retry bound cannot be negative"})
	}
	switch c.Naming.Casing {
	case "", CasingPascal, CasingCamel:
	default:
		issues = append(issues, ConfigIssue{Path: "naming.casing", Message: fmt.Sprintf("unknown casing %q", c.Naming.Casing)})
	}
	for _, op := range c.Operations {
		if !op.Valid() {
			issues = append(issues, ConfigIssue{Path: "operations", Message: fmt.Sprintf("unknown operation %q", op)})
		}
	}
	for v, o := range c.Variants {
		if !v.Valid() {
			issues = append(issues, ConfigIssue{Path: "variants", Message: fmt.Sprintf("unknown variant %d", v)})
			continue
		}
		issues = append(issues, validateOverride("variants."+v.String(), o)...)
	}
	for v, patterns := range c.GlobalExclusions {
		issues = append(issues, validatePatterns("globalExclusions."+v.String(), patterns)...)
	}
	for name, mc := range c.Models {
		if mc == nil {
			continue
		}
		path := "models." + name
		for _, op := range mc.Operations {
			if !op.Valid() {
				issues = append(issues, ConfigIssue{Path: path + ".operations", Message: fmt.Sprintf("unknown operation %q", op)})
			}
		}
		issues = append(issues, validatePatterns(path+".fields.exclude", mc.Fields.Exclude)...)
		issues = append(issues, validatePatterns(path+".fields.include", mc.Fields.Include)...)
		for v, o := range mc.Variants {
			issues = append(issues, validateOverride(path+".variants."+v.String(), o)...)
		}
	}
	sortIssues(issues)
	return issues
}

func sortIssues(issues []ConfigIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
}
