package gen

import (
	"strconv"
	"strings"
)

// Expr is a validator expression: a root identifier followed by a chain of
// property accesses and method calls, such as z.string().min(3).optional().
// Expressions are built as values and serialized once by String.
type Expr struct {
	Root  string
	Calls []Call
}

// Call is one link of an expression chain. A call with Prop set renders as a
// property access (".coerce") instead of a method call.
type Call struct {
	Name string
	Args []Arg
	Prop bool
}

// Arg is an argument of a call.
type Arg interface {
	write(b *strings.Builder, indent int)
}

type (
	// Lit is a literal rendered verbatim: numbers, booleans, regular expressions.
	Lit string
	// Str is a string literal.
	Str string
	// Ident is a bare identifier.
	Ident string
	// List is an array literal.
	List []Arg
	// Lazy is a deferred reference, rendered as an arrow function.
	Lazy struct{ Body *Expr }
	// Object is an object literal of schema properties, rendered one
	// property per line.
	Object []Property
)

// Property is one key of an object literal.
type Property struct {
	Key     string
	Value   *Expr
	Comment string
	// Type is the TypeScript type of a value holding lazy references and
	// Optional marks its key optional in that type.
	Type     string
	Optional bool
}

// Z starts an expression on the zod namespace.
func Z(name string, args ...Arg) *Expr {
	return &Expr{Root: "z", Calls: []Call{{Name: name, Args: args}}}
}

// ZCoerce starts a coercing expression, z.coerce.<name>().
func ZCoerce(name string) *Expr {
	return &Expr{Root: "z", Calls: []Call{{Name: "coerce", Prop: true}, {Name: name}}}
}

// Ref references an identifier.
func Ref(name string) *Expr { return &Expr{Root: name} }

// Method appends a method call and returns the new expression. The receiver
// is not modified.
func (e *Expr) Method(name string, args ...Arg) *Expr {
	n := e.clone()
	n.Calls = append(n.Calls, Call{Name: name, Args: args})
	return n
}

// Chain appends calls and returns the new expression.
func (e *Expr) Chain(calls ...Call) *Expr {
	n := e.clone()
	n.Calls = append(n.Calls, calls...)
	return n
}

// Count returns the number of calls with the given name in the chain,
// including nested arguments.
func (e *Expr) Count(name string) int {
	var n int
	for _, c := range e.Calls {
		if c.Name == name && !c.Prop {
			n++
		}
		for _, a := range c.Args {
			n += countArg(a, name)
		}
	}
	return n
}

func countArg(a Arg, name string) int {
	switch a := a.(type) {
	case *Expr:
		return a.Count(name)
	case Lazy:
		return a.Body.Count(name)
	case List:
		var n int
		for _, e := range a {
			n += countArg(e, name)
		}
		return n
	case Object:
		var n int
		for _, p := range a {
			n += p.Value.Count(name)
		}
		return n
	}
	return 0
}

// Has reports if the top-level chain calls the method.
func (e *Expr) Has(name string) bool {
	for _, c := range e.Calls {
		if c.Name == name && !c.Prop {
			return true
		}
	}
	return false
}

// Refs returns the identifiers referenced by the expression: its root when
// it is not the zod namespace, and every identifier in nested arguments.
func (e *Expr) Refs() []string {
	var refs []string
	var walk func(Arg)
	walk = func(a Arg) {
		switch a := a.(type) {
		case *Expr:
			if a.Root != "z" && isIdent(a.Root) {
				refs = append(refs, a.Root)
			}
			for _, c := range a.Calls {
				for _, arg := range c.Args {
					walk(arg)
				}
			}
		case Lazy:
			walk(a.Body)
		case List:
			for _, e := range a {
				walk(e)
			}
		case Object:
			for _, p := range a {
				walk(p.Value)
			}
		}
	}
	walk(e)
	return refs
}

func (e *Expr) clone() *Expr {
	n := &Expr{Root: e.Root, Calls: make([]Call, len(e.Calls), len(e.Calls)+1)}
	copy(n.Calls, e.Calls)
	return n
}

// String serializes the expression.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b, 0)
	return b.String()
}

func (e *Expr) write(b *strings.Builder, indent int) {
	b.WriteString(e.Root)
	for _, c := range e.Calls {
		b.WriteByte('.')
		b.WriteString(c.Name)
		if c.Prop {
			continue
		}
		b.WriteByte('(')
		for i, a := range c.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b, indent)
		}
		b.WriteByte(')')
	}
}

func (l Lit) write(b *strings.Builder, _ int) { b.WriteString(string(l)) }

func (s Str) write(b *strings.Builder, _ int) { b.WriteString(quote(string(s))) }

func (i Ident) write(b *strings.Builder, _ int) { b.WriteString(string(i)) }

func (l List) write(b *strings.Builder, indent int) {
	b.WriteByte('[')
	for i, a := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b, indent)
	}
	b.WriteByte(']')
}

func (l Lazy) write(b *strings.Builder, indent int) {
	b.WriteString("() => ")
	l.Body.write(b, indent)
}

func (o Object) write(b *strings.Builder, indent int) {
	if len(o) == 0 {
		b.WriteString("{}")
		return
	}
	pad := strings.Repeat("  ", indent+1)
	b.WriteString("{\n")
	for _, p := range o {
		if p.Comment != "" {
			for _, line := range strings.Split(p.Comment, "\n") {
				b.WriteString(pad)
				b.WriteString("// ")
				b.WriteString(strings.TrimSpace(line))
				b.WriteByte('\n')
			}
		}
		b.WriteString(pad)
		b.WriteString(propertyKey(p.Key))
		b.WriteString(": ")
		p.Value.write(b, indent+1)
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteByte('}')
}

// Split separates the properties holding lazy references from the others.
func (o Object) Split() (plain, lazy Object) {
	for _, p := range o {
		if p.Type != "" {
			lazy = append(lazy, p)
		} else {
			plain = append(plain, p)
		}
	}
	return plain, lazy
}

func propertyKey(k string) string {
	if isIdent(k) {
		return k
	}
	return quote(k)
}

// Num returns a numeric literal.
func Num(n int) Lit { return Lit(strconv.Itoa(n)) }
