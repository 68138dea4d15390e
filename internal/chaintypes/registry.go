// Package chaintypes holds the static type dictionary for logion nodes and
// uses it to turn user-entered strings into call arguments.
package chaintypes

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed types.yaml
var defaultTypes []byte

var (
	ErrUnknownType = errors.New("unknown type")
	ErrUnknownCall = errors.New("unknown call")
	ErrTypeCycle   = errors.New("type alias cycle")
)

// Kind tells how a Definition is shaped.
type Kind int

const (
	KindAlias Kind = iota
	KindStruct
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	}
	return "alias"
}

// Field is a named struct member.
type Field struct {
	Name string
	Type string
}

// Variant is an enum case. Type is empty for unit variants.
type Variant struct {
	Name string
	Type string
}

// Definition is one entry of the dictionary.
type Definition struct {
	Name     string
	Kind     Kind
	Alias    string
	Fields   []Field
	Variants []Variant
}

// String renders the definition on one line.
func (d Definition) String() string {
	switch d.Kind {
	case KindStruct:
		parts := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			parts = append(parts, f.Name+": "+f.Type)
		}
		return d.Name + " { " + strings.Join(parts, ", ") + " }"
	case KindEnum:
		parts := make([]string, 0, len(d.Variants))
		for _, v := range d.Variants {
			if v.Type == "" {
				parts = append(parts, v.Name)
				continue
			}
			parts = append(parts, v.Name+"("+v.Type+")")
		}
		return d.Name + " = " + strings.Join(parts, " | ")
	}
	return d.Name + " = " + d.Alias
}

// Arg is one parameter of a call.
type Arg struct {
	Name string
	Type string
}

// CallDef describes the argument list of a pallet call, e.g.
// "LogionLoc.add_collection_item".
type CallDef struct {
	Name string
	Args []Arg
}

// Registry is a set of type and call definitions. It is safe for concurrent
// reads once loaded.
type Registry struct {
	defs  map[string]Definition
	calls map[string]CallDef
}

// Default returns the embedded dictionary. It panics if the embedded file is
// malformed, which only a broken build can cause.
func Default() *Registry {
	r, err := Parse(defaultTypes)
	if err != nil {
		panic(fmt.Sprintf("chaintypes: embedded types.yaml: %v", err))
	}
	return r
}

// Load reads a dictionary file and merges it over the embedded one. An empty
// path returns the embedded dictionary.
func Load(path string) (*Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read types file: %w", err)
	}
	extra, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.Merge(extra)
	return r, nil
}

// Parse decodes a YAML dictionary with a "types" and a "calls" section.
func Parse(b []byte) (*Registry, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(b, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	r := &Registry{defs: map[string]Definition{}, calls: map[string]CallDef{}}
	if doc == nil {
		return r, nil
	}
	root, ok := doc.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("top level must be a mapping, got %T", doc)
	}
	for _, section := range root {
		entries, ok := section.Value.(yaml.MapSlice)
		if !ok && section.Value != nil {
			return nil, fmt.Errorf("%v: must be a mapping", section.Key)
		}
		switch fmt.Sprint(section.Key) {
		case "types":
			for _, item := range entries {
				name := fmt.Sprint(item.Key)
				def, err := definition(name, item.Value)
				if err != nil {
					return nil, err
				}
				r.defs[name] = def
			}
		case "calls":
			for _, item := range entries {
				c, err := callDef(fmt.Sprint(item.Key), item.Value)
				if err != nil {
					return nil, err
				}
				r.calls[c.Name] = c
			}
		}
	}
	return r, nil
}

func callDef(name string, v any) (CallDef, error) {
	list, ok := v.([]any)
	if !ok && v != nil {
		return CallDef{}, fmt.Errorf("call %s: arguments must be a list", name)
	}
	c := CallDef{Name: name, Args: make([]Arg, 0, len(list))}
	for i, a := range list {
		m, ok := a.(yaml.MapSlice)
		if !ok {
			return CallDef{}, fmt.Errorf("call %s: argument %d must be a mapping", name, i)
		}
		var arg Arg
		for _, kv := range m {
			switch fmt.Sprint(kv.Key) {
			case "name":
				arg.Name = fmt.Sprint(kv.Value)
			case "type":
				arg.Type = strings.TrimSpace(fmt.Sprint(kv.Value))
			}
		}
		if arg.Type == "" {
			return CallDef{}, fmt.Errorf("call %s: argument %d has no type", name, i)
		}
		c.Args = append(c.Args, arg)
	}
	return c, nil
}

func definition(name string, v any) (Definition, error) {
	switch x := v.(type) {
	case string:
		return Definition{Name: name, Kind: KindAlias, Alias: strings.TrimSpace(x)}, nil
	case yaml.MapSlice:
		if len(x) == 1 && fmt.Sprint(x[0].Key) == "_enum" {
			variants, err := enumVariants(name, x[0].Value)
			if err != nil {
				return Definition{}, err
			}
			return Definition{Name: name, Kind: KindEnum, Variants: variants}, nil
		}
		fields := make([]Field, 0, len(x))
		for _, item := range x {
			t, ok := item.Value.(string)
			if !ok {
				return Definition{}, fmt.Errorf("%s.%v: field type must be a string", name, item.Key)
			}
			fields = append(fields, Field{Name: fmt.Sprint(item.Key), Type: strings.TrimSpace(t)})
		}
		return Definition{Name: name, Kind: KindStruct, Fields: fields}, nil
	}
	return Definition{}, fmt.Errorf("%s: unsupported definition %T", name, v)
}

func enumVariants(name string, v any) ([]Variant, error) {
	switch x := v.(type) {
	case []any:
		out := make([]Variant, 0, len(x))
		for _, n := range x {
			out = append(out, Variant{Name: fmt.Sprint(n)})
		}
		return out, nil
	case yaml.MapSlice:
		out := make([]Variant, 0, len(x))
		for _, item := range x {
			vr := Variant{Name: fmt.Sprint(item.Key)}
			if item.Value != nil {
				vr.Type = strings.TrimSpace(fmt.Sprint(item.Value))
			}
			out = append(out, vr)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: _enum must be a list or a map", name)
}

// Merge copies every definition and call of other into r, replacing
// existing entries with the same name.
func (r *Registry) Merge(other *Registry) {
	for k, v := range other.defs {
		r.defs[k] = v
	}
	for k, v := range other.calls {
		r.calls[k] = v
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.defs[strings.TrimSpace(name)]
	return d, ok
}

// Names lists the registered type names in alphabetical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Call returns the argument list of a call.
func (r *Registry) Call(name string) (CallDef, bool) {
	c, ok := r.calls[name]
	return c, ok
}

// Resolve follows aliases from name until it reaches a builtin primitive, a
// generic wrapper or a struct/enum definition, and returns that final name.
func (r *Registry) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	seen := map[string]bool{}
	for {
		if isBuiltin(name) {
			return name, nil
		}
		if _, _, ok := splitGeneric(name); ok {
			return name, nil
		}
		d, ok := r.defs[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		if d.Kind != KindAlias {
			return name, nil
		}
		if seen[name] {
			return "", fmt.Errorf("%w: %s", ErrTypeCycle, name)
		}
		seen[name] = true
		name = d.Alias
	}
}

// splitGeneric splits "Outer<Inner>" into its parts.
func splitGeneric(name string) (outer, inner string, ok bool) {
	open := strings.Index(name, "<")
	if open <= 0 || !strings.HasSuffix(name, ">") {
		return "", "", false
	}
	return name[:open], strings.TrimSpace(name[open+1 : len(name)-1]), true
}
