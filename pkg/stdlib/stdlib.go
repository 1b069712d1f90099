// Package stdlib holds the signature table of the VSL built-in functions.
//
// The table is configuration, not code: it is read from YAML so a VM with a
// different set of built-ins can be targeted with -stdlib.
package stdlib

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"vslc/pkg/bytecode"
)

//go:embed builtins.yaml
var defaultTable []byte

// Builtin is the signature of one built-in function.
type Builtin struct {
	Name    string
	ID      int64
	Params  []bytecode.ValueType
	Returns bytecode.ValueType
	// Variadic built-ins (print) accept a comma list of printable values
	// and are invoked once per value.
	Variadic bool
	// TypeOperand is set when use is followed by a value-type word.
	TypeOperand bool
}

// Table maps built-in names to signatures.
type Table struct {
	byName map[string]Builtin
	byID   map[int64]Builtin
}

type fileFormat struct {
	Builtins []struct {
		Name        string   `yaml:"name"`
		ID          *int64   `yaml:"id"`
		Params      []string `yaml:"params"`
		Returns     string   `yaml:"returns"`
		Variadic    bool     `yaml:"variadic"`
		TypeOperand bool     `yaml:"type_operand"`
	} `yaml:"builtins"`
}

// Default returns the table embedded in the binary.
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("stdlib: embedded table: %v", err))
	}
	return t
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load parses a table from YAML.
func Load(r io.Reader) (*Table, error) {
	var ff fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ff); err != nil {
		return nil, fmt.Errorf("parse built-in table: %w", err)
	}

	t := &Table{
		byName: make(map[string]Builtin, len(ff.Builtins)),
		byID:   make(map[int64]Builtin, len(ff.Builtins)),
	}
	for i, raw := range ff.Builtins {
		if raw.Name == "" {
			return nil, fmt.Errorf("built-in #%d has no name", i)
		}
		if raw.ID == nil {
			return nil, fmt.Errorf("built-in %q has no id", raw.Name)
		}
		if _, dup := t.byName[raw.Name]; dup {
			return nil, fmt.Errorf("duplicate built-in %q", raw.Name)
		}
		if other, dup := t.byID[*raw.ID]; dup {
			return nil, fmt.Errorf("built-ins %q and %q share id %d", other.Name, raw.Name, *raw.ID)
		}

		if raw.Variadic && len(raw.Params) > 0 {
			return nil, fmt.Errorf("built-in %q: variadic built-ins take no declared params", raw.Name)
		}

		b := Builtin{
			Name:        raw.Name,
			ID:          *raw.ID,
			Variadic:    raw.Variadic,
			TypeOperand: raw.TypeOperand,
		}
		ret := raw.Returns
		if ret == "" {
			ret = "void"
		}
		var err error
		if b.Returns, err = bytecode.ParseValueType(ret); err != nil {
			return nil, fmt.Errorf("built-in %q: %w", raw.Name, err)
		}
		for _, p := range raw.Params {
			pt, err := bytecode.ParseValueType(p)
			if err != nil {
				return nil, fmt.Errorf("built-in %q: %w", raw.Name, err)
			}
			if pt == bytecode.TypeVoid || pt == bytecode.TypeAny {
				return nil, fmt.Errorf("built-in %q: parameter cannot be %s", raw.Name, pt)
			}
			b.Params = append(b.Params, pt)
		}

		t.byName[b.Name] = b
		t.byID[b.ID] = b
	}
	return t, nil
}

// Lookup returns the built-in called name.
func (t *Table) Lookup(name string) (Builtin, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// ByID returns the built-in with the given use id.
func (t *Table) ByID(id int64) (Builtin, bool) {
	b, ok := t.byID[id]
	return b, ok
}

// Typed reports whether use id is followed by a value-type word. It has the
// shape of bytecode.TypedFunc.
func (t *Table) Typed(id int64) bool {
	return t.byID[id].TypeOperand
}

// Names returns all built-in names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
