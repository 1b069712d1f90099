package compiler

import (
	"fmt"
	"sort"
	"strings"

	"vslc/pkg/bytecode"
)

// Security levels run from MinSecurity (public) to MaxSecurity (most secret).
const (
	MinSecurity int64 = 0
	MaxSecurity int64 = 100
)

// Variable is a local or a parameter, live while its declaring block is open.
type Variable struct {
	Name     string
	Slot     int64 // local slot, or argument index when IsArg is set
	Type     bytecode.ValueType
	Security int64
	IsArg    bool
	Depth    int
	Function string
}

// Function is created by the sizing prepass and annotated by the main pass.
type Function struct {
	Name          string
	Address       int64 // predicted by the prepass, used by every call
	Start         int64 // where the main pass actually began the body; -1 until then
	ReturnType    bytecode.ValueType
	Security      int64
	ArgTypes      []bytecode.ValueType
	ArgSecurities []int64
	TimesParsed   int
	Line          int
}

func (f *Function) NumArgs() int64 {
	return int64(len(f.ArgTypes))
}

// SymbolTable holds the function records for the whole compilation and the
// variable records of the function being compiled.
//
// Variables are keyed by name only: a name live in any enclosing block
// cannot be declared again, so there is no shadowing.
type SymbolTable struct {
	vars  map[string]Variable
	funcs map[string]*Function
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		vars:  make(map[string]Variable),
		funcs: make(map[string]*Function),
	}
}

// DefineFunction records f unless a function with the same name exists; the
// first definition wins.
func (s *SymbolTable) DefineFunction(f *Function) bool {
	if _, ok := s.funcs[f.Name]; ok {
		return false
	}
	s.funcs[f.Name] = f
	return true
}

// Function returns the record for name. The pointer may be annotated.
func (s *SymbolTable) Function(name string) (*Function, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// Functions returns a snapshot of every function record.
func (s *SymbolTable) Functions() map[string]Function {
	out := make(map[string]Function, len(s.funcs))
	for name, f := range s.funcs {
		out[name] = *f
	}
	return out
}

// Declare adds v. It returns false, leaving the table unchanged, if a
// variable with the same name is already live.
func (s *SymbolTable) Declare(v Variable) bool {
	if _, ok := s.vars[v.Name]; ok {
		return false
	}
	s.vars[v.Name] = v
	return true
}

// Lookup returns the live variable called name.
func (s *SymbolTable) Lookup(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Purge removes every variable declared by fn at depth and reports how many
// were removed.
func (s *SymbolTable) Purge(fn string, depth int) int {
	n := 0
	for name, v := range s.vars {
		if v.Function == fn && v.Depth == depth {
			delete(s.vars, name)
			n++
		}
	}
	return n
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.funcs) > 0 {
		sb.WriteString("Functions:\n")
		names := make([]string, 0, len(s.funcs))
		for name := range s.funcs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			f := s.funcs[name]
			args := make([]string, len(f.ArgTypes))
			for i, t := range f.ArgTypes {
				args[i] = fmt.Sprintf("%s:%d", t, f.ArgSecurities[i])
			}
			fmt.Fprintf(&sb, "  %-20s  Address: %d (Returns: %s:%d, Args: [%s])\n",
				name, f.Address, f.ReturnType, f.Security, strings.Join(args, ", "))
		}
	} else {
		sb.WriteString("Functions: (empty)\n")
	}

	if len(s.vars) > 0 {
		sb.WriteString("Variables (live):\n")
		names := make([]string, 0, len(s.vars))
		for name := range s.vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := s.vars[name]
			kind := "local"
			if v.IsArg {
				kind = "arg"
			}
			fmt.Fprintf(&sb, "  %-20s  %s %d (Type: %s:%d, Depth: %d, Function: %s)\n",
				name, kind, v.Slot, v.Type, v.Security, v.Depth, v.Function)
		}
	}
	return sb.String()
}
