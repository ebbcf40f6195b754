package domain

import (
	"log/slog"
	"sort"
	"strings"

	"fuzzplan.dev/pkg/fuzzplan/internal/adapter"
	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

const (
	optionPath = "std::option::Option"
	resultPath = "std::result::Result"
)

// PreludeKind tells the two recognized container shapes apart.
type PreludeKind int

const (
	PreludeOption PreludeKind = iota + 1
	PreludeResult
)

// PreludeType is a recognized Option<T> or Result<T, E>.
type PreludeType struct {
	Kind PreludeKind
	// Ok is the Option payload or the Result success payload.
	Ok m.Type
	// Err is only set for Result.
	Err m.Type
}

// PreludeResolver recognizes the optional-value and fallible-value containers
// by their fully qualified names.
type PreludeResolver struct {
	docs adapter.DocIndex
}

// NewPreludeResolver constructs a resolver that resolves names through docs.
func NewPreludeResolver(docs adapter.DocIndex) *PreludeResolver {
	return &PreludeResolver{docs: docs}
}

// Resolve returns the prelude shape of t, or false if t is not one. A
// recognized name with the wrong argument arity is a contract violation.
func (r *PreludeResolver) Resolve(t m.Type) (PreludeType, bool, error) {
	pt, ok := t.(m.PathType)
	if !ok {
		return PreludeType{}, false, nil
	}

	name := r.fullName(pt.Path)

	switch name {
	case optionPath:
		args, err := typeArgsExactly(pt.Path, 1)
		if err != nil {
			return PreludeType{}, false, err
		}

		return PreludeType{Kind: PreludeOption, Ok: args[0]}, true, nil
	case resultPath:
		args, err := typeArgsExactly(pt.Path, 2)
		if err != nil {
			return PreludeType{}, false, err
		}

		return PreludeType{Kind: PreludeResult, Ok: args[0], Err: args[1]}, true, nil
	default:
		return PreludeType{}, false, nil
	}
}

func (r *PreludeResolver) fullName(p m.Path) string {
	if r.docs != nil && p.ID != "" {
		if name := r.docs.TypeName(p.ID); name != "" {
			return name
		}
	}

	return p.Name()
}

func typeArgsExactly(p m.Path, n int) ([]m.Type, error) {
	args := p.LastArgs()
	if args.Parenthesized {
		return nil, contractViolation("%s: parenthesized arguments on a prelude container", p.String())
	}

	if len(args.Args) != n {
		return nil, contractViolation("%s: expected %d generic arguments, got %d", p.String(), n, len(args.Args))
	}

	types := make([]m.Type, n)

	for i, arg := range args.Args {
		if arg.Type == nil {
			return nil, contractViolation("%s: generic argument %d is not a type", p.String(), i)
		}

		types[i] = arg.Type
	}

	return types, nil
}

// FinalType is the payload a value of this shape ultimately yields. The error
// payload of a Result is never a final type.
func (p PreludeType) FinalType() m.Type {
	return p.Ok
}

// UnwrapCallType wraps inner with the unwrap that extracts the payload.
func (p PreludeType) UnwrapCallType(inner m.CallType) m.CallType {
	if p.Kind == PreludeResult {
		return m.UnwrapResultCall{Inner: inner}
	}

	return m.UnwrapOptionCall{Inner: inner}
}

// WrapCallType wraps inner with the constructor that builds the container.
func (p PreludeType) WrapCallType(inner m.CallType) m.CallType {
	if p.Kind == PreludeResult {
		return m.ToResultCall{Inner: inner}
	}

	return m.ToOptionCall{Inner: inner}
}

// PreludeHelper is a runtime routine a harness must define when a call type
// unwraps a prelude container.
type PreludeHelper string

const (
	OptionHelper PreludeHelper = "_unwrap_option"
	ResultHelper PreludeHelper = "_unwrap_result"
)

const unwrapOptionSource = `fn _unwrap_option<T>(_opt: Option<T>) -> T {
    match _opt {
        Some(_t) => _t,
        None => {
            use std::process;
            process::exit(0);
        }
    }
}
`

const unwrapResultSource = `fn _unwrap_result<T, E>(_res: Result<T, E>) -> T {
    match _res {
        Ok(_t) => _t,
        Err(_) => {
            use std::process;
            process::exit(0);
        },
    }
}
`

// Source returns the fixed definition of the helper.
func (h PreludeHelper) Source() string {
	switch h {
	case OptionHelper:
		return unwrapOptionSource
	case ResultHelper:
		return unwrapResultSource
	default:
		return ""
	}
}

// HelperRegistry collects the helpers a harness needs, each at most once.
type HelperRegistry struct {
	seen map[PreludeHelper]struct{}
}

// NewHelperRegistry returns an empty registry.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{seen: make(map[PreludeHelper]struct{})}
}

// Collect records every helper the call type uses, at any depth.
func (hr *HelperRegistry) Collect(c m.CallType) {
	for c != nil {
		switch c.(type) {
		case m.UnwrapOptionCall:
			hr.seen[OptionHelper] = struct{}{}
		case m.UnwrapResultCall:
			hr.seen[ResultHelper] = struct{}{}
		}

		c = m.InnerCall(c)
	}
}

// Add records a known helper by name. Unknown names are ignored.
func (hr *HelperRegistry) Add(h PreludeHelper) {
	if h.Source() == "" {
		slog.Debug("ignoring unknown helper", "name", string(h))
		return
	}

	hr.seen[h] = struct{}{}
}

// Helpers returns the collected helpers in a stable order.
func (hr *HelperRegistry) Helpers() []PreludeHelper {
	helpers := make([]PreludeHelper, 0, len(hr.seen))
	for h := range hr.seen {
		helpers = append(helpers, h)
	}

	sort.Slice(helpers, func(i, j int) bool { return helpers[i] < helpers[j] })

	return helpers
}

// Source concatenates the definitions of the collected helpers.
func (hr *HelperRegistry) Source() string {
	var b strings.Builder

	for _, h := range hr.Helpers() {
		b.WriteString(h.Source())
	}

	slog.Debug("emitted prelude helpers", "count", len(hr.seen))

	return b.String()
}
