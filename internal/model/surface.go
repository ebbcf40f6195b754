package model

// ItemKind is the documentation-index kind of a struct member.
type ItemKind string

const (
	ItemStructField ItemKind = "struct_field"
	// ItemStripped wraps a field hidden from docs; it is unwrapped one level.
	ItemStripped ItemKind = "stripped"
)

// StructDef is a struct as reported by the documentation index.
type StructDef struct {
	ID     string
	Name   string
	Ctor   CtorKind
	Fields []Field
}

// Field is a struct member item.
type Field struct {
	Name string
	Kind ItemKind
	Type Type
	// Inner is set for stripped items.
	Inner *Field
}

// Param is a function parameter.
type Param struct {
	Name string
	Type Type
}

// Function is one public API function or method.
type Function struct {
	Path     string
	Params   []Param
	Output   Type
	Generics Generics
	// ImplGenerics are the enclosing impl block's generics, nil for free
	// functions.
	ImplGenerics *Generics
	// SelfType is the concrete receiver type for methods.
	SelfType Type
}

// Surface is the analyzed public API of one crate.
type Surface struct {
	Crate     string
	Structs   []StructDef
	Names     map[string]string
	Functions []Function
	// Candidates is the type pool tried when solving generic functions.
	Candidates []Type
}

// ParamReport is the flattened, storable plan for one parameter.
type ParamReport struct {
	Name            string
	Type            string
	Fuzzable        bool
	FuzzableType    string
	CallType        string
	CallExpr        string
	FixedLength     bool
	MinLength       int
	FixedPartLength int
	DynamicCount    int
	MultiDynamic    bool
}

// FunctionReport is the storable analysis result of one function.
type FunctionReport struct {
	RunID    string
	Function string
	Params   []ParamReport
	// Generic is set when the function has bounds to solve.
	Generic bool
	// Solution is empty for non-generic functions.
	Solution string
	Impls    []string
	// OutputCall unwraps the return value to its final payload.
	OutputCall string
	Helpers    []string
	Fuzzable   bool
	Solvable   bool
	Error      string
}

// FilePath is a filesystem path to a surface, impl table or report file.
type FilePath string
