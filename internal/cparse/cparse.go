// Package cparse turns C source files into flat symbol event streams
// using the tree-sitter C grammar.
package cparse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Kind classifies a symbol event produced by the parser.
type Kind int

const (
	// KindPrototype is a forward declaration (a function_declarator outside
	// a function_definition).
	KindPrototype Kind = iota

	// KindDefinition is a function definition with a body.
	KindDefinition

	// KindCall is a direct call through an identifier.
	KindCall

	// KindReference is an identifier naming a function in value position
	// (argument lists, initializers, assignments). References are how
	// address-taken callbacks stay alive.
	KindReference

	// KindMacro is a #define, object-like or function-like. Macro
	// invocations parse as call_expressions, so the analyzer needs the
	// define table to avoid reporting them as undeclared calls.
	KindMacro
)

// Site is a position in a scanned file. Line and Column are 1-based;
// tree-sitter points are converted at this boundary.
type Site struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Symbol is a single event: a name observed at a site in a given role.
type Symbol struct {
	Name string
	Kind Kind
	Site Site

	// Static records a `static` storage class on prototypes and definitions.
	Static bool

	// Caller is the enclosing function definition for calls and references.
	// Empty for file-scope initializers.
	Caller string
}

// Comment is a source comment with its position, kept for the
// suppression checker.
type Comment struct {
	Site Site
	Text string
}

// File is the parse result for one source file.
//
// Symbols are keyed by bare name downstream: C external linkage is a flat
// namespace, so a single table across all scanned files is the correct
// model for whole-program sweeps. Two statics with the same name in
// different files share a record; their sites stay attributable.
type File struct {
	Path     string
	Symbols  []Symbol
	Comments []Comment
}

// Parser wraps a tree-sitter parser configured for C.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	ts *sitter.Parser
}

// NewParser creates a parser with the C grammar loaded.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Parser{ts: p}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// Parse parses a single C source or header file into symbol events.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*File, error) {
	tree, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := &walker{file: &File{Path: path}, src: src}
	w.walk(tree.RootNode(), "", false)
	return w.file, nil
}

type walker struct {
	file *File
	src  []byte

	// params holds the parameter names of the enclosing function
	// definition. Calls and references through parameters (function
	// pointer callbacks) are local dispatch, not uses of a global symbol.
	params map[string]struct{}
}

func (w *walker) walk(n *sitter.Node, caller string, declStatic bool) {
	switch n.Type() {
	case "function_definition":
		decl := n.ChildByFieldName("declarator")
		name := declaratorName(decl, w.src)
		if name != "" {
			w.emit(Symbol{
				Name:   name,
				Kind:   KindDefinition,
				Site:   w.site(decl),
				Static: hasStaticSpecifier(n, w.src),
			})
			caller = name
		}
		// The declarator subtree is skipped so its function_declarator is
		// not double-counted as a prototype.
		prevParams := w.params
		w.params = parameterNames(decl, w.src)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if decl != nil && child.StartByte() == decl.StartByte() && child.Type() == decl.Type() {
				continue
			}
			w.walk(child, caller, false)
		}
		w.params = prevParams
		return

	case "declaration":
		declStatic = hasStaticSpecifier(n, w.src)

	case "function_declarator":
		if name := declaratorName(n, w.src); name != "" {
			w.emit(Symbol{
				Name:   name,
				Kind:   KindPrototype,
				Site:   w.site(n),
				Static: declStatic,
			})
		}

	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn != nil && fn.Type() == "identifier" {
			if name := fn.Content(w.src); !w.isParam(name) {
				w.emit(Symbol{
					Name:   name,
					Kind:   KindCall,
					Site:   w.site(fn),
					Caller: caller,
				})
			}
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			w.references(args, caller)
		}

	case "init_declarator":
		if value := n.ChildByFieldName("value"); value != nil {
			w.references(value, caller)
		}

	case "assignment_expression":
		if right := n.ChildByFieldName("right"); right != nil {
			w.references(right, caller)
		}

	case "return_statement":
		// Returning a callback is an address-taken use: tick_fn pick(void)
		// { return on_tick; }
		for i := 0; i < int(n.NamedChildCount()); i++ {
			w.references(n.NamedChild(i), caller)
		}

	case "preproc_def", "preproc_function_def":
		if name := n.ChildByFieldName("name"); name != nil {
			w.emit(Symbol{
				Name: name.Content(w.src),
				Kind: KindMacro,
				Site: w.site(name),
			})
		}

	case "comment":
		w.file.Comments = append(w.file.Comments, Comment{
			Site: w.site(n),
			Text: n.Content(w.src),
		})
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i), caller, declStatic)
	}
}

// references records identifiers naming functions in value position under
// n, descending through the expression shapes that can carry a function
// value. Nested expressions it does not recognize (including nested calls)
// are handled by the normal walk, which visits n's subtree after this.
func (w *walker) references(n *sitter.Node, caller string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		w.reference(n, caller)
	case "pointer_expression":
		// Explicit address-of: fp = &handler;
		w.references(n.ChildByFieldName("argument"), caller)
	case "cast_expression":
		// fp = (handler_t)handler;
		w.references(n.ChildByFieldName("value"), caller)
	case "conditional_expression":
		w.references(n.ChildByFieldName("consequence"), caller)
		w.references(n.ChildByFieldName("alternative"), caller)
	case "initializer_list", "argument_list":
		// Function pointer tables: static handler_t table[] = {a, b};
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "identifier", "pointer_expression", "cast_expression",
				"conditional_expression", "initializer_list":
				w.references(child, caller)
			}
		}
	}
}

func (w *walker) reference(n *sitter.Node, caller string) {
	name := n.Content(w.src)
	if w.isParam(name) {
		return
	}
	w.emit(Symbol{
		Name:   name,
		Kind:   KindReference,
		Site:   w.site(n),
		Caller: caller,
	})
}

func (w *walker) isParam(name string) bool {
	_, ok := w.params[name]
	return ok
}

func (w *walker) emit(s Symbol) {
	s.Site.File = w.file.Path
	w.file.Symbols = append(w.file.Symbols, s)
}

func (w *walker) site(n *sitter.Node) Site {
	if n == nil {
		return Site{File: w.file.Path}
	}
	pt := n.StartPoint()
	return Site{
		File:   w.file.Path,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
	}
}

// declaratorName resolves a declarator chain to the declared identifier.
// Pointer declarators are unwrapped (`int *f(void)`); parenthesized
// declarators are rejected because they declare function pointer
// variables (`void (*f)(int)`), not functions.
func declaratorName(n *sitter.Node, src []byte) string {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return n.Content(src)
		case "function_declarator", "pointer_declarator":
			n = n.ChildByFieldName("declarator")
		default:
			return ""
		}
	}
	return ""
}

// parameterNames collects the declared parameter names of a function
// declarator, unwrapping pointer, array, and parenthesized declarators so
// function pointer parameters like `void (*f)(int)` resolve to f.
func parameterNames(decl *sitter.Node, src []byte) map[string]struct{} {
	params := make(map[string]struct{})
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "parameter_declaration" {
			inner := n.ChildByFieldName("declarator")
			for inner != nil {
				switch inner.Type() {
				case "identifier":
					params[inner.Content(src)] = struct{}{}
					inner = nil
				case "function_declarator", "pointer_declarator", "array_declarator":
					inner = inner.ChildByFieldName("declarator")
				case "parenthesized_declarator":
					next := inner.NamedChild(0)
					inner = next
				default:
					inner = nil
				}
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collect(n.NamedChild(i))
		}
	}
	collect(decl)
	return params
}

// hasStaticSpecifier reports whether a declaration or definition node
// carries a `static` storage class.
func hasStaticSpecifier(n *sitter.Node, src []byte) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "storage_class_specifier" && child.Content(src) == "static" {
			return true
		}
	}
	return false
}
