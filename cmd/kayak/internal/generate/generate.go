// Package generate expands //kayak:rsx markup directives into Go functions
// that return core.Children producers.
package generate

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-drift/kayak/cmd/kayak/internal/config"
	"github.com/go-drift/kayak/pkg/rsx"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/imports"
)

// Header is the first line of every generated file.
const Header = "// Code generated by kayak generate. DO NOT EDIT."

// Options configures a Generator.
type Options struct {
	// Output is the generated file name within each package directory.
	Output string
	// CoreImport is the import path of the core package.
	CoreImport string
	// Tags are build tags used when loading packages.
	Tags []string
}

// OptionsFrom converts resolved configuration to generator options.
func OptionsFrom(cfg *config.Resolved) Options {
	return Options{Output: cfg.Output, CoreImport: cfg.CoreImport, Tags: cfg.Tags}
}

func (o Options) withDefaults() Options {
	if o.Output == "" {
		o.Output = config.DefaultOutput
	}
	if o.CoreImport == "" {
		o.CoreImport = config.DefaultCoreImport
	}
	return o
}

// Generator holds the state of the generator.
// It is primarily used to buffer the output.
type Generator struct {
	Opts Options
	Buf  bytes.Buffer // The accumulated output.

	core  string // qualifier of the core package in generated code
	scope *rsx.Scope
}

// NewGenerator returns a generator with the given options.
func NewGenerator(opts Options) *Generator {
	return &Generator{Opts: opts.withDefaults()}
}

// Printf prints the formatted string to the
// accumulated output in [Generator.Buf]
func (g *Generator) Printf(format string, args ...any) {
	fmt.Fprintf(&g.Buf, format, args...)
}

// Result is the generated source for one package.
type Result struct {
	// Path is where the file is written.
	Path string
	// Src is the formatted file, or nil when the package has no directives.
	Src []byte
	// Funcs lists the generated function names in source order.
	Funcs []string
}

// PackageModes returns the package load modes needed for generation.
func PackageModes() packages.LoadMode {
	return packages.NeedName | packages.NeedFiles | packages.NeedSyntax
}

// Load parses the packages matching patterns relative to dir.
func Load(dir string, tags []string, patterns ...string) ([]*packages.Package, error) {
	pcfg := &packages.Config{
		Mode:  PackageModes(),
		Dir:   dir,
		Tests: false,
	}
	if len(tags) > 0 {
		pcfg.BuildFlags = []string{"-tags=" + strings.Join(tags, ",")}
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("kayak generate: error loading packages: %w", err)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("kayak generate: package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
	}
	return pkgs, nil
}

// Package generates the output file for a loaded package.
func (g *Generator) Package(pkg *packages.Package) (*Result, error) {
	if len(pkg.GoFiles) == 0 {
		return &Result{}, nil
	}
	dir := filepath.Dir(pkg.GoFiles[0])
	return g.Files(pkg.Fset, pkg.Syntax, pkg.Name, filepath.Join(dir, g.Opts.Output))
}

// Files generates the output file for a package made of files. The previous
// output file, if it is among files, is ignored.
func (g *Generator) Files(fset *token.FileSet, files []*ast.File, pkgName, outPath string) (*Result, error) {
	res := &Result{Path: outPath}

	var (
		sources []*ast.File
		dirs    []*Directive
		errs    ErrorList
	)
	for _, f := range files {
		if filepath.Base(fset.Position(f.Package).Filename) == filepath.Base(outPath) {
			continue
		}
		sources = append(sources, f)
		found, err := FindDirectives(fset, f)
		if list, ok := err.(ErrorList); ok {
			errs = append(errs, list...)
		}
		dirs = append(dirs, found...)
	}
	if len(dirs) == 0 && len(errs) == 0 {
		return res, nil
	}

	g.scope = rsx.NewScope(sources...)
	seen := map[string]token.Position{}
	var valid []*Directive
	for _, d := range dirs {
		if prev, ok := seen[d.Name]; ok {
			errs = append(errs, &rsx.Error{Type: DirectiveError, Pos: d.Pos,
				Message: fmt.Sprintf("function %s already generated at %s", d.Name, prev)})
			continue
		}
		if g.scope.Globals[d.Name] {
			errs = append(errs, &rsx.Error{Type: DirectiveError, Pos: d.Pos,
				Message: fmt.Sprintf("function %s is already declared in package %s", d.Name, pkgName)})
			continue
		}
		seen[d.Name] = d.Pos
		valid = append(valid, d)
	}
	for name := range seen {
		g.scope.Globals[name] = true
	}
	g.core = coreQualifier(g.Opts.CoreImport, sources, g.scope)

	g.Buf.Reset()
	g.PrintHeader(pkgName, sources)
	for _, d := range valid {
		if err := g.Directive(d); err != nil {
			if rerr, ok := err.(*rsx.Error); ok {
				errs = append(errs, rerr)
				continue
			}
			return nil, err
		}
		res.Funcs = append(res.Funcs, d.Name)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	src, err := imports.Process(outPath, g.Buf.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w\n%s", outPath, err, g.Buf.Bytes())
	}
	res.Src = src
	return res, nil
}

// coreQualifier picks the local name of the core package: the name a source
// file already imports it under, or else its base name unless the package
// uses that name for something else.
func coreQualifier(importPath string, sources []*ast.File, scope *rsx.Scope) string {
	for _, f := range sources {
		for _, imp := range f.Imports {
			if p, _ := strconv.Unquote(imp.Path.Value); p != importPath {
				continue
			}
			if imp.Name == nil {
				return path.Base(importPath)
			}
			if imp.Name.Name != "_" && imp.Name.Name != "." {
				return imp.Name.Name
			}
		}
	}
	name := path.Base(importPath)
	if !scope.Declared(name) {
		return name
	}
	for i := 0; ; i++ {
		alias := "kayak" + name
		if i > 0 {
			alias += strconv.Itoa(i)
		}
		if !scope.Declared(alias) {
			return alias
		}
	}
}

// PrintHeader prints the header, package clause and imports. Every import of
// the source files is repeated so markup can use them; imports.Process drops
// the unused ones.
func (g *Generator) PrintHeader(pkgName string, sources []*ast.File) {
	g.Printf("%s\n\n", Header)
	g.Printf("package %s\n\n", pkgName)
	g.Printf("import (\n")
	coreSpec := strconv.Quote(g.Opts.CoreImport)
	if g.core != path.Base(g.Opts.CoreImport) {
		coreSpec = g.core + " " + coreSpec
	}
	specs := []string{coreSpec}
	for _, f := range sources {
		for _, imp := range f.Imports {
			if imp.Name != nil && (imp.Name.Name == "_" || imp.Name.Name == ".") {
				continue
			}
			spec := imp.Path.Value
			if imp.Name != nil {
				spec = imp.Name.Name + " " + spec
			}
			if !slices.Contains(specs, spec) {
				specs = append(specs, spec)
			}
		}
	}
	for _, spec := range specs {
		g.Printf("\t%s\n", spec)
	}
	g.Printf(")\n")
}

// Directive generates the function for d.
func (g *Generator) Directive(d *Directive) error {
	// Parameters shadow package-level names of the same name, so they must
	// be captured.
	scope := &rsx.Scope{Globals: map[string]bool{}, Imports: g.scope.Imports}
	for name := range g.scope.Globals {
		scope.Globals[name] = true
	}
	for _, p := range d.Params {
		delete(scope.Globals, p.Name)
		if p.Name == g.core {
			return &rsx.Error{Type: DirectiveError, Pos: d.Pos,
				Message: fmt.Sprintf("parameter %s shadows the %s package", p.Name, g.core)}
		}
		if scope.Imports[p.Name] {
			return &rsx.Error{Type: DirectiveError, Pos: d.Pos,
				Message: fmt.Sprintf("parameter %s shadows an imported package", p.Name)}
		}
	}

	expansion, err := rsx.Expand(d.Pos.Filename, []byte(d.Markup), rsx.Options{Core: g.core, Scope: scope})
	if err != nil {
		return d.relocate(err)
	}

	g.Printf("\n// %s is generated from the markup at %s:%d.\n", d.Name, filepath.Base(d.Pos.Filename), d.Pos.Line)
	g.Printf("func %s(%s %s.Children", d.Name, rsx.ChildrenIdent, g.core)
	for _, p := range d.Params {
		g.Printf(", %s %s", p.Name, p.Type)
	}
	g.Printf(") %s.Children {\n", g.core)
	g.Printf("\treturn %s\n}\n", expansion)
	return nil
}
