package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/kayak/cmd/kayak/internal/config"
	"github.com/go-drift/kayak/cmd/kayak/internal/generate"
	kerrors "github.com/go-drift/kayak/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "generate",
		Short: "Expand //kayak:rsx markup into Go functions",
		Long: `Expand //kayak:rsx markup directives into Go functions.

Each package with directives gets one generated file (kayak_rsx.go unless
kayak.yaml sets generate.output). A directive names the function and its
parameters; the comment lines that follow hold the markup:

  //kayak:rsx Greeting name=string
  // <Text content={"Hello, " + name}/>

Generated files of packages that no longer have directives are removed.

Flags:
  --dry-run      Print the generated files instead of writing them
  --dir DIR      Run as if started in DIR`,
		Usage: "kayak generate [--dry-run] [--dir DIR] [packages]",
		Run:   runGenerate,
	})
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Verify that generated files are up to date",
		Long: `Verify that generated files match their markup directives.

Reports markup diagnostics and stale generated files without writing
anything. Exits with an error if any file would change.

Flags:
  --dir DIR      Run as if started in DIR`,
		Usage: "kayak check [--dir DIR] [packages]",
		Run:   runCheck,
	})
}

type generateOptions struct {
	op       string
	dir      string
	dryRun   bool
	patterns []string
}

// fileAction is what generation does to one output file.
type fileAction int

const (
	actionUnchanged fileAction = iota
	actionWrite
	actionRemove
)

type fileResult struct {
	path   string
	action fileAction
	src    []byte
	funcs  int
}

func parseGenerateArgs(args []string, allowDryRun bool) (generateOptions, error) {
	var opts generateOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--dry-run" && allowDryRun:
			opts.dryRun = true
		case arg == "--dir":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--dir requires a directory path")
			}
			opts.dir = args[i+1]
			i++
		case strings.HasPrefix(arg, "--dir="):
			opts.dir = strings.TrimPrefix(arg, "--dir=")
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unknown flag: %s", arg)
		default:
			opts.patterns = append(opts.patterns, arg)
		}
	}
	return opts, nil
}

func runGenerate(args []string) error {
	opts, err := parseGenerateArgs(args, true)
	if err != nil {
		return err
	}
	opts.op = "kayak generate"
	root, results, err := generatePackages(opts)
	if err != nil {
		return err
	}

	for _, r := range results {
		rel := relPath(root, r.path)
		switch {
		case opts.dryRun && r.action != actionRemove && r.src != nil:
			fmt.Fprintf(stdout, "// %s\n%s", rel, r.src)
		case opts.dryRun && r.action == actionRemove:
			fmt.Fprintf(stdout, "// %s would be removed\n", rel)
		case r.action == actionWrite:
			if err := os.WriteFile(r.path, r.src, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", rel, err)
			}
			fmt.Fprintf(stdout, "wrote %s (%d functions)\n", rel, r.funcs)
		case r.action == actionRemove:
			if err := os.Remove(r.path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", rel, err)
			}
			fmt.Fprintf(stdout, "removed %s\n", rel)
		}
	}
	return nil
}

func runCheck(args []string) error {
	opts, err := parseGenerateArgs(args, false)
	if err != nil {
		return err
	}
	opts.op = "kayak check"
	root, results, err := generatePackages(opts)
	if err != nil {
		return err
	}

	stale := 0
	for _, r := range results {
		switch r.action {
		case actionWrite:
			fmt.Fprintf(stderr, "%s is out of date\n", relPath(root, r.path))
			stale++
		case actionRemove:
			fmt.Fprintf(stderr, "%s has no directives left\n", relPath(root, r.path))
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d generated file(s) out of date; run kayak generate", stale)
	}
	fmt.Fprintf(stdout, "%d generated file(s) up to date\n", len(results))
	return nil
}

// generatePackages runs the generator over the matching packages and
// compares each result with the file on disk. Markup diagnostics of all
// packages go to the error handler as parse errors and fail the run with a
// count.
func generatePackages(opts generateOptions) (string, []*fileResult, error) {
	dir := opts.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}

	root, err := config.FindProjectRootFrom(dir)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return "", nil, err
	}

	pkgs, err := generate.Load(dir, cfg.Tags, opts.patterns...)
	if err != nil {
		return "", nil, err
	}

	var (
		results []*fileResult
		errs    []error
		diags   int
	)
	for _, pkg := range pkgs {
		res, err := generate.NewGenerator(generate.OptionsFrom(cfg)).Package(pkg)
		var list generate.ErrorList
		if errors.As(err, &list) {
			reportDiagnostics(opts.op, list)
			diags += len(list)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res.Path == "" {
			continue
		}
		r, err := compare(res)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if r != nil {
			results = append(results, r)
		}
	}
	if diags > 0 {
		errs = append(errs, fmt.Errorf("%d markup diagnostic(s)", diags))
	}
	if err := errors.Join(errs...); err != nil {
		return root, nil, err
	}
	return root, results, nil
}

func reportDiagnostics(op string, list generate.ErrorList) {
	for _, diag := range list {
		kerrors.Report(&kerrors.KayakError{Op: op, Kind: kerrors.KindParse, Err: diag})
	}
}

// compare decides what to do with the output file of res. It returns nil
// when the package has neither directives nor a previous output.
func compare(res *generate.Result) (*fileResult, error) {
	existing, err := os.ReadFile(res.Path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", res.Path, err)
	}
	if exists && !isGenerated(existing) {
		if res.Src == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%s exists and was not generated by kayak", res.Path)
	}

	r := &fileResult{path: res.Path, src: res.Src, funcs: len(res.Funcs)}
	switch {
	case res.Src == nil && !exists:
		return nil, nil
	case res.Src == nil:
		r.action = actionRemove
	case !exists || !bytes.Equal(existing, res.Src):
		r.action = actionWrite
	}
	return r, nil
}

func isGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(generate.Header))
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
