/*
Command tlanalyze is the command-line entry point for the template
language analyzer.

It loads an Environment from one or more .ydef function-definition files
and/or a Go struct catalog extracted from real Go source, then parses and
analyzes every *.tl file under a directory concurrently, reporting
diagnostics as JSON or plain text.
*/
package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abiiranathan/tmplcheck/analysis"
	"github.com/abiiranathan/tmplcheck/analysis/ops"
	"github.com/abiiranathan/tmplcheck/env"
)

// stringSlice collects the value of a flag that may be repeated, e.g.
// -env one.ydef -env two.ydef.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Output is the JSON shape emitted by -json: one entry per analyzed
// document plus any cross-file duplicate associated-template names and
// files that could not be read.
type Output struct {
	Documents  []DocumentOutput                  `json:"documents"`
	Duplicates []analysis.DuplicateTemplateError `json:"duplicateTemplates,omitempty"`
	ReadErrors []string                          `json:"readErrors,omitempty"`
}

// DocumentOutput is one analyzed file's diagnostics.
type DocumentOutput struct {
	Path        string           `json:"path"`
	Diagnostics []ops.Diagnostic `json:"diagnostics"`
}

func main() {
	dir := flag.String("dir", ".", "directory of *.tl files to analyze")
	var envPaths stringSlice
	flag.Var(&envPaths, "env", "path to a .ydef function-definition file (repeatable)")
	contextPkg := flag.String("context-pkg", "", "Go package path to extract a struct catalog from")
	contextType := flag.String("context-type", "", "exported type name within -context-pkg to use as the initial context")
	jsonOutput := flag.Bool("json", false, "emit JSON instead of plain text")
	compress := flag.Bool("compress", false, "gzip-compress JSON output (implies -json)")
	flag.Parse()

	e, err := buildEnvironment(envPaths, *contextPkg, *contextType)
	if err != nil {
		log.Fatalf("building environment: %v", err)
	}

	paths, err := findTemplateFiles(*dir)
	if err != nil {
		log.Fatalf("scanning %s: %v", *dir, err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no .tl files found under %s\n", *dir)
		os.Exit(0)
	}

	docs, duplicates, readErrs := analysis.AnalyzeConcurrently(paths, e)

	hasDiagnostics := len(duplicates) > 0 || len(readErrs) > 0
	out := Output{Documents: make([]DocumentOutput, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, DocumentOutput{Path: d.Path, Diagnostics: d.Diagnostics})
		if len(d.Diagnostics) > 0 {
			hasDiagnostics = true
		}
	}
	out.Duplicates = duplicates
	for _, readErr := range readErrs {
		out.ReadErrors = append(out.ReadErrors, readErr.Error())
	}

	if *jsonOutput || *compress {
		encodeJSON(out, *compress)
	} else {
		printText(out)
	}

	if hasDiagnostics {
		os.Exit(1)
	}
}

// buildEnvironment constructs the checker's Environment from whichever
// sources were given: .ydef files and/or a Go struct catalog. Both are
// independent of each other and of any I/O failure the other might
// encounter, so they load concurrently under an errgroup. The group has no
// context, so a failure (a missing file, a package that won't load) does
// not stop the other load; Wait returns the first error once both finish.
func buildEnvironment(ydefPaths []string, pkgPath, typeName string) (*env.Environment, error) {
	var g errgroup.Group
	var ydefEnv, catalogEnv *env.Environment

	if len(ydefPaths) > 0 {
		g.Go(func() error {
			e, err := env.LoadYdefFiles(ydefPaths)
			if err != nil {
				return fmt.Errorf("loading .ydef files: %w", err)
			}
			ydefEnv = e
			return nil
		})
	}

	if pkgPath != "" && typeName != "" {
		g.Go(func() error {
			e, err := env.BuildStructCatalog(pkgPath, typeName)
			if err != nil {
				return fmt.Errorf("building struct catalog: %w", err)
			}
			catalogEnv = e
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case catalogEnv != nil && ydefEnv != nil:
		if err := catalogEnv.MergeFuncs(ydefEnv); err != nil {
			return nil, fmt.Errorf("merging .ydef functions into struct catalog: %w", err)
		}
		return catalogEnv, nil
	case catalogEnv != nil:
		return catalogEnv, nil
	case ydefEnv != nil:
		return ydefEnv, nil
	default:
		return defaultEnvironment()
	}
}

// defaultEnvironment falls back to the bundled fixtures package as the
// -context-pkg/-context-type demo target, so running tlanalyze with no
// flags at all still produces a usable Environment.
func defaultEnvironment() (*env.Environment, error) {
	e, err := env.BuildStructCatalog("github.com/abiiranathan/tmplcheck/cmd/tlanalyze/fixtures", "Patient")
	if err != nil {
		return nil, fmt.Errorf("building default fixtures environment: %w", err)
	}
	return e, nil
}

// findTemplateFiles walks dir for every *.tl file.
func findTemplateFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".tl") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// encodeJSON serializes output as JSON to stdout, gzip-compressed when
// compress is true.
func encodeJSON(output any, compress bool) {
	if compress {
		writeGzipJSON(output)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		log.Fatalf("failed to encode JSON: %v", err)
	}
}

// writeGzipJSON writes gzip-compressed JSON to stdout.
func writeGzipJSON(output any) {
	gz := gzip.NewWriter(os.Stdout)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	enc.SetIndent("", "")
	if err := enc.Encode(output); err != nil {
		log.Fatalf("failed to encode JSON: %v", err)
	}
	if err := gz.Close(); err != nil {
		log.Fatalf("failed to close gzip writer: %v", err)
	}
}

func printText(out Output) {
	for _, d := range out.Documents {
		if len(d.Diagnostics) == 0 {
			continue
		}
		fmt.Printf("%s:\n", d.Path)
		for _, diag := range d.Diagnostics {
			fmt.Printf("  [%s] %d-%d: %s\n", sourceLabel(diag.Source), diag.Range.Start, diag.Range.End, diag.Message)
		}
	}
	for _, dup := range out.Duplicates {
		fmt.Printf("duplicate associated template %q declared in:\n", dup.Name)
		for _, entry := range dup.Entries {
			fmt.Printf("  %s\n", entry.Path)
		}
	}
	for _, e := range out.ReadErrors {
		fmt.Fprintf(os.Stderr, "%s\n", e)
	}
}

func sourceLabel(s ops.DiagnosticSource) string {
	switch s {
	case ops.SourceSyntax:
		return "syntax"
	case ops.SourceScope:
		return "scope"
	case ops.SourceTypeck:
		return "typeck"
	default:
		return "unknown"
	}
}
