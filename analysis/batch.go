// Package analysis wires the lexer/parser/scope/typeck/ops layers together
// into a batch entry point for analyzing a set of documents at once.
package analysis

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/abiiranathan/tmplcheck/analysis/ops"
	"github.com/abiiranathan/tmplcheck/analysis/scope"
	"github.com/abiiranathan/tmplcheck/analysis/typeck"
	"github.com/abiiranathan/tmplcheck/env"
	"github.com/abiiranathan/tmplcheck/syntax"
)

// Document is one parsed and analyzed source file.
type Document struct {
	Path        string
	Source      string
	Root        *syntax.Node
	Scope       *scope.Info
	Typeck      *typeck.Info
	Diagnostics []ops.Diagnostic
}

// NamedTemplateEntry records one `{{define "name"}}`/`{{block "name"}}`
// occurrence, keyed by the file it was found in, for cross-file duplicate
// detection.
type NamedTemplateEntry struct {
	Path  string
	Range syntax.Range
}

// DuplicateTemplateError reports an associated-template name declared more
// than once across the analyzed set of documents.
type DuplicateTemplateError struct {
	Name    string
	Entries []NamedTemplateEntry
}

// AnalyzeConcurrently parses and analyzes every path in paths against e,
// on a pool of worker goroutines (one per CPU core) that pull documents
// from a shared channel, and returns a Document per path plus every associated-template
// name declared in more than one of them. A document that fails to read is
// skipped with its error returned alongside the others that succeeded.
//
// Documents are independent: no document's result depends on another's, so
// results are collected over a buffered channel rather than shared mutable
// state, in the chunked-worker-pool style. Duplicate-name detection, in
// contrast, writes into one registry shared by every worker, so it uses a
// sync.Map with a load-or-store-then-compare-and-swap retry loop to stay
// correct under concurrent writers without a contending mutex.
func AnalyzeConcurrently(paths []string, e *env.Environment) ([]*Document, []DuplicateTemplateError, []error) {
	if len(paths) == 0 {
		return nil, nil, nil
	}

	numWorkers := max(runtime.NumCPU(), 1)
	pathChan := make(chan string, len(paths))
	type outcome struct {
		doc *Document
		err error
	}
	resultChan := make(chan outcome, len(paths))
	var registry sync.Map // map[string]*[]NamedTemplateEntry

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for path := range pathChan {
				doc, err := analyzeOne(path, e)
				if err != nil {
					resultChan <- outcome{err: err}
					continue
				}
				recordNamedTemplates(&registry, doc)
				resultChan <- outcome{doc: doc}
			}
		})
	}

	for _, p := range paths {
		pathChan <- p
	}
	close(pathChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var docs []*Document
	var errs []error
	for o := range resultChan {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		docs = append(docs, o.doc)
	}

	return docs, detectDuplicateTemplates(&registry), errs
}

func analyzeOne(path string, e *env.Environment) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p := syntax.Parse(string(src))
	scopeInfo := scope.Analyze(p.Root)
	typeckInfo := typeck.Analyze(p.Root, scopeInfo, e)
	diags := ops.Diagnostics(p.Errors, scopeInfo, typeckInfo)

	return &Document{
		Path:        path,
		Source:      string(src),
		Root:        p.Root,
		Scope:       scopeInfo,
		Typeck:      typeckInfo,
		Diagnostics: diags,
	}, nil
}

// recordNamedTemplates stores every `{{define}}`/`{{block}}` declaration in
// doc into registry, keyed by its associated-template name.
func recordNamedTemplates(registry *sync.Map, doc *Document) {
	for _, n := range doc.Root.Descendants() {
		var name string
		switch action := syntax.ClassifyAction(n).(type) {
		case syntax.TemplateDefinition:
			name = action.Name()
		case syntax.TemplateBlock:
			name = action.Name()
		default:
			continue
		}
		storeNamedTemplate(registry, name, NamedTemplateEntry{Path: doc.Path, Range: n.Range()})
	}
}

// storeNamedTemplate appends entry to registry[name], retrying on CAS
// failure from a concurrent writer.
func storeNamedTemplate(registry *sync.Map, name string, entry NamedTemplateEntry) {
	for {
		val, loaded := registry.LoadOrStore(name, &[]NamedTemplateEntry{entry})
		if !loaded {
			return
		}
		existing := val.(*[]NamedTemplateEntry)
		updated := append(append([]NamedTemplateEntry(nil), *existing...), entry)
		if registry.CompareAndSwap(name, existing, &updated) {
			return
		}
	}
}

func detectDuplicateTemplates(registry *sync.Map) []DuplicateTemplateError {
	var out []DuplicateTemplateError
	registry.Range(func(key, value any) bool {
		entries := *value.(*[]NamedTemplateEntry)
		if len(entries) > 1 {
			out = append(out, DuplicateTemplateError{Name: key.(string), Entries: entries})
		}
		return true
	})
	return out
}
