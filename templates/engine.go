// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Engine holds one compiled template tree per page. Every tree is a clone
// of the shared set (layout, partials) plus all page files, where only the
// page's own file keeps its `define "content"`.
type Engine struct {
	mu     sync.RWMutex
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// New returns an empty engine; call Boot before rendering.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		funcs:  Funcs(),
		byName: map[string]*template.Template{},
		logger: logger,
	}
}

// Funcs adds template functions. Must be called before Boot.
func (e *Engine) Funcs(fm template.FuncMap) *Engine {
	for k, v := range fm {
		e.funcs[k] = v
	}
	return e
}

// Boot parses the shared set and compiles one tree per file in pages.
func (e *Engine) Boot(shared Set, pages Set) error {
	base, err := e.parseShared(shared)
	if err != nil {
		return fmt.Errorf("parse %s: %w", shared.Name, err)
	}
	e.base = base

	if err := e.compilePerPage(pages); err != nil {
		return fmt.Errorf("compile %s: %w", pages.Name, err)
	}
	return nil
}

func (e *Engine) compilePerPage(s Set) error {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.logger.Warn("no templates matched", zap.String("set", s.Name))
		return nil
	}

	sources := make(map[string]string, len(files))
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		sources[p] = string(b)
	}

	for _, page := range files {
		owned := extractDefineNames(sources[page])
		delete(owned, "content")

		tree, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		for _, p := range files {
			text := sources[p]
			if p != page {
				text = reContentDefine.ReplaceAllString(text, fmt.Sprintf(`{{ define "%s" }}`, ignoredContentName(p)))
			}
			if _, err := tree.Funcs(e.funcs).Parse(text); err != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, page, err)
			}
		}

		e.mu.Lock()
		for name := range owned {
			e.byName[name] = tree
		}
		e.mu.Unlock()

		e.logger.Debug("template page compiled",
			zap.String("set", s.Name), zap.String("page", filepath.Base(page)))
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{\s*define\s+"content"\s*}}`)
	reDefineName    = regexp.MustCompile(`{{-?\s*define\s+"([^"]+)"`)
)

// ignoredContentName turns pages/about.gohtml into _content_ignored_about.
func ignoredContentName(path string) string {
	base := filepath.Base(path)
	return "_content_ignored_" + strings.TrimSuffix(base, filepath.Ext(base))
}

func extractDefineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		out[g[1]] = struct{}{}
	}
	return out
}

func (e *Engine) parseShared(s Set) (*template.Template, error) {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no shared templates matched %v", s.Patterns)
	}
	root := template.New("root").Funcs(e.funcs)
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return nil, err
		}
		if _, err := root.Parse(string(b)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	return root, nil
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Execute renders the named entry template into a buffer.
func (e *Engine) Execute(name string, data any) ([]byte, error) {
	e.mu.RLock()
	t, ok := e.byName[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes the named page as HTML with status. The page is rendered
// into a buffer first, so a template error still yields a clean 500.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) {
	out, err := e.Execute(name, data)
	if err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}
