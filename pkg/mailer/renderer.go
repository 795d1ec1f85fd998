package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// Renderer converts markdown templates with YAML front matter into
// HTML wrapped in a layout. Parsed templates and layouts are cached;
// execution always runs with fresh data.
type Renderer struct {
	fs fs.FS
	md goldmark.Markdown

	mu        sync.RWMutex
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template

	templateDir string
	layoutDir   string
}

type parsedTemplate struct {
	metadata map[string]any
	tmpl     *texttemplate.Template
}

// RendererConfig configures template lookup paths.
type RendererConfig struct {
	TemplateDir string // default "."
	LayoutDir   string // default "layouts"
}

// NewRenderer creates a renderer over the given filesystem.
func NewRenderer(filesystem fs.FS) *Renderer {
	return NewRendererWithConfig(filesystem, RendererConfig{})
}

// NewRendererWithConfig creates a renderer with custom lookup paths.
func NewRendererWithConfig(filesystem fs.FS, cfg RendererConfig) *Renderer {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "."
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = "layouts"
	}
	return &Renderer{
		fs:          filesystem,
		md:          goldmark.New(),
		templates:   make(map[string]*parsedTemplate),
		layouts:     make(map[string]*template.Template),
		templateDir: cfg.TemplateDir,
		layoutDir:   cfg.LayoutDir,
	}
}

// RenderResult holds the rendered HTML, the plain-text part and the
// template's front-matter metadata.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

// Render executes templateName with data, converts the result to HTML
// and wraps it in the named layout. The executed markdown before HTML
// conversion becomes the plain-text part.
func (r *Renderer) Render(layout, templateName string, data any) (*RenderResult, error) {
	parsed, err := r.getTemplate(templateName)
	if err != nil {
		return nil, err
	}

	var markdown bytes.Buffer
	if err := parsed.tmpl.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("%w: execute template: %v", ErrRenderFailed, err)
	}

	var htmlBody bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &htmlBody); err != nil {
		return nil, fmt.Errorf("%w: convert markdown: %v", ErrRenderFailed, err)
	}

	layoutTmpl, err := r.getLayout(layout)
	if err != nil {
		return nil, err
	}

	var finalHTML bytes.Buffer
	layoutData := map[string]any{
		"Content":  template.HTML(htmlBody.String()),
		"Metadata": parsed.metadata,
	}
	if err := layoutTmpl.Execute(&finalHTML, layoutData); err != nil {
		return nil, fmt.Errorf("%w: execute layout: %v", ErrRenderFailed, err)
	}

	return &RenderResult{
		Metadata: parsed.metadata,
		HTML:     finalHTML.String(),
		Text:     markdown.String(),
	}, nil
}

func (r *Renderer) getTemplate(name string) (*parsedTemplate, error) {
	r.mu.RLock()
	cached, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.templateDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, err
	}

	tmpl, err := texttemplate.New(name).Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse template %s: %v", ErrRenderFailed, name, err)
	}

	entry := &parsedTemplate{metadata: parsed.Metadata, tmpl: tmpl}
	r.mu.Lock()
	r.templates[name] = entry
	r.mu.Unlock()
	return entry, nil
}

func (r *Renderer) getLayout(name string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse layout %s: %v", ErrRenderFailed, name, err)
	}

	r.mu.Lock()
	r.layouts[name] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}
