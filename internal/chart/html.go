package chart

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

//go:embed templates/chart.html.tmpl
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/chart.html.tmpl"))

// HTMLOptions controls how plotly.js is made available to the page.
type HTMLOptions struct {
	// ScriptURL is loaded with a <script src> tag when InlineJS is empty.
	ScriptURL string
	// InlineJS, when set, is embedded verbatim so the page works offline.
	InlineJS []byte
}

// LoadHTMLOptions builds HTMLOptions, reading the plotly.js bundle from
// jsPath when it is non-empty.
func LoadHTMLOptions(scriptURL, jsPath string) (HTMLOptions, error) {
	opts := HTMLOptions{ScriptURL: scriptURL}
	if jsPath == "" {
		if scriptURL == "" {
			return opts, fmt.Errorf("either a plotly.js URL or a local bundle path is required")
		}
		return opts, nil
	}
	js, err := os.ReadFile(jsPath)
	if err != nil {
		return opts, fmt.Errorf("reading plotly.js bundle: %w", err)
	}
	opts.InlineJS = js
	return opts, nil
}

type pageData struct {
	Title      string
	ScriptURL  string
	InlineJS   template.JS
	Background template.CSS
	Figure     Figure
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// WriteHTML renders fig as a standalone HTML document to w. The figure is
// embedded as JSON; html/template escapes it for the script context.
func WriteHTML(w io.Writer, fig Figure, opts HTMLOptions) error {
	title := fig.Layout.Title.Text
	if m := tagRe.FindStringIndex(title); m != nil {
		title = title[:m[0]]
	}
	data := pageData{
		Title:      title,
		ScriptURL:  opts.ScriptURL,
		InlineJS:   template.JS(opts.InlineJS),
		Background: template.CSS(fig.Layout.PaperBGColor),
		Figure:     fig,
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("rendering chart page: %w", err)
	}
	return nil
}

// WriteHTMLFile renders fig to path, creating parent directories. A failed
// render never leaves a truncated chart behind.
func WriteHTMLFile(path string, fig Figure, opts HTMLOptions) error {
	staged, err := StageHTMLFile(path, fig, opts)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StagedFile is a fully rendered chart held under a temporary name next to
// its destination.
type StagedFile struct {
	Path string
	tmp  string
}

// StageHTMLFile renders fig into a temporary file in the directory of path.
// Nothing at path changes until Commit.
func StageHTMLFile(path string, fig Figure, opts HTMLOptions) (*StagedFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.html")
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*StagedFile, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := WriteHTML(tmp, fig, opts); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return &StagedFile{Path: path, tmp: tmp.Name()}, nil
}

// Commit renames the staged file into place.
func (f *StagedFile) Commit() error {
	if err := os.Rename(f.tmp, f.Path); err != nil {
		os.Remove(f.tmp)
		return err
	}
	return nil
}

// Discard removes the staged file, leaving the destination untouched.
func (f *StagedFile) Discard() {
	os.Remove(f.tmp)
}
