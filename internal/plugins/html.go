package plugins

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/h5runner/internal/assets"
)

const DefaultHTMLFilename = "index.html"

const defaultHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width,initial-scale=1,user-scalable=no">
  <title>{{ .Title }}</title>
  {{- range .Styles }}
  <link rel="stylesheet" href="{{ . }}">
  {{- end }}
  {{- range .Preloads }}
  <link rel="modulepreload" href="{{ . }}">
  {{- end }}
</head>
<body>
  <div id="app"></div>
  {{- range .Scripts }}
  <script type="module" src="{{ . }}"></script>
  {{- end }}
</body>
</html>
`

// HTML writes the application's HTML page after each build, linking the
// entry scripts, their statically imported chunks and their stylesheets.
type HTML struct {
	Filename string `json:"filename" yaml:"filename"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	// Template is an absolute path to an html/template file. Empty uses the
	// built-in page.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
}

// HTMLData is what templates are executed with.
type HTMLData struct {
	Title      string
	PublicPath string
	Scripts    []string
	Preloads   []string
	Styles     []string
}

func (h *HTML) Apply(opts *api.BuildOptions) error {
	tmpl, err := h.parse()
	if err != nil {
		return err
	}

	filename := h.Filename
	if filename == "" {
		filename = DefaultHTMLFilename
	}
	entries := entryInputs(opts)

	onEnd(opts, "html", func(meta *assets.BuildMetadata, dirs buildDirs) error {
		data, err := pageData(meta, dirs, entries)
		if err != nil {
			return err
		}
		data.Title = h.Title

		buf := new(bytes.Buffer)
		if err := tmpl.Execute(buf, data); err != nil {
			return fmt.Errorf("failed to render template: %w", err)
		}

		target := filepath.Join(dirs.OutDir, filename)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil { //nolint:gosec
			return err
		}

		log.Debug().Str("file", target).Int("scripts", len(data.Scripts)).Msg("Wrote HTML page")
		return nil
	})

	return nil
}

func (h *HTML) parse() (*template.Template, error) {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	if h.Template == "" {
		return template.New("html").Funcs(funcs).Parse(defaultHTMLTemplate)
	}

	tmpl, err := template.New(filepath.Base(h.Template)).Funcs(funcs).ParseFiles(h.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to load html template: %w", err)
	}
	return tmpl, nil
}

func pageData(meta *assets.BuildMetadata, dirs buildDirs, entries []string) (HTMLData, error) {
	data := HTMLData{PublicPath: dirs.PublicPath}
	seen := make(map[string]bool)

	for _, entry := range entries {
		entryPath := dirs.metaPath(entry)

		if css := meta.CSSBundle(entryPath); css != "" && !seen[css] {
			seen[css] = true
			data.Styles = append(data.Styles, dirs.url(dirs.relOutput(css)))
		}

		scripts, main, err := meta.Scripts(entryPath)
		if errors.Is(err, assets.ErrEntryPointNotFound) {
			// stylesheet-only entry point
			continue
		}
		if err != nil {
			return HTMLData{}, err
		}

		for _, script := range scripts {
			if seen[script] {
				continue
			}
			seen[script] = true

			url := dirs.url(dirs.relOutput(script))
			if script == main {
				data.Scripts = append(data.Scripts, url)
			} else {
				data.Preloads = append(data.Preloads, url)
			}
		}
	}

	return data, nil
}

func marshal(value any) (string, error) {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		return "", errors.New("context can only be json serializable")
	}

	return buf.String(), nil
}
