package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page templates.
const (
	PageUpload   = "upload.html"
	PageLoading  = "loading.html"
	PageAnalysis = "analysis.html"
	PageError    = "error.html"
)

var pageNames = []string{PageUpload, PageLoading, PageAnalysis, PageError}

const layoutName = "layout"

// Page is the data passed to every page template.
type Page struct {
	Title string
	// Refresh reloads the page after this many seconds when positive.
	Refresh int
	Data    any
}

// UploadData backs the upload form.
type UploadData struct {
	Error string
}

// LoadingData backs the polling page shown while an analysis runs.
type LoadingData struct {
	SessionID string
	Title     string
	Phrase    string
}

// ErrorData backs the full-screen error page.
type ErrorData struct {
	Message string
}

// AnalysisData backs the analysis page.
type AnalysisData struct {
	View    view.View
	Options []present.ThresholdOption
	Legend  []view.LegendEntry
}

// NewAnalysisData wraps v with the selector options and legend.
func NewAnalysisData(v view.View) AnalysisData {
	return AnalysisData{View: v, Options: present.ThresholdOptions(), Legend: view.Legend}
}

var funcs = template.FuncMap{
	"thresholdLabel": present.ThresholdLabel,
	"sameThreshold":  func(a, b float64) bool { return a == b },
	"tierClass": func(t present.Tier) string {
		return "tier-" + string(t)
	},
	"noData": func() string { return view.NoData },
}

// Templates holds the parsed page templates.
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates parses the embedded layout and pages once.
func NewTemplates() (*Templates, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, eris.Wrap(err, "render: templates dir")
	}
	layout, err := template.New("").Funcs(funcs).ParseFS(sub, "layout.html")
	if err != nil {
		return nil, eris.Wrap(err, "render: parse layout")
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, eris.Wrapf(err, "render: clone layout for %s", name)
		}
		if _, err := t.ParseFS(sub, name); err != nil {
			return nil, eris.Wrapf(err, "render: parse %s", name)
		}
		pages[name] = t
	}
	return &Templates{pages: pages}, nil
}

// Render executes a page inside the layout.
func (t *Templates) Render(w io.Writer, page string, data Page) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return eris.Errorf("render: template not found: %s", page)
	}
	return eris.Wrapf(tmpl.ExecuteTemplate(w, layoutName, data), "render: execute %s", page)
}
