// Package render writes inspection results as text, JSON or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/metalvoice/mlinspect/internal/inspect"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by New for an unsupported output format.
var ErrUnknownFormat = errors.New("render: unknown output format")

// Options configures a Renderer.
type Options struct {
	Format string // text, json or yaml; empty means text
	Color  bool   // bold section headings in text output
}

// Renderer writes results to one writer.
type Renderer struct {
	w       io.Writer
	format  string
	heading lipgloss.Style
}

// New returns a Renderer writing to w.
func New(w io.Writer, opts Options) (*Renderer, error) {
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	re := lipgloss.NewRenderer(w)
	if opts.Color {
		re.SetColorProfile(termenv.ANSI)
	} else {
		re.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		w:       w,
		format:  format,
		heading: re.NewStyle().Bold(true),
	}, nil
}

// Render writes all results. Per-model errors are part of the output, not
// the returned error, which only reports write failures.
func (r *Renderer) Render(results []inspect.Result) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(documents(results))
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(documents(results)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.text(results)
	}
}

// errorDocument is the structured form of a failed inspection.
type errorDocument struct {
	Path  string `json:"path,omitempty" yaml:"path,omitempty"`
	Error string `json:"error" yaml:"error"`
}

// documents returns a single document for one result and a list otherwise.
func documents(results []inspect.Result) any {
	docs := make([]any, len(results))
	for i, res := range results {
		if res.Err != nil {
			docs[i] = errorDocument{Path: res.Path, Error: res.Err.Error()}
			continue
		}
		docs[i] = res.Report
	}
	if len(docs) == 1 {
		return docs[0]
	}
	return docs
}

func (r *Renderer) text(results []inspect.Result) error {
	var b strings.Builder
	for i, res := range results {
		if len(results) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(r.heading.Render("=== "+res.Path+" ===") + "\n")
		}
		if res.Err != nil {
			fmt.Fprintf(&b, "Error: %v\n", res.Err)
			continue
		}
		r.report(&b, res.Report)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) section(b *strings.Builder, name string) {
	b.WriteString(r.heading.Render("--- "+name+" ---") + "\n")
}

func (r *Renderer) report(b *strings.Builder, rep *inspect.Report) {
	r.section(b, "MODEL SPEC")
	if rep.Spec != "" {
		b.WriteString(rep.Spec)
	} else {
		for _, kv := range rep.Metadata {
			fmt.Fprintf(b, "%s: %s\n", kv.Key, kv.Value)
		}
	}
	b.WriteString("\n")

	r.section(b, "INPUTS")
	features(b, rep.Inputs)
	r.section(b, "OUTPUTS")
	features(b, rep.Outputs)
	if len(rep.States) > 0 {
		r.section(b, "STATES")
		features(b, rep.States)
	}

	r.section(b, "PACKAGE")
	fmt.Fprintf(b, "Format: %s (%s)\n", rep.Format, rep.Format.Description())
	fmt.Fprintf(b, "Size: %s (%s bytes)\n",
		humanize.Bytes(uint64(rep.Size)), //nolint:gosec // G115: sizes are non-negative.
		humanize.Comma(rep.Size))
	for _, kv := range rep.Details {
		fmt.Fprintf(b, "%s: %s\n", kv.Key, kv.Value)
	}
	if rep.Checksum != "" {
		fmt.Fprintf(b, "SHA-256: %s\n", rep.Checksum)
	}
}

func features(b *strings.Builder, fs []inspect.Feature) {
	for _, f := range fs {
		fmt.Fprintf(b, "Name: %s\n", f.Name)
		fmt.Fprintf(b, "Type: %s\n", f.Type)
		if f.Description != "" {
			b.WriteString(f.Description + "\n")
		}
	}
}
