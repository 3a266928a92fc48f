// Package output renders command results for terminals, markdown consumers
// and JSON scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"golang.org/x/term"
)

// OutputMode selects how results are written.
type OutputMode string //nolint:revive // output.OutputMode reads fine at call sites

// Output modes.
const (
	ModeAuto     OutputMode = "auto"     // text on a terminal, markdown otherwise
	ModeText     OutputMode = "text"     // styled tables
	ModeMarkdown OutputMode = "markdown" // markdown tables and headers
	ModeJSON     OutputMode = "json"     // indented JSON
)

// Mode converts a configured output value to an OutputMode. Unknown values
// fall back to auto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(s)); m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	case "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
}

func newStyles(w io.Writer) *Styles {
	lr := lipgloss.NewRenderer(w)
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
		Key:     lr.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Renderer writes results in the effective output mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(out),
	}
}

// EffectiveMode resolves auto to text or markdown.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Styles returns the text mode styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a level 1 or 2 header.
func (r *Renderer) Header(level int, s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, s))
		r.Println("")
		return
	}
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(s))
}

// Muted writes secondary text.
func (r *Renderer) Muted(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("_" + s + "_")
		return
	}
	r.Println(r.styles.Muted.Render(s))
}

// Success writes a success line.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(s)
		return
	}
	r.Println(r.styles.Success.Render("✓ " + s))
}

// Warn writes a message to the error output.
func (r *Renderer) Warn(s string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(s))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// KeyValues writes labelled values: bold keys in markdown, styled keys in text.
func (r *Renderer) KeyValues(pairs [][2]string) {
	for _, p := range pairs {
		if r.EffectiveMode() == ModeMarkdown {
			r.Println(FormatKeyValue(p[0], p[1]))
			continue
		}
		r.Printf("%s %s\n", r.styles.Key.Render(p[0]+":"), p[1])
	}
}

// Table writes rows under header as a light table (text) or a markdown table.
func (r *Renderer) Table(header []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// Records writes nested records: JSON keeps the tree, text and markdown
// list every record depth first with its table alias indented by depth.
func (r *Renderer) Records(records []*query.Record) error {
	if r.EffectiveMode() == ModeJSON {
		if records == nil {
			records = []*query.Record{}
		}
		return r.JSON(records)
	}
	if len(records) == 0 {
		r.Muted("(0 records)")
		return nil
	}

	var rows [][]any
	for i, rec := range records {
		rows = appendRecordRows(rows, fmt.Sprint(i+1), "", 0, rec)
	}
	r.Table([]string{"#", "table", "fields"}, rows)
	r.Muted(fmt.Sprintf("(%d records)", len(records)))
	return nil
}

func appendRecordRows(rows [][]any, number, alias string, depth int, rec *query.Record) [][]any {
	label := alias
	if depth > 0 {
		label = strings.Repeat("  ", depth-1) + "└ " + alias
	}
	rows = append(rows, []any{number, label, FormatFields(rec.Fields)})
	for _, c := range rec.Children {
		for _, child := range c.Records {
			rows = appendRecordRows(rows, "", c.Alias, depth+1, child)
		}
	}
	return rows
}
