package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/services/stats"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	if raw, ok := data.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			buf.WriteByte('\n')
			_, _ = buf.WriteTo(o.w)
			return
		}
	}
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case model.User:
		o.printUser(v)
	case ListPage:
		o.printListPage(v)
	case *stats.View:
		o.printStats(v)
	default:
		// Records and unknown types print as JSON
		o.printJSON(data)
	}
}

// ListPage is one rendered page of a list module
type ListPage struct {
	Module  string     `json:"module"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	Total   int        `json:"total"`
	Columns []string   `json:"columns"`
	Rows    []ListItem `json:"rows"`
}

// ListItem is one row of a ListPage
type ListItem struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

func (o *Output) printUser(u model.User) {
	fmt.Fprintf(o.w, "ID:       %s\n", u.ID)
	fmt.Fprintf(o.w, "Username: %s\n", u.Username)
	fmt.Fprintf(o.w, "Email:    %s\n", u.Email)
	fmt.Fprintf(o.w, "Role:     %s\n", u.Role)
	if u.TotalScore != nil {
		fmt.Fprintf(o.w, "Score:    %d\n", *u.TotalScore)
	}
}

func (o *Output) printListPage(p ListPage) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", strings.Join(p.Columns, "\t"))
	for _, row := range p.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.ID, strings.Join(row.Cells, "\t"))
	}
	_ = tw.Flush()

	if len(p.Rows) == 0 {
		fmt.Fprintln(o.w, "(no rows)")
	}
	fmt.Fprintf(o.w, "Page %d, %d of %d %s\n", p.Page, len(p.Rows), p.Total, p.Module)
}

func (o *Output) printStats(v *stats.View) {
	for _, c := range v.Counters {
		fmt.Fprintf(o.w, "%-10s %d\n", c.Label+":", c.Value)
	}

	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, "Top players:")
	if len(v.Leaders) == 0 {
		fmt.Fprintf(o.w, "  %s\n", stats.EmptyLeaderboardText)
		return
	}
	for _, l := range v.Leaders {
		fmt.Fprintf(o.w, "  %d. %s (%d)\n", l.Rank, l.Username, l.Score)
	}
}
