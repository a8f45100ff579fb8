package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/careernest/credsheet/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs credential sheets as GitHub-flavored Markdown,
// for pasting into an internal wiki or ticket that is access-restricted.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the sheet in Markdown format.
func (w *MarkdownWriter) Write(sheet *model.CredentialSheet) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, sheet)
	w.writeTable(md, sheet)
	w.writeInstructions(md)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title, organization and confidentiality alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, sheet *model.CredentialSheet) {
	md.H1(ProductName + " - " + DefaultTitle)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Organization", sheet.OrganizationName},
			{"Generated", sheet.GeneratedAt.Format(TimestampLayout)},
			{"Students", fmt.Sprintf("%d", sheet.Len())},
		},
	})
	md.PlainText("")

	md.Cautionf("%s", ConfidentialityNotice)
	md.PlainText("")
}

// writeTable writes the credentials table.
func (w *MarkdownWriter) writeTable(md *markdown.Markdown, sheet *model.CredentialSheet) {
	md.H2("Credentials")
	md.PlainText("")

	if sheet.Len() == 0 {
		md.PlainText("No students on this sheet.")
		md.PlainText("")
		return
	}

	rows := make([][]string, sheet.Len())
	for i, rec := range sheet.Records {
		cells := rec.Cells(i)
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = escapeCell(c)
		}
		// Passwords are shown as code so that look-alike characters are distinguishable.
		if row[4] != "" {
			row[4] = codeSpan(row[4])
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: ColumnTitles[:],
		Rows:   rows,
	})
	md.PlainText("")
}

// writeInstructions writes the numbered instructions list.
func (w *MarkdownWriter) writeInstructions(md *markdown.Markdown) {
	md.H2(InstructionsHeading)
	md.PlainText("")
	md.OrderedList(Instructions...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by %s credsheet*", ProductName)
}

// escapeCell keeps a value from breaking the table syntax.
func escapeCell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '|':
			out = append(out, '\\', '|')
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// codeSpan wraps s in a backtick fence longer than any backtick run inside
// it. Values touching the fence are padded with a space.
func codeSpan(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}

	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		s = " " + s + " "
	}
	return fence + s + fence
}
