package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/careernest/credsheet/internal/model"
	"github.com/go-pdf/fpdf"
)

// Page geometry in PDF points. The page is A4 rounded to whole points.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	pageMargin = 40.0

	// contentWidth is the usable width between the side margins.
	contentWidth = pageWidth - 2*pageMargin
)

// Vertical layout constants.
const (
	bannerHeight = 60.0

	// tableTop is where the column header row starts on the first page.
	tableTop = 150.0

	// headerRowHeight covers the column titles, the rule and the gap below it.
	headerRowHeight = 20.0

	// headerRuleOffset is the distance from the header text top to the rule.
	headerRuleOffset = 13.0

	rowHeight = 14.0

	// footerReserve is kept free at the bottom of every page; a row whose
	// cursor lies below pageHeight-footerReserve moves to the next page.
	footerReserve = 60.0

	// minFooterSpace is the least free space required before the
	// instructions block is placed on the current page.
	minFooterSpace = 60.0

	instructionsGap          = 10.0
	instructionsHeadingSpace = 16.0
	instructionLineHeight    = 12.0

	// cellPadding is left empty at the right edge of every cell.
	cellPadding = 2.0

	// textBaseline converts a cursor (top of line) to a text baseline.
	textBaseline = 8.0
)

// Font sizes.
const (
	bannerTitleSize    = 20.0
	bannerSubtitleSize = 10.0
	orgSize            = 12.0
	metaSize           = 9.0
	columnHeaderSize   = 9.0
	rowSize            = 8.0
	instructionsSize   = 9.0
	instructionsHdSize = 11.0
)

// Ellipsis marks text cut to fit its column.
const Ellipsis = "..."

// TimestampLayout is the format of the generation time printed in the header.
// The time is rendered in the generator's local time zone.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// DefaultTitle is the report title printed in the banner.
const DefaultTitle = "Student Login Credentials"

// ProductName is printed in the banner and recorded as document creator.
const ProductName = "Career Nest"

// ConfidentialityNotice is printed under the header in the warning colour.
const ConfidentialityNotice = "CONFIDENTIAL: Contains student login credentials. Distribute securely."

// InstructionsHeading introduces the instructions block.
const InstructionsHeading = "Instructions:"

// Instructions are printed, numbered, after the last row.
var Instructions = []string{
	"Share these credentials securely with each student, individually.",
	"Students log in with their email address and the temporary password above.",
	"Students must change their password immediately after the first login.",
	"Keep this document confidential and destroy it after distribution.",
	"Default password format: {RollNumber}" + model.DefaultPasswordSuffix,
}

// ColumnTitles are the table header cells, in column order.
var ColumnTitles = [model.ColumnCount]string{"#", "Name", "Email", "Roll No.", "Password", "Course", "Year"}

// columnX holds the fixed left edge of each column.
var columnX = [model.ColumnCount]float64{40, 65, 210, 360, 430, 500, 560}

// columnWidth holds the fixed width of each column.
var columnWidth = [model.ColumnCount]float64{20, 135, 150, 60, 60, 60, 40}

type rgb struct{ r, g, b int }

var (
	colorBrand   = rgb{79, 70, 229}
	colorWhite   = rgb{255, 255, 255}
	colorText    = rgb{31, 41, 55}
	colorMuted   = rgb{107, 114, 128}
	colorWarning = rgb{220, 38, 38}
	colorRule    = rgb{209, 213, 219}
)

// ErrStreamWrite is wrapped by every error raised while building or
// serializing a PDF document.
var ErrStreamWrite = errors.New("failed to write PDF document stream")

// Document is a rendered credential report together with layout facts
// collected while drawing it.
type Document struct {
	// Data is the complete PDF file.
	Data []byte

	// GeneratedAt is the instant printed in the header.
	GeneratedAt time.Time

	// OrganizationName is the name printed in the header.
	OrganizationName string

	// Rows holds the resolved cells of every data row in output order,
	// before truncation.
	Rows [][model.ColumnCount]string

	// Pages describes what was drawn on each page.
	Pages []PageLayout
}

// PageLayout records the content of one page.
type PageLayout struct {
	// Number is the 1-based page number.
	Number int

	// Banner is true when the header banner was drawn on the page.
	Banner bool

	// ColumnHeaderBeforeRows is true when the column header row was drawn
	// before the page's first data row.
	ColumnHeaderBeforeRows bool

	// FirstRow is the 0-based index of the first data row on the page,
	// or -1 if the page has none.
	FirstRow int

	// RowCount is the number of data rows on the page.
	RowCount int

	// Instructions is true when the instructions block was drawn on the page.
	Instructions bool
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Generator renders credential records into a paginated PDF table.
// A Generator holds only configuration; each call allocates its own
// drawing state, so one Generator may be used from many goroutines.
type Generator struct {
	clock      func() time.Time
	compress   bool
	title      string
	fontFamily string
	logger     *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock sets the time source used for the header timestamp.
func WithClock(clock func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithCompression toggles compression of page content streams.
// Compression is on by default.
func WithCompression(compress bool) GeneratorOption {
	return func(g *Generator) {
		g.compress = compress
	}
}

// WithTitle sets the report title printed in the banner.
func WithTitle(title string) GeneratorOption {
	return func(g *Generator) {
		if title != "" {
			g.title = title
		}
	}
}

// WithFontFamily selects one of the PDF core font families
// ("Helvetica", "Times" or "Courier").
func WithFontFamily(family string) GeneratorOption {
	return func(g *Generator) {
		if family != "" {
			g.fontFamily = family
		}
	}
}

// WithGeneratorLogger sets the logger used for debug output.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		clock:      time.Now,
		compress:   true,
		title:      DefaultTitle,
		fontFamily: "Helvetica",
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}

	return g
}

// Generate renders records for the named organization and returns the PDF
// bytes. An empty organization name is replaced by
// model.DefaultOrganizationName. On failure no bytes are returned and the
// error wraps ErrStreamWrite.
func (g *Generator) Generate(records []model.CredentialRecord, organizationName string) ([]byte, error) {
	doc, err := g.GenerateDocument(records, organizationName)
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// GenerateDocument is like Generate but also returns the layout facts.
func (g *Generator) GenerateDocument(records []model.CredentialRecord, organizationName string) (*Document, error) {
	now := g.clock()
	org := model.OrganizationOrDefault(organizationName)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(g.compress)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle(g.title, true)
	pdf.SetSubject(org, true)
	pdf.SetCreator(ProductName, true)

	l := &layout{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: g.fontFamily,
	}

	l.addPage()
	l.drawBanner(g.title, org, now)
	l.y = tableTop
	l.drawColumnHeader()

	rows := make([][model.ColumnCount]string, 0, len(records))
	for i, rec := range records {
		cells := rec.Cells(i)
		if l.y > pageHeight-footerReserve {
			l.addPage()
			l.y = pageMargin
			l.drawColumnHeader()
		}
		l.drawRow(i, cells)
		rows = append(rows, cells)
	}

	l.drawInstructions()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamWrite, err)
	}

	g.logger.Debug("credential report rendered",
		"organization", org,
		"rows", len(rows),
		"pages", len(l.pages),
		"bytes", buf.Len(),
	)

	return &Document{
		Data:             buf.Bytes(),
		GeneratedAt:      now,
		OrganizationName: org,
		Rows:             rows,
		Pages:            l.pages,
	}, nil
}

// layout carries the drawing state of a single Generate call.
type layout struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string

	// y is the vertical cursor: the top of the next line to draw.
	y float64

	pages []PageLayout
}

func (l *layout) current() *PageLayout {
	return &l.pages[len(l.pages)-1]
}

func (l *layout) addPage() {
	l.pdf.AddPage()
	l.pages = append(l.pages, PageLayout{Number: len(l.pages) + 1, FirstRow: -1})
}

func (l *layout) setColor(c rgb) {
	l.pdf.SetTextColor(c.r, c.g, c.b)
}

func (l *layout) text(x, y float64, s string) {
	l.pdf.Text(x, y+textBaseline, l.tr(s))
}

// drawBanner draws the coloured banner and the header block of page one.
func (l *layout) drawBanner(title, org string, now time.Time) {
	l.pdf.SetFillColor(colorBrand.r, colorBrand.g, colorBrand.b)
	l.pdf.Rect(0, 0, pageWidth, bannerHeight, "F")

	l.setColor(colorWhite)
	l.pdf.SetFont(l.family, "B", bannerTitleSize)
	l.text(pageMargin, 16, ProductName)
	l.pdf.SetFont(l.family, "", bannerSubtitleSize)
	l.text(pageMargin, 38, title)

	l.setColor(colorText)
	l.pdf.SetFont(l.family, "B", orgSize)
	l.text(pageMargin, 78, "Organization: "+org)

	l.setColor(colorMuted)
	l.pdf.SetFont(l.family, "", metaSize)
	l.text(pageMargin, 96, "Generated: "+now.Format(TimestampLayout))

	l.setColor(colorWarning)
	l.pdf.SetFont(l.family, "B", metaSize)
	l.text(pageMargin, 114, l.fit(ConfidentialityNotice, contentWidth))

	l.current().Banner = true
}

// drawColumnHeader draws the column titles and separator rule at the cursor.
func (l *layout) drawColumnHeader() {
	l.setColor(colorBrand)
	l.pdf.SetFont(l.family, "B", columnHeaderSize)
	for i, title := range ColumnTitles {
		l.text(columnX[i], l.y, l.fit(title, columnWidth[i]))
	}

	l.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	l.pdf.SetLineWidth(0.5)
	l.pdf.Line(pageMargin, l.y+headerRuleOffset, pageWidth-pageMargin, l.y+headerRuleOffset)

	l.y += headerRowHeight

	page := l.current()
	if page.RowCount == 0 {
		page.ColumnHeaderBeforeRows = true
	}
}

// drawRow draws one data row at the cursor and advances it.
func (l *layout) drawRow(index int, cells [model.ColumnCount]string) {
	l.setColor(colorText)
	l.pdf.SetFont(l.family, "", rowSize)
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		l.text(columnX[i], l.y, l.fit(cell, columnWidth[i]))
	}
	l.y += rowHeight

	page := l.current()
	if page.RowCount == 0 {
		page.FirstRow = index
	}
	page.RowCount++
}

// drawInstructions draws the closing instructions block, moving to a new
// page first when the current one lacks room.
func (l *layout) drawInstructions() {
	l.y += instructionsGap

	need := instructionsHeadingSpace + float64(len(Instructions))*instructionLineHeight
	if pageHeight-pageMargin-l.y < max(minFooterSpace, need) {
		l.addPage()
		l.y = pageMargin
	}

	l.setColor(colorText)
	l.pdf.SetFont(l.family, "B", instructionsHdSize)
	l.text(pageMargin, l.y, InstructionsHeading)
	l.y += instructionsHeadingSpace

	l.pdf.SetFont(l.family, "", instructionsSize)
	for i, line := range Instructions {
		l.text(pageMargin, l.y, l.fit(fmt.Sprintf("%d. %s", i+1, line), contentWidth))
		l.y += instructionLineHeight
	}

	l.current().Instructions = true
}

// fit shortens s with a trailing Ellipsis so that it fits width at the
// current font. Text is never wrapped.
func (l *layout) fit(s string, width float64) string {
	return truncate(s, width-cellPadding, func(v string) float64 {
		return l.pdf.GetStringWidth(l.tr(v))
	})
}

// truncate returns s unchanged if measure(s) <= avail, otherwise the longest
// rune prefix of s followed by Ellipsis that fits. If not even the ellipsis
// fits, the empty string is returned.
func truncate(s string, avail float64, measure func(string) float64) string {
	if measure(s) <= avail {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := string(runes[:n]) + Ellipsis
		if measure(candidate) <= avail {
			return candidate
		}
	}
	if measure(Ellipsis) <= avail {
		return Ellipsis
	}
	return ""
}

// PDFWriter writes credential sheets as PDF documents.
type PDFWriter struct {
	baseWriter

	generator *Generator

	// last holds the layout facts of the most recent Write.
	last *Document
}

// NewPDFWriter creates a PDFWriter that outputs to the given writer.
func NewPDFWriter(output io.Writer, generator *Generator) *PDFWriter {
	if generator == nil {
		generator = NewGenerator()
	}
	return &PDFWriter{
		baseWriter: newBaseWriter(output),
		generator:  generator,
	}
}

// Write renders the sheet and copies the PDF to the output. Nothing is
// written to the output if rendering fails.
func (w *PDFWriter) Write(sheet *model.CredentialSheet) (int, error) {
	doc, err := w.generator.GenerateDocument(sheet.Records, sheet.OrganizationName)
	if err != nil {
		return 0, err
	}
	w.last = doc
	return w.output.Write(doc.Data)
}

// LastDocument returns the layout facts of the most recent successful Write,
// or nil.
func (w *PDFWriter) LastDocument() *Document {
	return w.last
}
