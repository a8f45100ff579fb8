// Package report renders credential sheets into distributable documents.
//
// The core of the package is Generator, which lays student credentials out
// as a paginated PDF table: a banner on the first page, seven fixed
// columns, the column header repeated on every page, ellipsis truncation
// for long values and a closing instructions block.
//
// Writers wrap the different output formats behind one interface:
//   - PDFWriter: the printable handout
//   - MarkdownWriter: GitHub-flavored Markdown
//   - JSONWriter: structured output for other tools
//   - SimpleWriter: a plain text table for terminals
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
