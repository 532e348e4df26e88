// Package report renders site reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal, optionally colored
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with tables and a mermaid chart of score points
//
// Writers implement the Writer interface, so they can be used interchangeably
// and composed with MultiWriter. Write renders one site; WriteBatch renders a
// whole run followed by a summary.
package report
