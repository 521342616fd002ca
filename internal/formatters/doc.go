// Package formatters groups the exporters that render an export bundle.
//
//   - markdown: GitHub-flavoured markdown (requirement sections, tables)
//   - spreadsheet: .xlsx workbooks in the import column order
//   - workspace: block-structured pages for collaborative workspaces
//
// Every formatter is a pure function of the bundle and its style: the same
// input always renders byte-identical output.
package formatters
