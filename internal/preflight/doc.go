// Package preflight provides readiness checks for the external tools,
// services and filesystem paths that lingosub depends on.
//
// These checks run in two contexts:
//   - The daemon reports them through GET /api/status.
//   - The CLI "lingosub check" command prints them as a table.
//
// The translation engine check only contacts the configured provider.
package preflight
