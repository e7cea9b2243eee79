// Package trace records the notifications a listener run fired.
//
// Events are the unit of record. Their values are stored as canonical JSON
// (sorted keys, NFC strings, no HTML escaping) so that identical runs
// produce byte-identical traces.
//
// Two sinks exist:
//   - Log, a SQLite database holding many runs, queried by the CLI
//   - Capture files, a CBOR stream of one run for offline inspection
package trace
