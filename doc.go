// Package blackbox decodes flight-controller blackbox logs: a packed,
// per-frame-delta-encoded byte stream produced by an embedded flight
// controller, into a dense table of reconstructed sensor values, one
// row per logged control-loop iteration.
//
// The package supports:
//   - Locating one or more logs concatenated in a single byte buffer
//   - Parsing the ASCII header prologue into a field schema and system
//     configuration
//   - Decoding I/P (main), G (GPS), H (GPS home), S (slow telemetry),
//     and E (event) frames, including predictor reconstruction,
//     timestamp rollover, and corrupt-frame resynchronisation
//   - Raw-mode decoding (predictors disabled) for diagnostic use
//
// Basic usage for decoding:
//
//	f, err := blackbox.Open(data)
//	log, err := f.Decode(0, false)
package blackbox
