// Package report defines the binary size report consumed by sizemap.
//
// A report is produced by an external analysis engine and describes how the
// bytes of one compiled binary are spread over sections, packages, files and
// symbols. Declared sizes are upper bounds: a parent may declare more bytes
// than its children account for.
//
// # Trust Boundary
//
// Reports are decoded strictly. Every required field must be present, every
// enum must hold a known value, and every size must fit an unsigned 64-bit
// integer. A report that fails any check is rejected with an
// errors.ErrCodeInvalidReport error naming the offending field, before any
// entry tree is built:
//
//	r, err := report.ReadFile("bin.json")
//	if errors.Is(err, errors.ErrCodeInvalidReport) {
//	    // malformed input
//	}
//
// # Records
//
// [Section], [File], [FileSymbol], [Package] and [Result] all implement
// [Record], a closed sum type. [Classify] maps a record to its [Kind] so
// callers switch on a tag instead of probing field shapes.
//
// # Serialization
//
//	r, _ := report.ReadFile("bin.json")     // File → Result
//	r, _ := report.Parse(data)              // []byte → Result
//	data, _ := report.Marshal(r)            // Result → []byte
//	report.WriteFile(r, "copy.json")        // Result → File
package report
