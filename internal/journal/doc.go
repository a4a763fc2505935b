// Package journal decodes the game client's line-delimited event log.
//
// Each non-empty line is a self-contained JSON object carrying an "event"
// discriminator. Decoding never interprets the payload beyond that: callers
// read fields through typed accessors that report a field of the wrong type
// as absent, so a renamed or retyped field in a newer client degrades to
// "missing" instead of failing the whole record.
//
// THREAD-SAFETY:
// A Record is immutable after Decode and may be shared between goroutines.
package journal
