// Package responder delivers the answers requested by the turn processor.
//
// Template renders an answer id from the story's catalog with text/template
// against the current contexts and hands the text to a Sink. Recorder is a
// Sink that keeps every message in memory, used by the HTTP adapter to build
// turn responses and by tests.
package responder
