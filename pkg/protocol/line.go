// Package protocol implements the line framing and account records of the
// chat wire protocol.
package protocol

import "strings"

// Terminator ends every line on the wire.
const Terminator = '\n'

// Sanitize strips every newline from text so that user input cannot break
// line framing.
func Sanitize(text string) string {
	return strings.ReplaceAll(text, "\n", "")
}

// Line frames text as a single wire line.
func Line(text string) []byte {
	return []byte(text + "\n")
}

// Submission frames a chat message: the sanitized text followed by an empty
// line, which ends the submission.
func Submission(message string) []byte {
	return []byte(Sanitize(message) + "\n\n")
}

// Trim drops the line terminator (and a preceding carriage return) for logging.
func Trim(line []byte) string {
	return strings.TrimRight(string(line), "\r\n")
}
