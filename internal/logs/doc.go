// Package logs reads the daemon log for the CLI.
//
// Last returns the final lines of a log file and Follow streams lines
// appended afterwards. Follow reopens the path on every poll so it keeps
// working when a daemon restart repoints the lingosubd.log link at a new
// file. Both accept a match string that restricts output to lines
// containing it, which is how `lingosub logs --project` narrows the stream
// to one project's events.
package logs
