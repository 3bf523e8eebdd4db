// Package logfile loads a build log into memory as a slice of lines.
//
// The whole file is read before any analysis starts. Its text encoding is
// detected by trying, in order, UTF-8 (with an optional byte-order mark),
// Windows-1251 and CP866; the first candidate that decodes the bytes without
// producing replacement characters wins. Line terminators (LF or CRLF) are
// removed.
package logfile
