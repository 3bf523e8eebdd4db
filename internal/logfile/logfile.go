package logfile

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/farcloser/primordium/fault"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrNotFound is returned when the log path does not exist.
	ErrNotFound = errors.New("log file not found")
	// ErrEncoding is returned when no candidate encoding can decode the log.
	ErrEncoding = errors.New("unsupported text encoding")
)

// Candidate is a text encoding tried during detection.
type Candidate struct {
	Name   string
	Decode func(data []byte) (string, bool)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UTF8 accepts valid UTF-8, dropping a leading byte-order mark.
var UTF8 = Candidate{
	Name: "utf-8",
	Decode: func(data []byte) (string, bool) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	},
}

// Windows1251 is the Cyrillic Windows code page.
var Windows1251 = charmapCandidate("windows-1251", charmap.Windows1251)

// CP866 is the Cyrillic DOS code page.
var CP866 = charmapCandidate("cp866", charmap.CodePage866)

// DefaultCandidates is the detection order used by Read.
var DefaultCandidates = []Candidate{UTF8, Windows1251, CP866}

func charmapCandidate(name string, cm *charmap.Charmap) Candidate {
	return Candidate{
		Name: name,
		Decode: func(data []byte) (string, bool) {
			out, err := cm.NewDecoder().Bytes(data)
			if err != nil {
				return "", false
			}
			// Bytes undefined in the code page come back as U+FFFD.
			if bytes.ContainsRune(out, utf8.RuneError) {
				return "", false
			}
			return string(out), true
		},
	}
}

// Log is a fully loaded build log.
type Log struct {
	Path     string
	Encoding string
	// Digest is the hex SHA-256 of the raw file bytes.
	Digest string
	Lines  []string
}

// Read loads the log at path using DefaultCandidates.
func Read(path string) (*Log, error) {
	return ReadWith(path, DefaultCandidates)
}

// ReadWith loads the log at path, trying candidates in order.
func ReadWith(path string, candidates []Candidate) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w: %w", path, fault.ErrReadFailure, err)
	}

	text, enc, err := Decode(data, candidates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Log{
		Path:     path,
		Encoding: enc,
		Digest:   fmt.Sprintf("%x", sha256.Sum256(data)),
		Lines:    SplitLines(text),
	}, nil
}

// Decode returns the text of data and the name of the first candidate that
// decoded it.
func Decode(data []byte, candidates []Candidate) (string, string, error) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if text, ok := c.Decode(data); ok {
			return text, c.Name, nil
		}
		names = append(names, c.Name)
	}
	return "", "", fmt.Errorf("%w: tried %s", ErrEncoding, strings.Join(names, ", "))
}

// SplitLines splits text on LF, dropping a trailing CR from each line. A
// final terminator does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
