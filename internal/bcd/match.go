package bcd

import (
	"bufio"
	"strings"
	"unicode"
)

// scanBlocks folds over text line by line, tracking the identifier of the
// block each line belongs to. visit receives the current identifier ("" before
// the first identifier line) and the raw line; returning true stops the scan.
func scanBlocks(text string, visit func(identifier, line string) bool) {
	current := ""
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if id, ok := identifierOf(line); ok {
			current = id
		}
		if visit(current, line) {
			return
		}
	}
}

// identifierOf returns the second whitespace-delimited token of a line that
// starts with "identifier" (case-insensitive).
func identifierOf(line string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(line), "identifier") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

// isDeviceLine reports whether line is a device or osdevice property.
func isDeviceLine(line string) bool {
	return strings.Contains(strings.ToLower(line), "device")
}

// vhdOf extracts the path following "vhd=" on a device line. Anything from
// the first comma on (",locate=custom:...") is discarded.
func vhdOf(line string) (string, bool) {
	if !isDeviceLine(line) {
		return "", false
	}
	head, _, _ := strings.Cut(line, ",")
	pos := strings.Index(strings.ToLower(head), "vhd=")
	if pos < 0 {
		return "", false
	}
	path := strings.TrimSpace(head[pos+len("vhd="):])
	if path == "" {
		return "", false
	}
	return path, true
}

// MatchByVhd returns the identifier of the first entry whose device or
// osdevice references vhdPath, comparing normalized paths. Device lines that
// precede every identifier line are ignored.
func MatchByVhd(text, vhdPath string) (string, bool) {
	needle := NormalizeVhdPath(vhdPath)
	var found string
	scanBlocks(text, func(identifier, line string) bool {
		if identifier == "" {
			return false
		}
		candidate, ok := vhdOf(line)
		if !ok || NormalizeVhdPath(candidate) != needle {
			return false
		}
		found = identifier
		return true
	})
	return found, found != ""
}

// MatchByPartitionLetter returns the identifier of the first entry whose
// device or osdevice is "partition=<letter>:". The letter is
// case-insensitive and bracketed qualifiers (partition=[C:]) are accepted.
func MatchByPartitionLetter(text string, letter rune) (string, bool) {
	needle := "partition=" + string(unicode.ToLower(letter)) + ":"
	var found string
	scanBlocks(text, func(identifier, line string) bool {
		if identifier == "" || !isDeviceLine(line) {
			return false
		}
		if !strings.Contains(strings.ToLower(bracketStripper.Replace(line)), needle) {
			return false
		}
		found = identifier
		return true
	})
	return found, found != ""
}
