package bcd

import (
	"strings"

	"github.com/google/uuid"
)

// Entry is the subset of a bcdedit block that bootspace cares about.
type Entry struct {
	Identifier  string `json:"identifier"`
	Description string `json:"description,omitempty"`
	Device      string `json:"device,omitempty"`
	OSDevice    string `json:"osdevice,omitempty"`
}

// Vhd returns the virtual-disk path the entry boots, preferring osdevice.
func (e Entry) Vhd() (string, bool) {
	if path, ok := vhdOf("osdevice " + e.OSDevice); ok {
		return path, true
	}
	return vhdOf("device " + e.Device)
}

// HasGUID reports whether the identifier is a braced GUID rather than a
// well-known alias such as {current} or {bootmgr}.
func (e Entry) HasGUID() bool {
	id := e.Identifier
	if len(id) < 2 || id[0] != '{' || id[len(id)-1] != '}' {
		return false
	}
	_, err := uuid.Parse(id[1 : len(id)-1])
	return err == nil
}

// ParseEntries splits enumeration text into entries, one per identifier
// line, in document order. Lines before the first identifier are dropped.
func ParseEntries(text string) []Entry {
	var entries []Entry
	last := ""
	scanBlocks(text, func(identifier, line string) bool {
		if identifier == "" {
			return false
		}
		if identifier != last || len(entries) == 0 {
			entries = append(entries, Entry{Identifier: identifier})
			last = identifier
		}
		e := &entries[len(entries)-1]

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return false
		}
		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		switch strings.ToLower(fields[0]) {
		case "description":
			e.Description = value
		case "device":
			e.Device = value
		case "osdevice":
			e.OSDevice = value
		}
		return false
	})
	return entries
}
