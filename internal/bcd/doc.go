// Package bcd locates and mutates entries in the Windows Boot Configuration
// Data store.
//
// bcdedit offers no machine-readable output, so entries are found by folding
// over the lines of "bcdedit /enum all /v": an "identifier" line opens a
// block and every following line belongs to it until the next identifier.
// The matchers are pure functions of that text and never fail; "not found"
// is an ordinary result.
//
// The labels recognised ("identifier", "device", "osdevice", "vhd=",
// "partition=") are those of the default English output. Localized output
// does not match and is reported as not found.
//
// Client builds the bcdedit/bcdboot invocations and hands them to an
// execx.Runner with elevation. It does not interpret exit codes and does not
// serialize concurrent mutations of the same entry.
package bcd
