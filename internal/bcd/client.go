package bcd

import (
	"context"
	"strings"

	"github.com/danieljhkim/bootspace/internal/execx"
)

// Tools names the executables Client invokes.
type Tools struct {
	Bcdedit string
	Bcdboot string
}

// DefaultTools resolves both tools through PATH.
func DefaultTools() Tools {
	return Tools{Bcdedit: "bcdedit", Bcdboot: "bcdboot"}
}

// Client issues boot store commands through a Runner. Every command runs
// elevated and targets the host's default store.
type Client struct {
	runner execx.Runner
	tools  Tools
}

// NewClient creates a new Client. Empty tool names fall back to DefaultTools.
func NewClient(runner execx.Runner, tools Tools) *Client {
	def := DefaultTools()
	if tools.Bcdedit == "" {
		tools.Bcdedit = def.Bcdedit
	}
	if tools.Bcdboot == "" {
		tools.Bcdboot = def.Bcdboot
	}
	return &Client{runner: runner, tools: tools}
}

// InstallBootFilesArgs returns the bcdboot argv for the Windows directory
// under systemDir. No /s or /f flags are passed, so the default store and
// firmware type are used.
func InstallBootFilesArgs(systemDir string) []string {
	dir := strings.TrimRight(strings.ReplaceAll(systemDir, "/", `\`), `\`)
	return []string{dir + `\Windows`, "/d"}
}

// EnumerateAllArgs returns the verbose enumerate-everything argv.
func EnumerateAllArgs() []string {
	return []string{"/enum", "all", "/v"}
}

// SetNextBootArgs returns the one-shot boot override argv.
func SetNextBootArgs(guid string) []string {
	return []string{"/bootsequence", guid}
}

// DeleteEntryArgs returns the argv deleting an entry.
func DeleteEntryArgs(guid string) []string {
	return []string{"/delete", guid}
}

// SetDescriptionArgs returns the argv renaming an entry.
func SetDescriptionArgs(guid, text string) []string {
	return []string{"/set", guid, "description", text}
}

// InstallBootFiles runs bcdboot for systemDir, creating a boot entry for it.
func (c *Client) InstallBootFiles(ctx context.Context, systemDir string) (*execx.Output, error) {
	return c.run(ctx, c.tools.Bcdboot, InstallBootFilesArgs(systemDir))
}

// EnumerateAll returns the raw verbose enumeration of every entry.
func (c *Client) EnumerateAll(ctx context.Context) (*execx.Output, error) {
	return c.run(ctx, c.tools.Bcdedit, EnumerateAllArgs())
}

// SetNextBoot makes guid the target of the next boot only.
func (c *Client) SetNextBoot(ctx context.Context, guid string) (*execx.Output, error) {
	return c.run(ctx, c.tools.Bcdedit, SetNextBootArgs(guid))
}

// DeleteEntry removes the entry guid.
func (c *Client) DeleteEntry(ctx context.Context, guid string) (*execx.Output, error) {
	return c.run(ctx, c.tools.Bcdedit, DeleteEntryArgs(guid))
}

// SetDescription sets the display name of entry guid.
func (c *Client) SetDescription(ctx context.Context, guid, text string) (*execx.Output, error) {
	return c.run(ctx, c.tools.Bcdedit, SetDescriptionArgs(guid, text))
}

// FindByVhd enumerates the store and returns the entry booting vhdPath.
// found is false, with a nil error, when no entry matches.
func (c *Client) FindByVhd(ctx context.Context, vhdPath string) (guid string, found bool, err error) {
	out, err := c.EnumerateAll(ctx)
	if err != nil {
		return "", false, err
	}
	guid, found = MatchByVhd(out.Stdout, vhdPath)
	return guid, found, nil
}

// FindByPartitionLetter enumerates the store and returns the entry whose
// device is the given drive letter.
func (c *Client) FindByPartitionLetter(ctx context.Context, letter rune) (guid string, found bool, err error) {
	out, err := c.EnumerateAll(ctx)
	if err != nil {
		return "", false, err
	}
	guid, found = MatchByPartitionLetter(out.Stdout, letter)
	return guid, found, nil
}

// Entries enumerates the store and parses every entry.
func (c *Client) Entries(ctx context.Context) ([]Entry, error) {
	out, err := c.EnumerateAll(ctx)
	if err != nil {
		return nil, err
	}
	return ParseEntries(out.Stdout), nil
}

func (c *Client) run(ctx context.Context, tool string, args []string) (*execx.Output, error) {
	return c.runner.Run(ctx, execx.Command{Name: tool, Args: args, Elevated: true})
}
