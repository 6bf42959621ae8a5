package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/bootspace/internal/bcd"
	"github.com/danieljhkim/bootspace/internal/clock"
	"github.com/danieljhkim/bootspace/internal/config"
	"github.com/danieljhkim/bootspace/internal/execx"
	"github.com/danieljhkim/bootspace/internal/fsops"
	"github.com/danieljhkim/bootspace/internal/metastore"
	"github.com/danieljhkim/bootspace/internal/recents"
	"github.com/danieljhkim/bootspace/internal/root"
	"github.com/danieljhkim/bootspace/internal/workspace"
)

const enumFixture = `Windows Boot Loader
-------------------
identifier              {current}
device                  partition=C:
description             Windows 11

Windows Boot Loader
-------------------
identifier              {2f1c4a3e-8a8b-4f6e-9d3c-1b2a3c4d5e6f}
device                  vhd=[D:]\lab\nodes\base.vhdx,locate=custom:12000002
description             lab base
osdevice                vhd=[D:]\lab\nodes\base.vhdx,locate=custom:22000002
`

func TestOpenCommand(t *testing.T) {
	setupTestEnv(t)
	rootPath := filepath.Join(t.TempDir(), "lab")

	out, err := execute(t, "open", rootPath, "--locale", "fr-FR", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var settings metastore.Settings
	decodeJSON(t, out, &settings)
	if settings.Locale != "fr-FR" {
		t.Errorf("Locale = %q, want fr-FR", settings.Locale)
	}
	if settings.RootPath != rootPath {
		t.Errorf("RootPath = %q, want %q", settings.RootPath, rootPath)
	}

	for _, dir := range []string{config.MetaDirName, config.LogsDirName, config.NodesDirName} {
		if _, err := os.Stat(filepath.Join(rootPath, dir)); err != nil {
			t.Errorf("expected %s directory: %v", dir, err)
		}
	}
	if _, err := os.Stat(config.StateDBPath(rootPath)); err != nil {
		t.Errorf("expected state database: %v", err)
	}
}

func TestOpenCommand_ConfigDefaultLocale(t *testing.T) {
	dataDir, _ := setupTestEnv(t)
	if err := os.WriteFile(config.ConfigPath(dataDir), []byte("default_locale: de-DE\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "open", filepath.Join(t.TempDir(), "lab"), "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var settings metastore.Settings
	decodeJSON(t, out, &settings)
	if settings.Locale != "de-DE" {
		t.Errorf("Locale = %q, want de-DE", settings.Locale)
	}
}

func TestOpenCommand_FailureIsRecorded(t *testing.T) {
	setupTestEnv(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "open", blocker); err == nil {
		t.Fatal("expected error opening a regular file as a workspace")
	}

	out, err := execute(t, "recents", "ls", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var items []recents.RecentWorkspace
	decodeJSON(t, out, &items)
	if len(items) != 1 {
		t.Fatalf("got %d recents, want 1", len(items))
	}
	// The blocker exists but has no state database.
	if items[0].LastStatus != recents.StatusMissingStateDB {
		t.Errorf("LastStatus = %q, want %q", items[0].LastStatus, recents.StatusMissingStateDB)
	}
}

func TestSettingsCommand(t *testing.T) {
	setupTestEnv(t)

	t.Run("no workspace", func(t *testing.T) {
		_, err := execute(t, "settings")
		if !errors.Is(err, ErrNoWorkspace) {
			t.Errorf("error = %v, want ErrNoWorkspace", err)
		}
	})

	rootPath := filepath.Join(t.TempDir(), "lab")
	if _, err := execute(t, "open", rootPath, "--locale", "ja-JP"); err != nil {
		t.Fatalf("open error = %v", err)
	}

	t.Run("falls back to most recent workspace", func(t *testing.T) {
		out, err := execute(t, "settings", "--json")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		var settings metastore.Settings
		decodeJSON(t, out, &settings)
		if settings.RootPath != rootPath || settings.Locale != "ja-JP" {
			t.Errorf("settings = %+v", settings)
		}
	})

	t.Run("explicit root", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other")
		out, err := execute(t, "settings", "--root", other, "--json")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		var settings metastore.Settings
		decodeJSON(t, out, &settings)
		if settings.RootPath != other || settings.Locale != metastore.DefaultLocale {
			t.Errorf("settings = %+v", settings)
		}
	})
}

func TestRecentsCommands(t *testing.T) {
	setupTestEnv(t)
	first := filepath.Join(t.TempDir(), "first")
	second := filepath.Join(t.TempDir(), "second")

	for _, p := range []string{first, second} {
		if _, err := execute(t, "open", p); err != nil {
			t.Fatalf("open %s error = %v", p, err)
		}
	}

	list := func(t *testing.T) []recents.RecentWorkspace {
		t.Helper()
		out, err := execute(t, "recents", "ls", "--json")
		if err != nil {
			t.Fatalf("recents ls error = %v", err)
		}
		var items []recents.RecentWorkspace
		decodeJSON(t, out, &items)
		return items
	}

	items := list(t)
	if len(items) != 2 {
		t.Fatalf("got %d recents, want 2", len(items))
	}
	for _, item := range items {
		if item.LastStatus != recents.StatusOK {
			t.Errorf("%s status = %q, want ok", item.Path, item.LastStatus)
		}
	}

	if _, err := execute(t, "recents", "pin", first); err != nil {
		t.Fatalf("pin error = %v", err)
	}
	items = list(t)
	if items[0].Path != first || !items[0].Pinned {
		t.Errorf("pinned workspace should sort first, got %+v", items[0])
	}

	if _, err := execute(t, "recents", "unpin", first); err != nil {
		t.Fatalf("unpin error = %v", err)
	}
	if items = list(t); items[0].Pinned || items[1].Pinned {
		t.Error("expected no pinned workspaces after unpin")
	}

	if _, err := execute(t, "recents", "rm", second); err != nil {
		t.Fatalf("rm error = %v", err)
	}
	if items = list(t); len(items) != 1 || items[0].Path != first {
		t.Errorf("after rm got %+v", items)
	}

	if _, err := execute(t, "recents", "clear"); err != nil {
		t.Fatalf("clear error = %v", err)
	}
	if items = list(t); len(items) != 0 {
		t.Errorf("after clear got %d recents", len(items))
	}
}

func TestRecentsPin_UnknownPath(t *testing.T) {
	setupTestEnv(t)

	out, err := execute(t, "recents", "pin", `Z:\nowhere`, "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var got map[string]interface{}
	decodeJSON(t, out, &got)
	if got["found"] != false {
		t.Errorf("found = %v, want false", got["found"])
	}
}

func TestBcdFindCommand(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{Stdout: enumFixture})

	tests := []struct {
		name      string
		args      []string
		wantFound bool
		wantID    string
	}{
		{"by vhd", []string{"--vhd", `d:/lab/nodes/BASE.vhdx`}, true, "{2f1c4a3e-8a8b-4f6e-9d3c-1b2a3c4d5e6f}"},
		{"by letter", []string{"--letter", "c:"}, true, "{current}"},
		{"missing vhd", []string{"--vhd", `D:\nope.vhdx`}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"bcd", "find", "--json"}, tt.args...)...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			var got bcdResult
			decodeJSON(t, out, &got)
			if got.Found != tt.wantFound || got.Identifier != tt.wantID {
				t.Errorf("got %+v, want found=%v id=%q", got, tt.wantFound, tt.wantID)
			}
		})
	}

	t.Run("requires exactly one selector", func(t *testing.T) {
		if _, err := execute(t, "bcd", "find"); err == nil {
			t.Error("expected error without --vhd or --letter")
		}
		if _, err := execute(t, "bcd", "find", "--vhd", "x", "--letter", "C"); err == nil {
			t.Error("expected error with both --vhd and --letter")
		}
	})
}

func TestBcdLsCommand(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{Stdout: enumFixture})

	out, err := execute(t, "bcd", "ls", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var entries []bcd.Entry
	decodeJSON(t, out, &entries)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].Description != "lab base" {
		t.Errorf("Description = %q", entries[1].Description)
	}
}

func TestBcdRegisterCommand(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{Stdout: enumFixture})

	out, err := execute(t, "bcd", "register", "--system-dir", `V:\`, "--vhd", `D:\lab\nodes\base.vhdx`, "--description", "lab", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var got bcdResult
	decodeJSON(t, out, &got)
	if !got.Found || got.Identifier != "{2f1c4a3e-8a8b-4f6e-9d3c-1b2a3c4d5e6f}" {
		t.Errorf("got %+v", got)
	}

	calls := fake.Calls()
	if len(calls) != 3 {
		t.Fatalf("got %d tool calls, want 3", len(calls))
	}
	if calls[0].Name != "bcdboot" || calls[0].Args[0] != `V:\Windows` {
		t.Errorf("first call = %s", calls[0])
	}
	if !calls[2].Elevated {
		t.Error("boot store edits must run elevated")
	}

	if _, err := execute(t, "bcd", "register", "--vhd", "x"); err == nil {
		t.Error("expected error without --system-dir")
	}
}

func TestBcdDeleteCommand(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{Stdout: enumFixture})

	for _, tt := range []struct {
		vhd  string
		want bool
	}{
		{`D:\lab\nodes\base.vhdx`, true},
		{`D:\nope.vhdx`, false},
	} {
		out, err := execute(t, "bcd", "delete", "--vhd", tt.vhd, "--json")
		if err != nil {
			t.Fatalf("delete %s error = %v", tt.vhd, err)
		}
		var got map[string]interface{}
		decodeJSON(t, out, &got)
		if got["deleted"] != tt.want {
			t.Errorf("delete %s = %v, want %v", tt.vhd, got["deleted"], tt.want)
		}
	}
}

func TestBcdBootNextCommand(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{Stdout: enumFixture})

	if _, err := execute(t, "bcd", "boot-next", "--vhd", `D:\nope.vhdx`); !errors.Is(err, workspace.ErrNoBootEntry) {
		t.Errorf("error = %v, want ErrNoBootEntry", err)
	}

	if _, err := execute(t, "bcd", "boot-next", "--vhd", `D:\lab\nodes\base.vhdx`, "--reboot"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	calls := fake.Calls()
	last := calls[len(calls)-1]
	if last.Name != "shutdown" {
		t.Errorf("last call = %s, want shutdown", last)
	}
}

func TestBcdCommand_ToolFailure(t *testing.T) {
	_, fake := setupTestEnv(t)
	fake.Respond("bcdedit", "/enum", execx.Output{ExitCode: 1, Stderr: "The boot configuration data store could not be opened."})

	_, err := execute(t, "bcd", "describe", "--vhd", `D:\lab\nodes\base.vhdx`, "renamed")
	var toolErr *execx.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v, want *execx.ToolError", err)
	}
}

func TestAdminCommand(t *testing.T) {
	setupTestEnv(t)

	out, err := execute(t, "admin", "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var got map[string]bool
	decodeJSON(t, out, &got)
	if _, ok := got["elevated"]; !ok {
		t.Errorf("output missing elevated: %v", got)
	}
}

func TestParseDriveLetter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"C", 'C', false},
		{"c:", 'c', false},
		{"Z:", 'Z', false},
		{"7", 0, true},
		{"é", 0, true},
		{"CD", 0, true},
		{":", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDriveLetter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDriveLetter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDriveLetter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBcdFindCommand_RejectsNonLetter(t *testing.T) {
	_, fake := setupTestEnv(t)

	for _, letter := range []string{"7", "é"} {
		if _, err := execute(t, "bcd", "find", "--letter", letter); err == nil {
			t.Errorf("expected error for --letter %q", letter)
		}
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("got %d tool calls, want none", n)
	}
}

// readOnlyFS reads from disk but refuses every write.
type readOnlyFS struct {
	*fsops.RealFS
}

func (readOnlyFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	return fmt.Errorf("write %s: read-only", path)
}

func TestResolveRoot_ToleratesUnwritableLedger(t *testing.T) {
	setupTestEnv(t)

	live := filepath.Join(t.TempDir(), "lab")
	if err := os.MkdirAll(filepath.Join(live, config.MetaDirName), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.StateDBPath(live), nil, 0644); err != nil {
		t.Fatal(err)
	}
	gone := filepath.Join(t.TempDir(), "gone")

	// The vanished root changes status on List, so the write-back fails.
	ledgerPath := filepath.Join(t.TempDir(), "recents.json")
	seed := []recents.RecentWorkspace{
		{Path: gone, LastOpenedAt: time.Now(), LastStatus: recents.StatusOK},
		{Path: live, LastOpenedAt: time.Now().Add(-time.Hour), LastStatus: recents.StatusOK},
	}
	data, err := json.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ledgerPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	ledger := recents.New(readOnlyFS{fsops.NewRealFS()}, ledgerPath, clock.System{})
	a := &app{svc: workspace.New(root.NewDefault(), ledger, nil, nil)}

	got, err := a.resolveRoot("")
	if err != nil {
		t.Fatalf("resolveRoot() error = %v", err)
	}
	if got != live {
		t.Errorf("resolveRoot() = %q, want %q", got, live)
	}
}
