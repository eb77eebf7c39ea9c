package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPathsFor(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		configBase string
		dataBase   string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			configBase: "/home/me/.config",
			dataBase:   "/home/me/.local/share",
			wantConfig: "/xdg/config",
			wantData:   "/xdg/data",
		},
		{
			name:       "linux without xdg",
			goos:       "linux",
			env:        map[string]string{},
			configBase: "/home/me/.config",
			dataBase:   "/home/me/.local/share",
			wantConfig: "/home/me/.config",
			wantData:   "/home/me/.local/share",
		},
		{
			name:       "windows appdata",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`, "LOCALAPPDATA": `C:\Users\me\AppData\Local`},
			configBase: `C:\fallback\config`,
			dataBase:   `C:\fallback\data`,
			wantConfig: `C:\Users\me\AppData\Roaming`,
			wantData:   `C:\Users\me\AppData\Local`,
		},
		{
			name:       "darwin ignores xdg",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored", "XDG_DATA_HOME": "/ignored"},
			configBase: "/Users/me/Library/Application Support",
			dataBase:   "/Users/me/Library/Application Support",
			wantConfig: "/Users/me/Library/Application Support",
			wantData:   "/Users/me/Library/Application Support",
		},
		{
			name:       "other platforms use the given bases",
			goos:       "freebsd",
			env:        nil,
			configBase: "/cfg",
			dataBase:   "/data",
			wantConfig: "/cfg",
			wantData:   "/data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PathsFor(tt.goos, tt.env, tt.configBase, tt.dataBase, "famboard")
			if err != nil {
				t.Fatalf("PathsFor() error = %v", err)
			}
			want := Paths{
				ConfigPath: filepath.Join(tt.wantConfig, "famboard", "config.toml"),
				DataDir:    filepath.Join(tt.wantData, "famboard"),
				DBPath:     filepath.Join(tt.wantData, "famboard", "famboard.db"),
				LogDir:     filepath.Join(tt.wantData, "famboard", "log"),
			}
			if p != want {
				t.Fatalf("PathsFor() = %#v, want %#v", p, want)
			}
		})
	}
}

func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", "famboard"); !errors.Is(err, ErrNoBaseDir) {
		t.Fatalf("expected ErrNoBaseDir, got %v", err)
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", "  "); !errors.Is(err, ErrNoAppName) {
		t.Fatalf("expected ErrNoAppName, got %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	p, err := DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths() error = %v", err)
	}
	if p.ConfigPath == "" || p.DBPath == "" || p.DataDir == "" || p.LogDir == "" {
		t.Fatalf("expected non-empty paths, got %#v", p)
	}
	if filepath.Base(p.DBPath) != DefaultAppName+".db" {
		t.Fatalf("unexpected db name %q", p.DBPath)
	}
}

func TestDefaultPathsDevModeIsolated(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{AppName: " ", DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "famboard-dev" {
		t.Fatalf("expected dev config dir, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "famboard-dev.db" {
		t.Fatalf("expected dev db name, got %q", p.DBPath)
	}
}
