package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "famboard"

var (
	ErrNoBaseDir = errors.New("base directory is empty")
	ErrNoAppName = errors.New("app name is empty")
)

// Paths is where one famboard install keeps its config file, database and logs.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options picks the app name; DevMode keeps a development build apart from the family's real board.
type Options struct {
	AppName string
	DevMode bool
}

// overrideVars lists, per GOOS, the environment variables that relocate the config and data bases.
// Platforms not listed use the bases they are given.
var overrideVars = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running platform and process environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	configBase, dataBase, err := userBases(runtime.GOOS, os.Getenv)
	if err != nil {
		return Paths{}, err
	}
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return resolve(runtime.GOOS, os.Getenv, configBase, dataBase, name)
}

// PathsFor resolves paths for goos with env standing in for the process environment.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	lookup := func(key string) string { return env[key] }
	return resolve(goos, lookup, userConfigDir, userDataDir, appName)
}

// userBases returns the platform's default config and data bases. Linux keeps data under
// ~/.local/share rather than next to the config.
func userBases(goos string, getenv func(string) string) (string, string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("user config dir: %w", err)
	}
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("user home dir: %w", err)
		}
		return configBase, filepath.Join(home, ".local", "share"), nil
	case "windows":
		if local := strings.TrimSpace(getenv("LOCALAPPDATA")); local != "" {
			return configBase, local, nil
		}
	}
	return configBase, configBase, nil
}

func resolve(goos string, getenv func(string) string, configBase, dataBase, appName string) (Paths, error) {
	if configBase == "" || dataBase == "" {
		return Paths{}, ErrNoBaseDir
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, ErrNoAppName
	}
	if vars, ok := overrideVars[goos]; ok {
		if v := getenv(vars.config); v != "" {
			configBase = v
		}
		if v := getenv(vars.data); v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}
