package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

const (
	appDirName     = "snapcap"
	configFileName = "config.yaml"
)

var userHomeDirFn = os.UserHomeDir

var percentVarPattern = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// LocatePath resolves the default config file. The base directory is the
// first of LOCALAPPDATA, APPDATA and ~/.config that resolves; os.TempDir is
// the last resort, in which case note explains the fallback for the user.
func LocatePath() (path, note string) {
	base := ""
	for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
		if base = strings.TrimSpace(os.Getenv(env)); base != "" {
			break
		}
	}
	if base == "" {
		if home, err := userHomeDirFn(); err == nil {
			base = filepath.Join(home, ".config")
		} else {
			base = os.TempDir()
			note = "no LOCALAPPDATA, APPDATA or home directory; settings live in the temp directory and may not persist"
			slog.Debug("[DEBUG-CONFIG] home directory lookup failed", "error", err)
		}
	}
	return filepath.Join(base, appDirName, configFileName), note
}

// DefaultPath is LocatePath without the note.
func DefaultPath() string {
	path, _ := LocatePath()
	return path
}

// DefaultDataDir holds the config file, logs and the history database.
func DefaultDataDir() string {
	return filepath.Dir(DefaultPath())
}

// absDir expands ~ and environment references in dir and returns the cleaned
// absolute path. Anything that does not end up absolute is dropped with a
// warning.
func absDir(field, dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(dir, "~"); ok {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[WARN-CONFIG] cannot expand ~, ignoring path", "field", field, "path", dir, "error", err)
			return ""
		}
		dir = filepath.Join(home, rest)
	}
	dir = filepath.Clean(expandEnvRefs(dir))
	if !filepath.IsAbs(dir) {
		slog.Warn("[WARN-CONFIG] path is not absolute, ignoring", "field", field, "path", dir)
		return ""
	}
	return dir
}

// expandEnvRefs replaces %VAR% everywhere and $VAR / ${VAR} outside Windows,
// where '$' is an ordinary path character. Unset variables stay verbatim.
func expandEnvRefs(s string) string {
	s = percentVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		if v, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
			return v
		}
		return ref
	})
	if runtime.GOOS == "windows" || !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
}
