package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a store path: a leading ~ becomes the home
// directory, and ${HOME}, ${USER} and ${XDG_DATA_HOME} are substituted.
// An unset XDG_DATA_HOME falls back to ~/.local/share.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}

	p = strings.NewReplacer(
		"${XDG_DATA_HOME}", dataHome(),
		"${HOME}", homeDir(),
		"${USER}", userName(),
	).Replace(p)

	switch {
	case p == "~":
		return homeDir()
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "~"
}

func userName() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return "user"
}

func dataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}
	return filepath.Join(homeDir(), ".local", "share")
}
