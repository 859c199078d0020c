// Package config finds the directory tasktalk keeps its data in and reads its settings.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv relocates the data directory.
const HomeEnv = "TASKTALK_HOME"

const (
	defaultHomeDir = ".tasktalk"
	protectedDir   = "protected"
	sqliteFile     = "db.sqlite"
)

type homeKey struct{}

// WithHome returns ctx carrying the data directory picked for this command.
func WithHome(ctx context.Context, home string) context.Context {
	return context.WithValue(ctx, homeKey{}, home)
}

// HomeFrom reports the data directory carried by ctx. An empty value counts as unset.
func HomeFrom(ctx context.Context) (string, bool) {
	home, _ := ctx.Value(homeKey{}).(string)
	return home, home != ""
}

// MustHomeFrom is HomeFrom for commands that only run after the root hook resolved the directory.
func MustHomeFrom(ctx context.Context) string {
	home, ok := HomeFrom(ctx)
	if !ok {
		panic("config: data directory not set on command context")
	}
	return home
}

// ResolveHome picks the data directory: the --home flag, then TASKTALK_HOME, then ~/.tasktalk.
func ResolveHome(flag string) (string, error) {
	for _, dir := range []string{flag, os.Getenv(HomeEnv)} {
		if dir != "" {
			return filepath.Clean(dir), nil
		}
	}
	user, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate data directory: %w", err)
	}
	return filepath.Join(user, defaultHomeDir), nil
}

// DBPath is the SQLite task database under home.
func DBPath(home string) string {
	return filepath.Join(home, protectedDir, sqliteFile)
}

// ConfigPath is the settings file read by Load and written by SaveAPIKey.
func ConfigPath(home string) string {
	return filepath.Join(home, ConfigFile)
}
