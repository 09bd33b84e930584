package logs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "kaizen"

// platform is what log directory resolution depends on
type platform struct {
	goos   string
	uid    int
	home   string
	getenv func(string) string
}

func currentPlatform() platform {
	home, _ := os.UserHomeDir()
	return platform{goos: runtime.GOOS, uid: os.Getuid(), home: home, getenv: os.Getenv}
}

// DefaultLogDir is where file logs go when no directory is configured
func DefaultLogDir() string {
	return currentPlatform().logDir()
}

func (p platform) logDir() string {
	switch {
	case p.goos == "windows":
		if dir := p.getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName, "logs")
		}
	case p.goos == "darwin" && p.home != "":
		return filepath.Join(p.home, "Library", "Logs", appName)
	case p.uid == 0:
		return filepath.Join("/var/log", appName)
	default:
		if dir := p.getenv("XDG_STATE_HOME"); dir != "" {
			return filepath.Join(dir, appName, "logs")
		}
		if p.home != "" {
			return filepath.Join(p.home, ".local", "state", appName, "logs")
		}
	}
	if p.home == "" {
		return filepath.Join(os.TempDir(), appName, "logs")
	}
	return filepath.Join(p.home, "."+appName, "logs")
}

// LogFilePath joins filename onto logDir, expanding a leading "~/" and
// creating the directory. An empty logDir selects DefaultLogDir.
func LogFilePath(logDir, filename string) (string, error) {
	switch {
	case logDir == "":
		logDir = DefaultLogDir()
	case strings.HasPrefix(logDir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		logDir = filepath.Join(home, logDir[2:])
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(logDir, filename), nil
}
