package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chess10kp/quickpanel/internal/config"
	"github.com/chess10kp/quickpanel/internal/core"
)

const pidFile = "/tmp/quickpanel.pid"

// GTK must stay on the thread that initialized it.
func init() {
	runtime.LockOSThread()
}

// ensureSingleInstance replaces a running daemon with this one.
func ensureSingleInstance() error {
	if data, err := os.ReadFile(pidFile); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid != os.Getpid() {
			process, err := os.FindProcess(pid)
			if err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					log.Printf("Stopping previous instance (pid %d)", pid)
					process.Signal(syscall.SIGTERM)
					waitForExit(process)
				}
			}
		}
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// waitForExit polls until process is gone so its socket cleanup cannot
// remove ours. It gives up after a few seconds.
func waitForExit(process *os.Process) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if err := process.Signal(syscall.Signal(0)); err != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	log.Printf("Previous instance (pid %d) did not exit, killing it", process.Pid)
	process.Kill()
}

func cleanup() {
	os.Remove(pidFile)
}

// setupLogging sends the standard logger and stderr to path. Package
// loggers write to stderr, so they follow.
func setupLogging(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(logFile)
	if err := redirectStderr(logFile); err != nil {
		log.Printf("Failed to redirect stderr: %v", err)
	}
	return logFile, nil
}

func main() {
	configPath := flag.String("config", "~/.config/quickpanel/config.toml", "path to config.toml")
	foreground := flag.Bool("foreground", false, "log to the terminal instead of the log file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
		cfg.ExpandPaths()
	}

	if !*foreground && cfg.LogFile != "" {
		logFile, err := setupLogging(cfg.LogFile)
		if err != nil {
			log.Printf("Failed to open log file %s: %v", cfg.LogFile, err)
		} else {
			defer logFile.Close()
		}
	}

	if err := ensureSingleInstance(); err != nil {
		log.Fatalf("Failed to ensure single instance: %v", err)
	}
	defer cleanup()

	app, err := core.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Run(); err != nil {
		cleanup()
		log.Fatalf("Application error: %v", err)
	}
}
