package cliapp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the qmcd daemon",
	Long: `Start the qmcd daemon with the specified configuration.

By default the daemon runs in the background. Use --foreground to run in
the foreground, e.g. under a process supervisor.

Examples:
  qmcd start
  qmcd start --foreground
  qmcd start --config /etc/qmcd/config.yaml`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "run in the foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "path to PID file (default: $XDG_STATE_HOME/qmcd/qmcd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "path to log file for daemon mode (default: $XDG_STATE_HOME/qmcd/qmcd.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := loadConfig(configFileOrDefault())
	if err != nil {
		return err
	}
	if err := initLogger(cfg.Logger); err != nil {
		return err
	}

	logger.Info("qmcd starting", logger.Component("cliapp"),
		"device_id", cfg.DeviceID, "config", configFileOrDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := build(ctx, cancel, cfg)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- app.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("qmcd running, press Ctrl+C to stop", logger.Component("cliapp"))

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		cancel()
		if err := <-runDone; err != nil {
			logger.Error("shutdown error", logger.Component("cliapp"), logger.Err(err))
			return err
		}
		logger.Info("qmcd stopped gracefully", logger.Component("cliapp"))
	case err := <-runDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("qmcd exited with an error", logger.Component("cliapp"), logger.Err(err))
			return err
		}
		logger.Info("qmcd stopped", logger.Component("cliapp"))
	}

	return nil
}

// startDaemon re-executes the current binary in the foreground, detached
// from the calling terminal, redirecting its output to logFile.
func startDaemon() error {
	stateDir := defaultStateDirRoot()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = defaultPidFile()
	}

	if data, err := os.ReadFile(pidPath); err == nil {
		var pid int
		if _, err := fmt.Sscanf(string(data), "%d", &pid); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("qmcd is already running (PID %d); use a process manager to stop it first", pid)
				}
			}
		}
		_ = os.Remove(pidPath)
	}

	logPath := logFile
	if logPath == "" {
		logPath = defaultLogFile()
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath, "--log-file", logPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	cmd := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFileHandle.Close() }()

	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("qmcd started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)

	return nil
}
