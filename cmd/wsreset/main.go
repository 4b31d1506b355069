// Package main is the CLI entry point for wsreset.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/wsreset/internal/config"
	"github.com/eliteGoblin/wsreset/internal/console"
	"github.com/eliteGoblin/wsreset/internal/domain"
	"github.com/eliteGoblin/wsreset/internal/infra"
	"github.com/eliteGoblin/wsreset/internal/policy"
	"github.com/eliteGoblin/wsreset/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		console.Error("%v", err)
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsreset",
	Short: "Reset Windsurf device identity and local session state",
	Long: `wsreset resets the local identity of the Windsurf editor: it closes the
editor, backs up storage.json, deletes cached session and authentication
data and writes freshly generated device identifiers.

Nothing outside the Windsurf configuration directory is touched.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset device identifiers and clear session data",
	RunE:  runReset,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Show what a reset would do without changing anything",
	RunE:  runSimulate,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current device identifiers",
	RunE:  runShow,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether Windsurf is running",
	RunE:  runStatus,
}

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Close running Windsurf processes",
	RunE:  runKill,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store an encrypted snapshot of the current identifiers",
	Long: `Captures the current device identifiers and the presence of every cleanup
target, and stores them in an encrypted local database. Run it before a
reset, then run 'wsreset verify' afterwards.`,
	RunE: runSnapshot,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the effect of the last reset",
	RunE:  runVerify,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List credential-like entries in storage.json (values masked)",
	RunE:  runScan,
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	Long:              `Prints version, commit, and build time. Use --json for machine-readable output.`,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run:               runVersion,
}

var (
	flagConfig   string
	flagRoot     string
	flagLogFile  string
	flagVerbose  bool
	flagNoEmoji  bool
	flagNoColor  bool
	flagYes      bool
	flagKill     bool
	flagNoBackup bool
	flagSnapshot bool
	flagLabel    string
	jsonOutput   bool
)

// Populated by setup.
var (
	cfg    config.Config
	logger *zap.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default <user config dir>/wsreset/config.yaml)")
	pf.StringVar(&flagRoot, "root", "", "Override the Windsurf configuration root")
	pf.StringVar(&flagLogFile, "log-file", "", "Log file path")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose output and debug logging")
	pf.BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Answer yes to every question")
	resetCmd.Flags().BoolVar(&flagKill, "kill", false, "Close running Windsurf without asking")
	resetCmd.Flags().BoolVar(&flagNoBackup, "no-backup", false, "Do not back up storage.json")
	resetCmd.Flags().BoolVar(&flagSnapshot, "snapshot", false, "Store before/after snapshots")
	killCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")
	snapshotCmd.Flags().StringVar(&flagLabel, "label", "before", "Snapshot label")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	path, explicit := flagConfig, flagConfig != ""
	if !explicit {
		path = config.DefaultPath()
	}
	loaded, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	cfg = loaded

	if flagRoot != "" {
		cfg.Root = flagRoot
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}
	if flagYes {
		cfg.AssumeYes = true
	}
	if flagNoBackup {
		cfg.Backup = false
	}

	console.SetVerboseMode(flagVerbose)
	console.SetEmojiMode(!flagNoEmoji)
	console.SetColorMode(!flagNoColor)

	logger = createLogger(cfg.LogFile, flagVerbose)
	logger.Debug("configuration loaded", zap.String("path", path), zap.Any("config", cfg))
	return nil
}

func createLogger(logFile string, verbose bool) *zap.Logger {
	logConfig := zap.NewProductionConfig()
	if verbose {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.EncoderConfig.TimeKey = "time"
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if logFile != "" && os.MkdirAll(filepath.Dir(logFile), 0700) == nil {
		logConfig.OutputPaths = []string{logFile}
		logConfig.ErrorOutputPaths = []string{logFile}
	}

	logger, err := logConfig.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// components holds the wired collaborators for one command.
type components struct {
	policy domain.Policy
	root   string
	fs     domain.FileSystemManager
	store  domain.ConfigStore
	backup domain.BackupManager
	guard  domain.ProcessGuard // nil when enumeration is unavailable
}

func wire() (*components, error) {
	p, err := policy.DefaultCatalog().GetByID(cfg.Policy)
	if err != nil {
		return nil, err
	}

	root := cfg.Root
	if root == "" {
		root, err = infra.NewPathResolver(p.DirName).Root()
		if err != nil {
			return nil, err
		}
	}

	c := &components{
		policy: *p,
		root:   root,
		fs:     infra.NewFileSystemManager(),
		store:  infra.NewJSONConfigStore(),
		backup: infra.NewBackupManager(logger),
	}
	guard := infra.NewProcessGuard(p.ProcessNames, cfg.KillTimeout, logger)
	if guard.Available() {
		c.guard = guard
	}

	logger.Info("wired components",
		zap.String("policy", p.ID),
		zap.String("root", root),
		zap.Bool("process_check", c.guard != nil))
	return c, nil
}

// openSnapshots opens the encrypted snapshot store, creating its key on first use.
func openSnapshots() (*infra.EncryptedSnapshotStore, error) {
	store, err := infra.OpenSnapshotStore(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshots: %w", err)
	}
	return store, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runReset(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var verifier *usecase.Verifier
	if flagSnapshot {
		snaps, err := openSnapshots()
		if err != nil {
			return err
		}
		defer snaps.Close()
		verifier = usecase.NewVerifier(c.policy, c.fs, c.store, c.backup, snaps, logger)
		if _, err := verifier.Snapshot(c.root, "before"); err != nil {
			return err
		}
	}

	var fallback domain.Confirmer
	if !cfg.AssumeYes {
		fallback = console.NewSurveyConfirmer(logger)
	}
	confirmer := console.NewPresetConfirmer(console.Presets{
		AssumeYes: cfg.AssumeYes,
		Kill:      flagKill,
		NoBackup:  !cfg.Backup,
	}, fallback)

	console.Title("Resetting %s (%s)", c.policy.Name, c.root)
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Policy:    c.policy,
		Root:      c.root,
		Guard:     c.guard,
		FS:        c.fs,
		Backup:    c.backup,
		Store:     c.store,
		Generator: infra.NewIdentifierGenerator(),
		Confirmer: confirmer,
		Reporter:  console.NewReporter(cmd.OutOrStdout()),
		Lock:      infra.NewFileRunLock(c.root),
		BaseCheck: infra.CheckBaseDirectory,
		Logger:    logger,
	})

	result := orchestrator.Run(ctx)
	if err := abortError(result); err != nil {
		return err
	}

	if verifier != nil {
		if _, err := verifier.Snapshot(c.root, "after"); err != nil {
			console.Warning("Failed to store after snapshot: %v", err)
		}
	}
	return nil
}

// abortError is the error main prints for an aborted reset, or nil.
func abortError(result *domain.ResetResult) error {
	if result.Succeeded() {
		return nil
	}
	return fmt.Errorf("reset aborted: %w", result.Err)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}

	plan, err := usecase.NewSimulator(c.policy, c.fs, c.store, c.backup, c.guard, logger).Plan(c.root)
	if err != nil {
		return err
	}

	console.Title("Simulated reset of %s (nothing is changed)", c.policy.Name)
	console.WritePlan(cmd.OutOrStdout(), plan)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}

	storageFile := domain.StorageFilePath(c.root)
	exists, _, err := c.fs.Stat(storageFile)
	if err != nil {
		return err
	}
	if !exists {
		console.Warning("storage.json not found at %s", storageFile)
		return nil
	}

	doc, err := c.store.Load(storageFile)
	if err != nil {
		if !errors.Is(err, domain.ErrConfigParseInvalid) {
			return err
		}
		console.Warning("storage.json is not valid JSON")
	}

	ids := make(map[string]string)
	for _, k := range domain.IdentifierKeys {
		if s, ok := doc[k].(string); ok {
			ids[k] = s
		}
	}
	console.Info("Current configuration: %s", storageFile)
	console.WriteIdentifiers(cmd.OutOrStdout(), ids)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}
	if c.guard == nil {
		console.Warning("Cannot check running processes on this system")
		return nil
	}

	running := c.guard.ListRunningInstances()
	if len(running) == 0 {
		console.Success("%s is not running", c.policy.Name)
		return nil
	}
	console.Warning("%s is running", c.policy.Name)
	console.WriteProcesses(cmd.OutOrStdout(), running)
	return nil
}

func runKill(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}
	if c.guard == nil {
		return errors.New("cannot enumerate processes on this system")
	}

	running := c.guard.ListRunningInstances()
	if len(running) == 0 {
		console.Success("%s is not running", c.policy.Name)
		return nil
	}
	console.WriteProcesses(cmd.OutOrStdout(), running)

	var fallback domain.Confirmer
	if !cfg.AssumeYes {
		fallback = console.NewSurveyConfirmer(logger)
	}
	confirmer := console.NewPresetConfirmer(console.Presets{AssumeYes: cfg.AssumeYes}, fallback)
	if !confirmer.Confirm(domain.QuestionTerminate, fmt.Sprintf("Close %d %s process(es)?", len(running), c.policy.Name)) {
		return fmt.Errorf("%w: %d process(es) left running", domain.ErrDeclined, len(running))
	}

	var failed int
	for _, p := range running {
		if c.guard.Terminate(p) {
			console.Success("Closed %s (PID %d)", p.Name, p.PID)
			continue
		}
		failed++
		console.Error("Could not close %s (PID %d)", p.Name, p.PID)
	}
	if failed > 0 {
		return fmt.Errorf("%d process(es) could not be closed", failed)
	}
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}
	snaps, err := openSnapshots()
	if err != nil {
		return err
	}
	defer snaps.Close()

	snap, err := usecase.NewVerifier(c.policy, c.fs, c.store, c.backup, snaps, logger).Snapshot(c.root, flagLabel)
	if err != nil {
		return err
	}
	console.Success("Snapshot %d (%s) stored in %s", snap.ID, snap.Label, snaps.Path())
	console.WriteIdentifiers(cmd.OutOrStdout(), snap.DeviceIDs)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}
	snaps, err := openSnapshots()
	if err != nil {
		return err
	}
	defer snaps.Close()

	report, err := usecase.NewVerifier(c.policy, c.fs, c.store, c.backup, snaps, logger).Verify(c.root)
	if err != nil {
		return err
	}

	console.Title("Verification of %s", c.root)
	console.WriteVerifyReport(cmd.OutOrStdout(), report)
	if !report.Passed() {
		return errors.New("verification failed")
	}
	console.Success("Reset verified")
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	c, err := wire()
	if err != nil {
		return err
	}

	findings, err := usecase.NewInspector(c.store, c.fs, logger).Scan(c.root)
	if err != nil {
		return err
	}
	console.Title("Credential-like entries in storage.json")
	console.WriteFindings(cmd.OutOrStdout(), findings)
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "wsreset %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
