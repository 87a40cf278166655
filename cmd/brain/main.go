package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"

	"second-brain-client/internal/bootstrap"
	"second-brain-client/internal/config"
	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/tracer"
)

type command struct {
	usage string
	run   func(a *app, args []string) error
	// skipRestore is set for commands that must not validate a stored
	// session first
	skipRestore bool
}

var commands = map[string]command{
	"status":     {usage: "status", run: runStatus},
	"login":      {usage: "login --token <jwt> | --google | --email <addr> [--name <name>]", run: runLogin, skipRestore: true},
	"logout":     {usage: "logout", run: runLogout},
	"whoami":     {usage: "whoami", run: runWhoami},
	"chat":       {usage: "chat [--no-history] [question...]   (no question starts an interactive session)", run: runChat},
	"transcript": {usage: "transcript [show|clear]", run: runTranscript},
	"history":    {usage: "history [show|load|clear|export [--out file]|purge]", run: runHistory},
	"memory":     {usage: "memory [list|add|add-direct|delete|complete|upcoming|expired|cleanup|stats|search|export] ...", run: runMemory},
	"docs":       {usage: "docs [list|files|delete|search|info] ...", run: runDocs},
	"upload":     {usage: "upload <file>...", run: runUpload},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: brain [--api <url>] [--debug] <command> [args]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred flushes happen before exit.
func run() int {
	apiURL := flag.String("api", "", "Backend base URL (overrides SECOND_BRAIN_API_URL)")
	debug := flag.Bool("debug", false, "Write debug entries to the log file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		color.Red("Unknown command %q", flag.Arg(0))
		usage()
		return 2
	}

	cfg := config.Load()
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *debug {
		cfg.App.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		color.Red("Configuration error: %v", err)
		return 1
	}

	log := logger.NewIsolatedLogger(cfg.App.LogFilePath, cfg.App.Debug)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracer := tracer.InitTracer("second-brain-cli", cfg.App.OtelEnabled, cfg.App.OtelEndpoint, log)
	defer shutdownTracer(context.Background())

	container, err := bootstrap.NewContainer(ctx, cfg, log)
	if err != nil {
		color.Red("Startup failed: %v", err)
		log.Error("CLI", "Startup failed", map[string]interface{}{"error": err})
		return 1
	}
	defer container.Close()

	notes, err := container.Notifications.Subscribe(ctx)
	if err != nil {
		color.Red("Startup failed: %v", err)
		log.Error("CLI", "Subscribe failed", map[string]interface{}{"error": err})
		return 1
	}

	a := &app{ctx: ctx, c: container, notes: notes}

	if !cmd.skipRestore {
		if _, err := container.Auth.Restore(ctx); err != nil {
			log.Warn("CLI", "Session restore failed", map[string]interface{}{"error": err.Error()})
		}
	}

	runErr := cmd.run(a, flag.Args()[1:])
	a.drainNotifications()
	if runErr != nil {
		color.Red("Error: %v", runErr)
		log.Error("CLI", "Command failed", map[string]interface{}{"command": flag.Arg(0), "error": runErr})
		return 1
	}
	return 0
}

type app struct {
	ctx   context.Context
	c     *bootstrap.Container
	notes <-chan entity.Notification
}

// drainNotifications prints whatever the services announced. Publishing
// blocks until delivery, so everything from the last call is buffered.
func (a *app) drainNotifications() {
	for {
		select {
		case n, ok := <-a.notes:
			if !ok {
				return
			}
			printNotification(n)
		default:
			return
		}
	}
}
