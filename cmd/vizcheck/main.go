// Package main provides vizcheck - browser test runner for the bundled
// algorithm-visualizer demo pages.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/vizcheck/pkg/config"
	"github.com/umputun/vizcheck/pkg/demo"
	"github.com/umputun/vizcheck/pkg/input"
	"github.com/umputun/vizcheck/pkg/notify"
	"github.com/umputun/vizcheck/pkg/progress"
	"github.com/umputun/vizcheck/pkg/render"
	"github.com/umputun/vizcheck/pkg/runner"
	"github.com/umputun/vizcheck/pkg/server"
)

// opts holds all command-line options.
type opts struct {
	Changed bool          `long:"changed" description:"run only suites affected by files changed since the default branch"`
	Headed  bool          `long:"headed" description:"run browsers visible instead of headless"`
	BaseURL string        `long:"base-url" description:"external pages server for the suites (default starts one per run)"`
	Log     string        `long:"log" description:"write run log to file"`
	Timeout time.Duration `long:"timeout" description:"overall suite timeout (e.g. 10m)"`

	Serve  bool   `short:"s" long:"serve" description:"serve the demo pages in the foreground"`
	Listen string `long:"listen" description:"bind address for --serve"`
	Dir    string `long:"dir" description:"serve pages from this directory instead of the embedded copies"`
	Watch  bool   `short:"w" long:"watch" description:"watch --dir and push reload events to open tabs"`

	List bool `short:"l" long:"list" description:"list the demo registry and exit"`
	Info bool `short:"i" long:"info" description:"show the doc for a demo (interactive selection without argument)"`

	Init  bool `long:"init" description:"install the default config to ~/.config/vizcheck"`
	Force bool `long:"force" description:"with --init, replace an existing config file"`

	Debug   bool `short:"d" long:"debug" description:"enable debug logging"`
	NoColor bool `long:"no-color" description:"disable color output"`
	Version bool `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("vizcheck %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [demo...]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	// keep Ctrl+C from echoing ^C into the progress stream
	restoreTerminal := disableCtrlCEcho()
	defer restoreTerminal()

	// setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, args []string) error {
	cfg, err := config.Load("") // empty string uses default location
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// all colors guaranteed populated via fallback
	colors := progress.NewColors(cfg.Colors)

	switch {
	case o.Init:
		return runInit(o, cfg, colors)
	case o.List:
		return runList()
	case o.Info:
		return runInfo(ctx, o, args)
	case o.Serve:
		return runServe(ctx, o, cfg, colors)
	default:
		return runSuites(ctx, o, args, cfg, colors)
	}
}

// runSuites executes the browser suites via the runner.
func runSuites(ctx context.Context, o opts, demos []string, cfg *config.Config, colors *progress.Colors) error {
	if err := checkDependencies("go"); err != nil {
		return err
	}

	// suites live in e2e/, running anywhere else produces confusing
	// "no packages" failures from go test
	if _, err := os.Stat("e2e"); err != nil {
		return errors.New("must run from the repository root (no e2e directory found)")
	}

	pattern, err := runner.PatternFor(demos)
	if err != nil {
		return err
	}
	if pattern != "" && o.Changed {
		return errors.New("--changed cannot be combined with explicit demo names")
	}

	timeout := o.Timeout
	if timeout == 0 && cfg.TestTimeoutMs > 0 {
		timeout = time.Duration(cfg.TestTimeoutMs) * time.Millisecond
	}

	log, err := progress.NewLogger(progress.Config{
		LogFile: o.Log,
		Pattern: pattern,
		BaseURL: o.BaseURL,
		NoColor: o.NoColor,
	}, colors)
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return fmt.Errorf("configure notifications: %w", err)
	}

	r := runner.New(runner.Config{
		Pattern:   pattern,
		Changed:   o.Changed,
		Headed:    o.Headed || !cfg.Headless,
		SlowMoMs:  cfg.SlowMoMs,
		BaseURL:   o.BaseURL,
		Timeout:   timeout,
		ExtraArgs: strings.Fields(cfg.RunArgs),
		Verbose:   o.Debug,
		Debug:     o.Debug,
	}, log, notifier)

	if _, err := r.Run(ctx); err != nil {
		return fmt.Errorf("run suites: %w", err)
	}

	colors.Info().Printf("\ncompleted in %s\n", log.Elapsed())
	return nil
}

// runServe serves the demo pages until interrupted.
func runServe(ctx context.Context, o opts, cfg *config.Config, colors *progress.Colors) error {
	listen := o.Listen
	if listen == "" {
		listen = cfg.Listen
	}
	dir := o.Dir
	if dir == "" {
		dir = cfg.PagesDir
	}

	srv, err := server.New(server.Config{Listen: listen, Dir: dir, Watch: o.Watch, Version: revision})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	colors.Info().Printf("serving demo pages on http://%s\n", listen)
	if o.Watch {
		colors.Info().Printf("watching %s for changes\n", dir)
	}
	return srv.Run(ctx)
}

// runList prints the demo registry as a table.
func runList() error {
	demos, err := demo.Load()
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tFILE\t")
	for _, d := range demos {
		marker := ""
		if d.Broken {
			marker = "broken"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Category, d.File, marker)
	}
	return w.Flush()
}

// runInfo renders the doc of one demo, asking interactively when no
// name was given.
func runInfo(ctx context.Context, o opts, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	if name == "" {
		selected, err := input.NewPicker().Pick(ctx, "select a demo", demo.Names())
		if err != nil {
			return fmt.Errorf("select demo: %w", err)
		}
		name = selected
	}

	d, ok := demo.Find(name)
	if !ok {
		return fmt.Errorf("unknown demo %q, see --list", name)
	}

	md := fmt.Sprintf("# %s\n\n`%s` (%s)\n\n%s\n", d.Title, d.File, d.Category, d.Doc)
	fmt.Print(render.Markdown(md, o.NoColor))
	return nil
}

// runInit installs the default config. config.Load above already
// installed it on first run, so without --force this just reports the
// location; --force overwrites after confirmation.
func runInit(o opts, cfg *config.Config, colors *progress.Colors) error {
	path := cfg.GlobalConfigPath()

	if !o.Force {
		colors.Info().Printf("config installed at %s\n", path)
		return nil
	}

	fmt.Printf("replace existing config at %s? [y/N] ", path)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
		fmt.Println("aborted")
		return nil
	}

	if err := config.Reset(cfg.ConfigDir()); err != nil {
		return fmt.Errorf("reset config: %w", err)
	}
	colors.Info().Printf("config reset to defaults at %s\n", path)
	return nil
}

// buildNotifier creates the notification service from config, nil when
// no channels are configured.
func buildNotifier(cfg *config.Config, log *progress.Logger) (*notify.Service, error) {
	return notify.New(notify.Params{
		Channels:      cfg.NotifyChannels,
		OnError:       cfg.NotifyOnError,
		OnComplete:    cfg.NotifyOnComplete,
		TimeoutMs:     cfg.NotifyTimeoutMs,
		TelegramToken: cfg.NotifyTelegramToken,
		TelegramChat:  cfg.NotifyTelegramChat,
		SlackToken:    cfg.NotifySlackToken,
		SlackChannel:  cfg.NotifySlackChannel,
		SMTPHost:      cfg.NotifySMTPHost,
		SMTPPort:      cfg.NotifySMTPPort,
		SMTPUsername:  cfg.NotifySMTPUsername,
		SMTPPassword:  cfg.NotifySMTPPassword,
		SMTPStartTLS:  cfg.NotifySMTPStartTLS,
		EmailFrom:     cfg.NotifyEmailFrom,
		EmailTo:       cfg.NotifyEmailTo,
		WebhookURLs:   cfg.NotifyWebhookURLs,
		CustomScript:  cfg.NotifyCustomScript,
	}, log)
}

func checkDependencies(deps ...string) error {
	for _, dep := range deps {
		if _, err := exec.LookPath(dep); err != nil {
			return fmt.Errorf("%s not found in PATH", dep)
		}
	}
	return nil
}
