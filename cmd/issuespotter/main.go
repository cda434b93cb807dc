// Command issuespotter analyzes documents against a LAWAgent backend and
// keeps a follow-up conversation about the latest analysis.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bryanwahyu/lawagent/internal/application/followup"
	"github.com/bryanwahyu/lawagent/internal/config"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/session"
	"github.com/bryanwahyu/lawagent/internal/infra/backend"
	"github.com/bryanwahyu/lawagent/internal/infra/terminal"
	"github.com/bryanwahyu/lawagent/internal/observability"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

const usage = `Usage: issuespotter <command> [flags]

Commands:
  analyze   Analyze a file (-file) or text (-text, or stdin with -text -)
  ask       Ask a follow-up question about the latest analysis
  chat      Interactive follow-up conversation
  show      Print the latest analysis and conversation
  reset     Clear the conversation (-all also forgets the analysis)
  sessions  List stored sessions (-new prints a fresh session id)
  version   Print the version

Run "issuespotter <command> -h" for the flags of a command.
`

// common holds the flags every command accepts.
type common struct {
	configPath string
	sessionID  string
	driver     string
	backendURL string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", config.Path(), "config file (optional)")
	fs.StringVar(&c.sessionID, "session", "", "session id (default from config or \"default\")")
	fs.StringVar(&c.driver, "store", "", "session store: memory, file, sqlite, mysql, postgres, minio")
	fs.StringVar(&c.backendURL, "backend", "", "backend base URL")
	fs.BoolVar(&c.verbose, "v", false, "verbose output")
}

// app is one restored session bound to a backend.
type app struct {
	cfg   *config.Config
	view  *terminal.View
	ctl   *followup.Controller
	close func()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "analyze":
		err = runAnalyze(ctx, args)
	case "ask":
		err = runAsk(ctx, args)
	case "chat":
		err = runChat(ctx, args, os.Stdin)
	case "show":
		err = runShow(ctx, args)
	case "reset":
		err = runReset(ctx, args)
	case "sessions":
		err = runSessions(args)
	case "version":
		fmt.Println("issuespotter", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// errReported means the view already told the user what went wrong.
var errReported = errors.New("reported")

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errReported, err)
}

func loadConfig(c common) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.driver != "" {
		cfg.Client.Store.Driver = strings.ToLower(c.driver)
	}
	if c.backendURL != "" {
		cfg.Client.BackendURL = c.backendURL
	}
	if c.sessionID != "" {
		cfg.Client.Session = c.sessionID
	}
	if cfg.Client.Session == "" {
		cfg.Client.Session = session.DefaultID
	}
	if err := session.ValidateID(cfg.Client.Session); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// open restores the session. form feeds the fallback metadata path and may be nil.
func open(ctx context.Context, c common, form followup.FormSource) (*app, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	} else if level == "info" {
		level = "warn"
	}
	logger := observability.Init(level, cfg.Log.Format, os.Stderr).With("session", cfg.Client.Session)

	store, closeStore, err := openStore(ctx, cfg, cfg.Client.Session)
	if err != nil {
		return nil, fmt.Errorf("open %s session store: %w", cfg.Client.Store.Driver, err)
	}

	view := terminal.New(os.Stdout, os.Stderr)
	view.Verbose = c.verbose

	client := backend.NewClient(cfg.Client.BackendURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		backend.WithAPIKey(cfg.Client.APIKey),
	)
	sess := followup.NewSession(followup.NewPersister(store, logger), view, form, logger)
	ctl := followup.NewController(client, sess, view, logger)

	view.SetMuted(true)
	ctl.Restore()
	view.SetMuted(false)

	return &app{cfg: cfg, view: view, ctl: ctl, close: closeStore}, nil
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var c common
	c.register(fs)
	file := fs.String("file", "", "document to upload")
	text := fs.String("text", "", "document text, or - to read stdin")
	instructions := fs.String("instructions", "", "what the reviewer should look for (required)")
	style := fs.String("style", "", "preferred analysis style")
	showJSON := fs.Bool("json", false, "request and print the raw JSON payload")
	fs.Parse(args)

	if *text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		*text = string(data)
	}

	sub := followup.Submission{
		Text:         *text,
		Instructions: *instructions,
		Style:        *style,
		ReturnJSON:   *showJSON,
	}
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		sub.File = &analysis.Upload{
			Name:        filepath.Base(*file),
			ContentType: contentType(*file),
			Size:        info.Size(),
		}
		sub.Body = f
	}

	a, err := open(ctx, c, terminal.Form{InstructionsValue: *instructions, StyleValue: *style, TextValue: *text})
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.ctl.SubmitAnalysis(ctx, sub)
	return reported(err)
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func runAsk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	a, err := open(ctx, c, nil)
	if err != nil {
		return err
	}
	defer a.close()

	_, err = a.ctl.AskFollowup(ctx, strings.Join(fs.Args(), " "))
	return reported(err)
}

func runChat(ctx context.Context, args []string, in io.Reader) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	a, err := open(ctx, c, nil)
	if err != nil {
		return err
	}
	defer a.close()

	a.ctl.Show()
	fmt.Println(`Type a question, "/reset" to start over, "/show" to reprint, "/quit" to leave.`)
	return chatLoop(ctx, a, in, os.Stdout)
}

func chatLoop(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr = scanner.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return scanErr
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			a.ctl.Session().Reset()
			continue
		case "/show":
			a.ctl.Show()
			continue
		}
		if _, err := a.ctl.AskFollowup(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("follow-up failed", "error", err)
		}
	}
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	a, err := open(ctx, c, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if a.ctl.Session().Latest() == nil {
		fmt.Println(followup.MsgNoAnalysis)
		return nil
	}
	a.ctl.Show()
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	var c common
	c.register(fs)
	all := fs.Bool("all", false, "also forget the latest analysis")
	fs.Parse(args)

	a, err := open(ctx, c, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if *all {
		a.ctl.Session().Forget()
		return nil
	}
	a.ctl.Session().Reset()
	return nil
}

func runSessions(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	var c common
	c.register(fs)
	fresh := fs.Bool("new", false, "print a new random session id")
	fs.Parse(args)

	if *fresh {
		fmt.Println(session.NewID())
		return nil
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ids, err := listSessions(cfg)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
