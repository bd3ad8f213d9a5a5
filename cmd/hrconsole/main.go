// Command hrconsole is a terminal client for the HR portal backend. Session
// and payslip access survive between invocations in a local state file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-hr-portal/gateway"
	"github.com/jrsteele09/go-hr-portal/guards"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	"github.com/jrsteele09/go-hr-portal/internal/config"
	"github.com/jrsteele09/go-hr-portal/paymentaccess"
	"github.com/jrsteele09/go-hr-portal/preferences"
	"github.com/jrsteele09/go-hr-portal/session"
	"github.com/jrsteele09/go-hr-portal/storage/filestore"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %s\n", Red, ResetColor, err)
		os.Exit(1)
	}
}

type app struct {
	out      io.Writer
	noColour bool
	logger   zerolog.Logger

	store   *filestore.FileStore
	gw      *gateway.Client
	session *session.Store
	payment *paymentaccess.Store
	prefs   *preferences.Store
	router  *guards.Router
	hr      *hrapi.Client
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}

	fs := flag.NewFlagSet("hrconsole", flag.ContinueOnError)
	fs.SetOutput(stderr)
	stateFile := fs.String("state", c.GetStateFile(), "file holding the session between runs")
	baseURL := fs.String("url", c.GetBaseURL(), "backend API base URL")
	noColour := fs.Bool("no-color", false, "disable ANSI colours")
	verbose := fs.Bool("v", false, "log gateway and store activity")
	banner := fs.Bool("banner", false, "print the application banner")
	fs.Usage = func() { printUsage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		printUsage(fs, stderr)
		return errors.New("no command given")
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: *noColour, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if *banner {
		figure.NewFigure(c.GetAppName(), "cybermedium", true).Print()
		fmt.Fprintln(stdout)
	}

	a, err := newApp(*stateFile, *baseURL, c.GetRequestTimeout(), stdout, logger)
	if err != nil {
		return err
	}
	a.noColour = *noColour
	defer a.close()

	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func newApp(stateFile, baseURL string, timeout time.Duration, out io.Writer, logger zerolog.Logger) (*app, error) {
	a := &app{out: out, logger: logger, store: filestore.New(stateFile)}

	gw, err := gateway.New(baseURL,
		gateway.WithTimeout(timeout),
		gateway.WithStorage(a.store),
		gateway.WithLogger(logger.With().Str("component", "gateway").Logger()),
	)
	if err != nil {
		return nil, fmt.Errorf("gateway.New: %w", err)
	}
	a.gw = gw
	a.hr = hrapi.New(gw)
	a.session = session.New(a.store, gw, logger)
	a.payment = paymentaccess.New(a.store, gw, logger)
	a.prefs = preferences.Load(a.store, logger)
	a.router = guards.NewRouter(a.session, a.payment, nil)

	a.session.Initialize()
	a.payment.Initialize()
	return a, nil
}

func (a *app) close() {
	a.session.Close()
	a.payment.Close()
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commandsByName[name]
	if !ok {
		return fmt.Errorf("unknown command %q, run hrconsole -h for a list", name)
	}
	if cmd.route != "" {
		if err := a.guard(cmd.route); err != nil {
			return err
		}
	}
	return a.explain(cmd.run(ctx, a, args))
}

// guard applies the same navigation rules as the web client before a
// command touches the backend.
func (a *app) guard(route string) error {
	d := a.router.Evaluate(route)
	switch d.Outcome {
	case guards.Allow:
		return nil
	case guards.Pending:
		return errors.New("session state is still loading")
	}
	switch d.RedirectTo {
	case guards.RouteLogin:
		return errors.New("not logged in: run hrconsole login")
	case guards.RouteHome:
		return errors.New("already logged in: run hrconsole logout first")
	case guards.RoutePayslipVerify:
		return errors.New("payslips are locked: run hrconsole otp request, then hrconsole otp verify -code <code>")
	case guards.RoutePayslip:
		return errors.New("payslips are already unlocked: run hrconsole payslips")
	}
	return fmt.Errorf("redirected to %s", d.RedirectTo)
}

// explain turns backend errors into console messages. The stores have
// already reacted to authorization codes by the time this runs.
func (a *app) explain(err error) error {
	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case gateway.CodeTokenExpired:
		return errors.New("your session has expired: run hrconsole login")
	case gateway.CodeInvalidPaymentAccessToken:
		return errors.New("payslip access has expired: run hrconsole otp request")
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error()
	}
	if details := apiErr.FieldErrors(); len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(msg)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, details[k])
		}
		msg = b.String()
	}
	return errors.New(msg)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: hrconsole [flags] <command> [command flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
