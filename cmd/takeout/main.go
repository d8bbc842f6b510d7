// Package main provides the takeout command line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/takeout/client/internal/client"
	"github.com/takeout/client/internal/infrastructure/config"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// globalFlags are accepted before the subcommand
type globalFlags struct {
	configPath  string
	statePath   string
	verbose     bool
	showMetrics bool
	showVersion bool
}

func newGlobalFlagSet(g *globalFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("takeout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.configPath, "config", "", "Path to a config.toml (default: ./config.toml or ~/.takeout/config.toml)")
	fs.StringVar(&g.configPath, "c", "", "Path to a config.toml (shorthand)")
	fs.StringVar(&g.statePath, "state", "", "SQLite file for token and cart when storage.driver is memory")
	fs.BoolVar(&g.verbose, "verbose", false, "Log requests at debug level")
	fs.BoolVar(&g.verbose, "v", false, "Log requests at debug level (shorthand)")
	fs.BoolVar(&g.showMetrics, "metrics", false, "Print request metrics after the command")
	fs.BoolVar(&g.showVersion, "version", false, "Show version information")
	fs.Usage = func() { printUsage(stderr) }
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `takeout - order food from the command line

USAGE:
    takeout [options] <command> [command options]

COMMANDS:
    businesses                   List restaurants
    business <id>                Show one restaurant
    menu -business <id>          List a restaurant's dishes
    categories                   List food categories
    register -u <name> -p <pw>   Create an account
    login -u <name> -p <pw>      Log in and remember the session
    logout                       Forget the session
    whoami                       Show the logged-in user
    cart add -business <id> -item <id>
                                 Add one unit of a dish
    cart remove -item <id>       Remove one unit of a dish
    cart show                    Show the cart
    cart clear                   Empty the cart
    checkout                     Submit the cart as an order
    orders [-paid]               List unpaid (or paid) orders

OPTIONS:
    -config, -c <path>    Path to config.toml
    -state <path>         SQLite state file used with the memory driver
    -verbose, -v          Log requests at debug level
    -metrics              Print request metrics after the command
    -version              Show version information

ENVIRONMENT:
    Every config key can be overridden with TAKEOUT_<SECTION>_<KEY>,
    e.g. TAKEOUT_API_BASE_PATH=http://localhost:8080/api
`)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "takeout %s (built %s, commit %s)\n", version, buildTime, gitCommit)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var g globalFlags
	fs := newGlobalFlagSet(&g, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if g.showVersion {
		printVersion(stdout)
		return 0
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 2
	}

	cfg, err := loadConfig(g.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	a, err := newApp(ctx, cfg, g, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(stderr)
			return 2
		}
		fmt.Fprintf(stderr, "Error: %s\n", userMessage(err))
		return 1
	}
	if g.showMetrics {
		a.printMetrics(stderr)
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// userMessage prefers the classified message for HTTP failures
func userMessage(err error) string {
	var re *client.ResponseError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
