// Command deckfonts-mcp is the MCP server for presentation font analysis
// and repair. It also provides one-shot commands for running the engine
// without an MCP client.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/deckwright/deckfonts-mcp/internal/logging"
	"github.com/deckwright/deckfonts-mcp/internal/server"
	"github.com/deckwright/deckfonts-mcp/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// CLI defines the command-line interface for deckfonts-mcp.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" env:"DECKFONTS_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"DECKFONTS_LOG_FORMAT" default:"text" enum:"text,json" help:"Log output format (text, json)"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Start the MCP server (default)"`
	Analyze AnalyzeCmd `cmd:"" help:"Analyze font usage in a presentation and print the result"`
	Fix     FixCmd     `cmd:"" help:"Repair font usage in a presentation and save a new file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ServeCmd starts the MCP server on the chosen transport.
type ServeCmd struct {
	Transport string `name:"transport" default:"stdio" enum:"stdio,http" help:"Transport to serve on (stdio, http)"`
	Addr      string `name:"addr" default:":8421" help:"Listen address for the http transport"`
}

func (c *ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New()
	var err error
	if c.Transport == "http" {
		err = srv.RunHTTP(ctx, c.Addr)
	} else {
		err = srv.Run(ctx)
	}
	// A signal-driven shutdown surfaces as context.Canceled; that is a
	// clean exit, not a failure.
	return ignoreCanceled(err)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// AnalyzeCmd runs font analysis on one file and prints the classification.
type AnalyzeCmd struct {
	File string `arg:"" help:"Path to the .pptx file" type:"existingfile"`
	JSON bool   `name:"json" help:"Print the raw analysis result as JSON"`
}

func (c *AnalyzeCmd) Run() error {
	ctx := context.Background()
	mgr := session.NewManager()
	sess, err := mgr.Open(ctx, c.File)
	if err != nil {
		return err
	}
	defer mgr.Close(sess.ID())

	res, err := sess.Analyze(ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	info := sess.Info()
	fmt.Printf("%s: %d slides\n", c.File, info.SlideCount)
	fmt.Printf("  used fonts:         %s\n", joinOrNone(res.UsedFonts))
	fmt.Printf("  inconsistent fonts: %s\n", joinOrNone(res.InconsistentlyUsedFonts))
	fmt.Printf("  unused fonts:       %s\n", joinOrNone(res.UnusedFonts))
	for _, loc := range res.UnusedFontLocations {
		fmt.Printf("  dead text box: slide %d, shape %q\n", loc.SlideNumber, loc.ShapeName)
	}
	for _, loc := range res.InconsistentFontLocations {
		fmt.Printf("  inconsistent usage: slide %d, shape %q\n", loc.SlideNumber, loc.ShapeName)
	}
	return nil
}

func joinOrNone(fonts []string) string {
	if len(fonts) == 0 {
		return "(none)"
	}
	return strings.Join(fonts, ", ")
}

// FixCmd analyzes a presentation, folds every inconsistent font into the
// replacement font, optionally removes dead text boxes, and saves the result.
type FixCmd struct {
	File         string `arg:"" help:"Path to the .pptx file" type:"existingfile"`
	Replacement  string `name:"replacement" short:"r" required:"" help:"Font to rewrite inconsistent fonts to; must be visibly used in the deck"`
	Out          string `name:"out" short:"o" required:"" help:"Output path for the repaired presentation"`
	RemoveUnused bool   `name:"remove-unused" help:"Also remove the empty and off-canvas text boxes the analysis finds"`
}

func (c *FixCmd) Run() error {
	ctx := context.Background()
	mgr := session.NewManager()
	sess, err := mgr.Open(ctx, c.File)
	if err != nil {
		return err
	}
	defer mgr.Close(sess.ID())

	res, err := sess.Analyze(ctx)
	if err != nil {
		return err
	}

	locations := res.UnusedFontLocations
	if !c.RemoveUnused {
		locations = nil
	}
	summary, err := sess.UpdateAndSave(ctx, c.Replacement, res.InconsistentlyUsedFonts, locations, c.Out)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d shapes, replaced %d runs, saved to %s\n",
		summary.ShapesRemoved, summary.RunsReplaced, summary.SavedTo)
	return nil
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("deckfonts-mcp %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("deckfonts-mcp"),
		kong.Description("MCP server for presentation font analysis and repair"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// stdout belongs to the protocol stream on the stdio transport, so all
	// logging goes to stderr.
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
