package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/monswitch/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: monswitch mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'monswitch mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	flags := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: monswitch mcp serve [--direct] [--path PATH] [--verbose]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio. Designed to be invoked by MCP clients.")
		fmt.Fprintln(os.Stderr, "Requests go to the daemon when it is running, otherwise the server")
		fmt.Fprintln(os.Stderr, "opens the display itself.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Example (Claude Code):")
		fmt.Fprintln(os.Stderr, "  claude mcp add monswitch -- monswitch mcp serve")
	}
	if code, ok := parseNoArgs(fs, args); !ok {
		return code
	}

	res, err := loadConfig(*flags.path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// stdout carries the protocol; logs go to stderr and the log file.
	logger, closeLog := commandLogger(res.Config, *flags.verbose)
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, closeSvc, err := openService(ctx, res.Config, logger, *flags.direct, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeSvc()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	server := mcp.NewServer(svc, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp server stopped", "error", err)
		return 1
	}
	return 0
}
