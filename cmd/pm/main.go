package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/wideunique/promate/internal/config"
	"github.com/wideunique/promate/internal/enhance"
	"github.com/wideunique/promate/internal/journal"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	switch os.Args[1] {
	case "enhance":
		runEnhance(cfg, os.Args[2:])

	case "history":
		runHistory(cfg, os.Args[2:])

	case "export":
		runExport(cfg, os.Args[2:])

	case "init":
		endpoint := ""
		if len(os.Args) > 2 {
			endpoint = os.Args[2]
		}
		path, err := config.WriteDefault(endpoint)
		if err != nil {
			fatal("init: %v", err)
		}
		fmt.Printf("config: %s\n", path)

	case "version":
		fmt.Printf("pm v%s (promate)\n", version)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func runEnhance(cfg config.Config, args []string) {
	draft := ""
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--") {
			if a != "--elapsed" {
				i++ // skip the flag's value
			}
			continue
		}
		draft = a
		break
	}
	if draft == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal("read stdin: %v", err)
		}
		draft = string(data)
	}
	if draft == "" {
		fatal("usage: pm enhance <draft>  (or pipe the draft on stdin)")
	}

	if max := cfg.Enhancer.MaxDraftBytes; max > 0 && len(draft) > max {
		fmt.Fprintf(os.Stderr, "warning: draft is %d bytes, configured cap is %d\n", len(draft), max)
	}

	requestID := flagValue(args, "--request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	format := flagValue(args, "--format")
	if format == "" {
		format = "text"
	}

	cwd, _ := os.Getwd()
	req := enhance.Request{
		RequestID: requestID,
		Format:    enhance.Format(format),
		Locale:    cfg.Enhancer.Locale,
		Draft:     draft,
		WorkspaceContext: enhance.WorkspaceContext{
			Model: flagValue(args, "--model"),
			Cwd:   cwd,
		},
	}

	// Ctrl-C cancels the in-flight call instead of killing the process.
	handle := enhance.NewHandle()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "cancelling...")
		handle.Cancel()
	}()
	defer signal.Stop(sigs)

	client := enhance.NewClient(cfg.Enhancer.ClientConfig())

	start := time.Now()
	result, enhanceErr := client.Enhance(req, handle)
	elapsed := time.Since(start)

	recordCall(cfg, req, enhanceErr, elapsed)

	if enhanceErr != nil {
		if enhance.IsCancelled(enhanceErr) {
			fmt.Fprintf(os.Stderr, "cancelled after %s\n", elapsed.Round(time.Millisecond))
			os.Exit(130)
		}
		fatal("enhance: %v", enhanceErr)
	}

	fmt.Println(result)
	if hasFlag(args, "--elapsed") {
		fmt.Fprintf(os.Stderr, "enhanced in %s\n", elapsed.Round(time.Millisecond))
	}
}

// recordCall journals the outcome. Failures here never affect the result.
func recordCall(cfg config.Config, req enhance.Request, enhanceErr *enhance.Error, elapsed time.Duration) {
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open journal: %v\n", err)
		return
	}
	defer j.Close()

	entry := journal.Entry{
		RequestID:  req.RequestID,
		Endpoint:   cfg.Enhancer.Endpoint,
		Format:     string(req.Format),
		Code:       journal.CodeOK,
		LatencyMS:  elapsed.Milliseconds(),
		DraftBytes: len(req.Draft),
	}
	if enhanceErr != nil {
		entry.Code = string(enhanceErr.Code)
		entry.Message = enhanceErr.Message
	}

	if err := j.Record(entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record call: %v\n", err)
		return
	}
	if err := j.Prune(cfg.Journal.Keep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not prune journal: %v\n", err)
	}
}

func runHistory(cfg config.Config, args []string) {
	n := 20
	if v := flagValue(args, "--limit"); v != "" {
		fmt.Sscanf(v, "%d", &n)
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fatal("open journal: %v", err)
	}
	defer j.Close()

	entries, err := j.Recent(n)
	if err != nil {
		fatal("history: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no enhancement calls recorded")
		return
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-20s  %5dms  %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Code, e.LatencyMS, e.RequestID)
		if e.Message != "" {
			line += "  " + e.Message
		}
		fmt.Println(line)
	}
}

func runExport(cfg config.Config, args []string) {
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		fatal("open journal: %v", err)
	}
	defer j.Close()

	var out io.Writer = os.Stdout
	if path := flagValue(args, "--out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			fatal("export: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := j.Export(out); err != nil {
		fatal("export: %v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `pm v%s — promate prompt enhancement

Usage:
  pm enhance [<draft>] [--format text] [--model <name>] [--elapsed]
                              Enhance a draft (stdin if no argument); Ctrl-C cancels
  pm history [--limit N]      Show recent enhancement calls
  pm export [--out <file>]    Dump the call journal as zstd-compressed JSONL
  pm init [<endpoint>]        Write a default config file
  pm version                  Print version
  pm help                     Show this help

Configuration: ~/.config/promate/config.toml
`, version)
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "pm: "+format+"\n", args...)
	os.Exit(1)
}
