// ABOUTME: Shared CLI helpers: argument flags, notices, field errors, headings
// ABOUTME: Flags are parsed by hand, matching the --name value style of every command

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/sia-console/internal/api"
	"github.com/2389/sia-console/internal/console"
)

// parseArgs splits args into --flag values and positional arguments.
// Flags named in bools take no value.
func parseArgs(args []string, bools ...string) (map[string]string, []string) {
	isBool := make(map[string]bool, len(bools))
	for _, b := range bools {
		isBool[b] = true
	}

	flags := make(map[string]string)
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || arg == "--" {
			rest = append(rest, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			flags[k] = v
			continue
		}
		if isBool[name] {
			flags[name] = "true"
			continue
		}
		if i+1 < len(args) {
			flags[name] = args[i+1]
			i++
		} else {
			flags[name] = ""
		}
	}
	return flags, rest
}

// subcommand pops the first argument, or returns def.
func subcommand(args []string, def string) (string, []string) {
	if len(args) == 0 {
		return def, nil
	}
	return args[0], args[1:]
}

func heading(title string) {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  " + title)
	cyan.Println("  " + strings.Repeat("-", len([]rune(title))))
}

func printNotice(n console.Notice) {
	if n.Empty() {
		return
	}
	switch n.Kind {
	case console.KindOK:
		color.New(color.FgGreen).Println(n.Message)
	case console.KindErr:
		color.New(color.FgRed).Fprintln(os.Stderr, n.Message)
	default:
		color.New(color.FgYellow).Println(n.Message)
	}
}

// report prints the outcome of a console action. Failures come back as
// errReported once shown.
func report(n console.Notice, err error) error {
	printNotice(n)
	if err == nil {
		return nil
	}
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		printFieldErrors(ve.Fields)
		return errReported
	}
	var he *api.HTTPError
	if errors.As(err, &he) && len(he.Fields) > 0 {
		fields := make(map[string]string, len(he.Fields))
		for k := range he.Fields {
			fields[k] = he.Field(k)
		}
		printFieldErrors(fields)
	}
	if n.Empty() {
		return err
	}
	return errReported
}

func printFieldErrors(fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	red := color.New(color.FgRed)
	for _, k := range keys {
		red.Fprintf(os.Stderr, "  %s: %s\n", k, fields[k])
	}
}

func printError(err error) {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		printFieldErrors(ve.Fields)
		return
	}
	color.Red("Error: %v\n", err)
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
