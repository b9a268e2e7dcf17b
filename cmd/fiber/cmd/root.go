// Package cmd implements the fiber CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (render, inspect, config, version).
package cmd

import (
	"fmt"
	"os"
	"strings"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "fiber",
	Short: "fiber - incremental rendering engine",
	Long: `fiber renders component trees into host platforms with an
interruptible render phase and an atomic commit.

This command drives the bundled demo app against an in-memory document.

Use "fiber <command> --help" for more information about a command.`,
	Usage: "fiber <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp(rootCmd)
		return nil
	case "-v", "--version":
		printVersion()
		return nil
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

func printHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
	fmt.Println()
	fmt.Println("Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Printf("  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -h, --help           Show help for a command")
	fmt.Println("  -v, --version        Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fiber render --clicks 3       Click the demo counter three times")
	fmt.Println("  fiber render --format md      Print the demo as Markdown")
	fmt.Println("  fiber inspect --addr :7777    Serve the inspector for the demo")
}

func printCommandHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
}

func printVersion() {
	fmt.Printf("fiber version %s (built %s)\n", Version, BuildTime)
}

// flagValue returns the value of a "--name value" or "--name=value" flag at
// args[i] and the index of the last argument consumed.
func flagValue(args []string, i int, name string) (string, int, bool, error) {
	arg := args[i]
	for _, prefix := range []string{"--" + name, "-" + name} {
		if arg == prefix {
			if i+1 >= len(args) {
				return "", i, true, fmt.Errorf("%s requires a value", prefix)
			}
			return args[i+1], i + 1, true, nil
		}
		if v, ok := strings.CutPrefix(arg, prefix+"="); ok {
			return v, i, true, nil
		}
	}
	return "", i, false, nil
}
