package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve    *ServeCommand
	Status   *StatusCommand
	Sessions *SessionsCommand
	Show     *ShowCommand
	Purge    *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "scribe"
	parser.LongDescription = "Interaction recorder and script synthesizer for Nova."

	cmds := &commands{
		Serve:    &ServeCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Sessions: &SessionsCommand{globals: &globals, version: version},
		Show:     &ShowCommand{globals: &globals, version: version},
		Purge:    &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the Scribe daemon", "Start the Scribe daemon (local HTTP control surface).", cmds.Serve)
	parser.AddCommand("status", "Show daemon health and statistics", "Show daemon health, database statistics, and configuration summary.", cmds.Status)
	parser.AddCommand("sessions", "List stored recordings", "List stored recording sessions, most recent first.", cmds.Sessions)
	parser.AddCommand("show", "Print a stored artifact", "Print the full stored artifact of a specific session.", cmds.Show)
	parser.AddCommand("purge", "Delete ALL stored recordings", "Delete ALL stored recordings. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the Scribe CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("scribe %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
