// Package cli parses the speakflow command line.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRecord   Command = "record"
	CommandStop     Command = "stop"
	CommandCancel   Command = "cancel"
	CommandStatus   Command = "status"
	CommandSessions Command = "sessions"
	CommandReport   Command = "report"
	CommandLogin    Command = "login"
	CommandRegister Command = "register"
	CommandLogout   Command = "logout"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRecord:   {},
	CommandStop:     {},
	CommandCancel:   {},
	CommandStatus:   {},
	CommandSessions: {},
	CommandReport:   {},
	CommandLogin:    {},
	CommandRegister: {},
	CommandLogout:   {},
	CommandDevices:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	NoRitual   bool

	// SessionID is the optional positional argument to `report`.
	SessionID string
	// Limit is the page size for `sessions`; zero means the server default.
	Limit int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--no-ritual":
			parsed.NoRitual = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--limit":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--limit requires a number")
			}
			limit, err := strconv.Atoi(args[i])
			if err != nil || limit <= 0 {
				return Parsed{}, fmt.Errorf("--limit must be a positive number, got %q", args[i])
			}
			parsed.Limit = limit
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if haveCommand {
				if parsed.Command == CommandReport && parsed.SessionID == "" {
					parsed.SessionID = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  record      Record a practice session and wait for its coaching report
  stop        Stop the active recording and submit it for analysis
  cancel      Cancel the active recording and discard the audio
  status      Print the current session phase
  sessions    List past practice sessions
  report [ID] Show the coaching report (latest session when ID omitted)
  login       Log in and store the access token
  register    Create an account
  logout      Discard the stored access token
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/speakflow/config.jsonc)
  --no-ritual     Skip the breathing countdown before recording
  --limit N       Page size for the sessions listing
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
