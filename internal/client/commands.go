package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/concord-chat/chatbox/internal/models"
	"github.com/concord-chat/chatbox/internal/themes"
)

// defaultLinkCount is how many links /links shows without an argument
const defaultLinkCount = 20

// Command represents a parsed slash command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a slash command string into a Command struct
func ParseCommand(input string) (*Command, error) {
	if !strings.HasPrefix(input, "/") {
		return nil, errors.New("not a command")
	}

	// Remove leading slash and split into parts
	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}, nil
}

// CommandHandler handles slash command execution
type CommandHandler struct {
	app *App
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(app *App) *CommandHandler {
	return &CommandHandler{app: app}
}

// Execute runs a parsed command and returns text for the user
func (ch *CommandHandler) Execute(cmd *Command) (string, error) {
	switch cmd.Name {
	case "join", "j":
		return ch.handleJoin(cmd.Args)
	case "part", "leave":
		return ch.handlePart(cmd.Args)
	case "nick":
		return ch.handleNick(cmd.Args)
	case "switch", "s":
		return ch.handleSwitch(cmd.Args)
	case "links":
		return ch.handleLinks(cmd.Args)
	case "theme":
		return ch.handleTheme(cmd.Args)
	case "help", "?":
		return ch.handleHelp()
	default:
		return "", fmt.Errorf("unknown command: /%s (try /help)", cmd.Name)
	}
}

// handleJoin handles /join <channel>
func (ch *CommandHandler) handleJoin(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /join <channel>")
	}
	channel := args[0]
	if len([]rune(channel)) > 64 {
		return "", errors.New("channel name too long (max 64 characters)")
	}

	a := ch.app
	if !a.store.Has(channel) {
		a.chat.AddChannel(channel)
		if a.relay != nil && a.connected {
			if err := a.relay.Join(channel); err != nil {
				return "", fmt.Errorf("join %s: %w", channel, err)
			}
		}
	}
	if err := a.chat.SwitchChannel(channel); err != nil {
		return "", err
	}
	return fmt.Sprintf("Joined %s", channel), nil
}

// handlePart handles /part [channel], defaulting to the active channel
func (ch *CommandHandler) handlePart(args []string) (string, error) {
	a := ch.app
	channel, ok := a.store.Active()
	if len(args) > 0 {
		channel, ok = args[0], true
	}
	if !ok {
		return "", errors.New("no channel to leave")
	}
	if !a.store.Has(channel) {
		return "", fmt.Errorf("not in %s", channel)
	}

	if a.relay != nil && a.connected {
		if err := a.relay.Part(channel); err != nil {
			a.logger.Sugar().Warnf("Part %s: %v", channel, err)
		}
	}
	a.chat.RemoveChannel(channel)
	return fmt.Sprintf("Left %s", channel), nil
}

// handleNick handles /nick <name>
func (ch *CommandHandler) handleNick(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /nick <name>")
	}
	nick := args[0]
	if err := validateNick(nick); err != nil {
		return "", err
	}
	ch.app.nickInput.SetValue(nick)
	ch.app.chat.SetNickname(nick)
	return fmt.Sprintf("Nickname set to %s", nick), nil
}

// handleSwitch handles /switch <channel>
func (ch *CommandHandler) handleSwitch(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: /switch <channel>")
	}
	if err := ch.app.chat.SwitchChannel(args[0]); err != nil {
		return "", fmt.Errorf("not in %s", args[0])
	}
	return "", nil
}

// handleLinks handles /links [N] and lists the last N links highlighted in
// the active channel
func (ch *CommandHandler) handleLinks(args []string) (string, error) {
	a := ch.app
	channel, ok := a.store.Active()
	if !ok {
		return "", errors.New("no active channel")
	}
	doc, err := a.store.Document(channel)
	if err != nil {
		return "", err
	}

	limit := defaultLinkCount
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	links := lo.FilterMap(doc.Runs(), func(r models.StyledRun, _ int) (string, bool) {
		return r.Text, r.Tag == models.TagURL
	})
	if len(links) == 0 {
		return "No links in " + channel, nil
	}
	if len(links) > limit {
		links = links[len(links)-limit:]
	}

	lines := make([]string, 0, len(links)+1)
	lines = append(lines, fmt.Sprintf("Links in %s:", channel))
	for i, link := range links {
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, link))
	}
	return strings.Join(lines, "\n"), nil
}

// handleTheme handles /theme [name]. Without a name it lists themes.
func (ch *CommandHandler) handleTheme(args []string) (string, error) {
	a := ch.app
	if len(args) == 0 {
		lines := []string{"Available themes:"}
		for _, name := range themes.ListAvailableThemes(a.themesDir) {
			marker := "  "
			if name == a.themeName {
				marker = "* "
			}
			lines = append(lines, marker+name)
		}
		return strings.Join(lines, "\n"), nil
	}

	name := strings.ToLower(strings.Join(args, "-"))
	if err := a.applyTheme(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Theme set to %q", a.theme.Meta.Name), nil
}

func (ch *CommandHandler) handleHelp() (string, error) {
	lines := []string{
		"Available Commands:",
		"/join <channel>    - Join a channel and switch to it (alias: /j)",
		"/part [channel]    - Leave a channel, default the current one",
		"/switch <channel>  - Show another joined channel (alias: /s)",
		"/nick <name>       - Change your nickname",
		"/links [N]         - Show the last N links in this channel (default: 20)",
		"/theme [name]      - List themes, or apply one",
		"/ping              - Check the relay's health",
		"/quit              - Exit",
		"Keys: Tab focus  Ctrl+N/Ctrl+P channels  PgUp/PgDn scroll  Esc dismiss",
	}
	return strings.Join(lines, "\n"), nil
}
