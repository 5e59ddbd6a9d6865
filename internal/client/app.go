// Package client is the terminal view host: a bubbletea program that renders
// the transcript store, feeds user input to the chatbox controller and
// bridges both to the relay connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/concord-chat/chatbox/internal/chatbox"
	"github.com/concord-chat/chatbox/internal/config"
	"github.com/concord-chat/chatbox/internal/formatter"
	"github.com/concord-chat/chatbox/internal/highlight"
	"github.com/concord-chat/chatbox/internal/protocol"
	"github.com/concord-chat/chatbox/internal/themes"
	"github.com/concord-chat/chatbox/internal/transcript"
)

// FocusArea represents which area of the UI has focus
type FocusArea int

const (
	FocusInput FocusArea = iota
	FocusNick
	FocusChat
)

// connectTimeout bounds a single dial
const connectTimeout = 10 * time.Second

// Options configure a new App
type Options struct {
	Nickname  string
	Channels  []string
	Active    string
	Keywords  []string
	Theme     string
	ThemesDir string
	Relay     Relay
	RelayAddr string // For /ping
	Reconnect ReconnectPolicy
	State     *config.Manager
	Logger    *zap.Logger
}

// App is the bubbletea model
type App struct {
	// Window dimensions
	width  int
	height int

	focus FocusArea

	// Theme
	theme     *themes.Theme
	themeName string
	themesDir string
	styles    *themes.Styles

	// Transcript
	chat  *chatbox.ChatBox
	store *transcript.Store
	cache *renderCache

	// Relay
	relay     Relay
	relayAddr string
	connected bool
	reconnect ReconnectPolicy
	attempt   int

	// Channels whose input stopped after a connection error
	stopped map[string]bool

	// UI components
	nickInput textinput.Model
	input     textinput.Model
	viewport  viewport.Model

	// Status line
	statusMessage string
	statusError   bool

	// Multi-line command output shown under the transcript
	info string

	commands *CommandHandler
	state    *config.Manager
	logger   *zap.Logger
}

// NewApp creates the model. Theme and keyword errors are returned so the
// caller can report them; the App falls back to defaults.
func NewApp(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error

	themeName := opts.Theme
	if themeName == "" {
		themeName = themes.DefaultName
	}
	theme, err := themes.GetTheme(opts.ThemesDir, themeName)
	if err != nil {
		errs = append(errs, err)
		themeName = themes.DefaultName
		theme = themes.DefaultTheme()
	}

	fmtOpts := []formatter.Option{formatter.WithLogger(logger.Named("formatter"))}
	if len(opts.Keywords) > 0 {
		km, err := highlight.NewKeywordMatcher(opts.Keywords)
		if err != nil {
			errs = append(errs, err)
		} else {
			fmtOpts = append(fmtOpts, formatter.WithKeywords(km))
		}
	}

	nickInput := textinput.New()
	nickInput.Placeholder = "nickname"
	nickInput.CharLimit = protocol.MaxNickLength
	nickInput.Width = protocol.MaxNickLength
	nickInput.Prompt = ""

	input := textinput.New()
	input.Placeholder = "Type a message or /help"
	input.CharLimit = 2000
	input.Width = 50

	a := &App{
		theme:     theme,
		themeName: themeName,
		themesDir: opts.ThemesDir,
		styles:    theme.BuildStyles(),
		store:     transcript.NewStore(),
		relay:     opts.Relay,
		relayAddr: opts.RelayAddr,
		reconnect: opts.Reconnect,
		stopped:   make(map[string]bool),
		nickInput: nickInput,
		input:     input,
		viewport:  viewport.New(80, 20),
		state:     opts.State,
		logger:    logger,
	}
	a.cache = newRenderCache(a.styles)
	a.chat = chatbox.New(a.store, formatter.New(fmtOpts...), chatbox.Handlers{
		SendMessage:      a.onSendMessage,
		NicknameChanged:  a.onNicknameChanged,
		Stop:             a.onStop,
		NicknameRejected: a.onNicknameRejected,
	}, logger.Named("chatbox"))
	a.store.Observe(transcript.Observer{
		ChannelsChanged: a.onChannelsChanged,
		RunsAppended:    a.onRunsAppended,
	})
	a.commands = NewCommandHandler(a)

	// Startup state, restored before the relay is wired so nothing is sent
	a.chat.SetNickname(opts.Nickname)
	a.nickInput.SetValue(opts.Nickname)
	for _, ch := range lo.Uniq(opts.Channels) {
		a.chat.AddChannel(ch)
	}
	if opts.Active != "" && a.store.Has(opts.Active) {
		a.switchChannel(opts.Active)
	} else if chans := a.store.Channels(); len(chans) > 0 {
		a.switchChannel(chans[0])
	}

	if opts.Nickname == "" {
		a.setFocus(FocusNick)
	} else {
		a.setFocus(FocusInput)
	}

	return a, errors.Join(errs...)
}

// ChatBox returns the controller
func (a *App) ChatBox() *chatbox.ChatBox {
	return a.chat
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.relay != nil {
		cmds = append(cmds, a.connectCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKeyPress(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateViewportSize()

	case ConnectedMsg:
		a.handleConnected(msg)

	case ConnectFailedMsg:
		a.setStatus(fmt.Sprintf("Connection failed: %v", msg.Err), true)
		cmds = append(cmds, a.scheduleReconnect())

	case DisconnectedMsg:
		a.handleDisconnected(msg)
		cmds = append(cmds, a.scheduleReconnect())

	case reconnectMsg:
		if !a.connected && a.relay != nil {
			cmds = append(cmds, a.connectCmd())
		}

	case LineMsg:
		if err := a.chat.Receive(msg.Channel, msg.Nick, msg.Text); err != nil {
			a.logger.Debug("Line for a channel not shown", zap.String("channel", msg.Channel))
		}

	case NoticeMsg:
		a.handleNotice(msg)

	case RelayErrorMsg:
		a.setStatus(msg.Message, true)

	case PingResultMsg:
		if msg.Err != nil {
			a.setStatus(msg.Err.Error(), true)
		} else {
			a.setStatus(fmt.Sprintf("Relay %s in %s, %d clients in %d channels",
				msg.Result.Status, msg.Result.Latency.Round(time.Millisecond),
				msg.Result.Clients, msg.Result.Channels), false)
		}
	}

	// Update focused component
	var cmd tea.Cmd
	switch a.focus {
	case FocusNick:
		a.nickInput, cmd = a.nickInput.Update(msg)
	case FocusInput:
		a.input, cmd = a.input.Update(msg)
	case FocusChat:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// handleKeyPress handles keys the App owns. It reports whether the key was
// consumed.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return a.quit(), true

	case "tab":
		a.cycleFocus()
		return nil, true

	case "esc":
		a.setInfo("")
		return nil, true

	case "enter":
		switch a.focus {
		case FocusNick:
			a.submitNick()
			return nil, true
		case FocusInput:
			return a.submitInput(), true
		}

	case "ctrl+n":
		a.cycleChannel(1)
		return nil, true

	case "ctrl+p":
		a.cycleChannel(-1)
		return nil, true

	case "pgup":
		a.viewport.HalfViewUp()
		return nil, true

	case "pgdown":
		a.viewport.HalfViewDown()
		return nil, true
	}
	return nil, false
}

func (a *App) cycleFocus() {
	switch a.focus {
	case FocusNick:
		a.setFocus(FocusInput)
	case FocusInput:
		a.setFocus(FocusChat)
	case FocusChat:
		a.setFocus(FocusNick)
	}
}

func (a *App) setFocus(f FocusArea) {
	a.focus = f
	a.nickInput.Blur()
	a.input.Blur()
	switch f {
	case FocusNick:
		a.nickInput.Focus()
	case FocusInput:
		a.input.Focus()
	}
}

func (a *App) cycleChannel(delta int) {
	chans := a.store.Channels()
	if len(chans) == 0 {
		return
	}
	idx := 0
	if active, ok := a.store.Active(); ok {
		idx = lo.IndexOf(chans, active) + delta
	}
	idx = (idx%len(chans) + len(chans)) % len(chans)
	a.switchChannel(chans[idx])
}

func (a *App) switchChannel(channel string) {
	if err := a.chat.SwitchChannel(channel); err != nil {
		a.logger.Debug("Switch to a channel not joined", zap.String("channel", channel), zap.Error(err))
	}
}

func (a *App) notice(channel, text string) {
	if err := a.chat.Notice(channel, text); err != nil {
		a.logger.Debug("Notice for a channel not shown", zap.String("channel", channel), zap.Error(err))
	}
}

func (a *App) submitNick() {
	nick := strings.TrimSpace(a.nickInput.Value())
	if err := validateNick(nick); err != nil {
		a.setStatus(err.Error(), true)
		return
	}
	a.nickInput.SetValue(nick)
	a.chat.SetNickname(nick)
	a.setFocus(FocusInput)
}

func (a *App) submitInput() tea.Cmd {
	text := a.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	a.setInfo("")

	if strings.HasPrefix(text, "/") {
		a.input.Reset()
		return a.runCommand(text)
	}

	channel, ok := a.store.Active()
	if !ok {
		a.setStatus("Join a channel first: /join #channel", true)
		return nil
	}
	// A refused line stays in the input for a retry
	if a.stopped[channel] || (a.relay != nil && !a.connected) {
		a.setStatus("Not connected, message not sent", true)
		return nil
	}
	a.input.Reset()
	if a.chat.Nickname() == "" {
		a.setStatus("Choose a nickname first", true)
		a.setFocus(FocusNick)
		return nil
	}
	if err := a.chat.Submit(text); err != nil {
		a.setStatus(err.Error(), true)
	}
	return nil
}

func (a *App) runCommand(text string) tea.Cmd {
	cmd, err := ParseCommand(text)
	if err != nil {
		a.setStatus(err.Error(), true)
		return nil
	}
	switch cmd.Name {
	case "quit", "exit":
		return a.quit()
	case "ping":
		if a.relayAddr == "" {
			a.setStatus("No relay configured", true)
			return nil
		}
		a.setStatus("Pinging "+a.relayAddr+"...", false)
		return PingRelayCmd(a.relayAddr)
	}

	out, err := a.commands.Execute(cmd)
	if err != nil {
		a.setStatus(err.Error(), true)
		return nil
	}
	if strings.Contains(out, "\n") {
		a.setInfo(out)
		a.setStatus("Esc to dismiss", false)
	} else if out != "" {
		a.setStatus(out, false)
	}
	return nil
}

// quit leaves the relay open. Its reader may be blocked handing a frame to
// this update loop, so the caller closes it after the program returns.
func (a *App) quit() tea.Cmd {
	a.saveState()
	return tea.Quit
}

// --- Relay events ---

func (a *App) connectCmd() tea.Cmd {
	relay := a.relay
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := relay.Connect(ctx); err != nil && !errors.Is(err, ErrAlreadyConnected) {
			return ConnectFailedMsg{Err: err}
		}
		// The relay's hello arrives as ConnectedMsg
		return nil
	}
}

func (a *App) scheduleReconnect() tea.Cmd {
	if !a.reconnect.Allowed(a.attempt) {
		if a.reconnect.MaxAttempts > 0 {
			a.setStatus("Giving up on the relay, restart to retry", true)
		}
		return nil
	}
	delay := a.reconnect.Delay(a.attempt)
	a.attempt++
	a.logger.Info("Reconnecting", zap.Int("attempt", a.attempt), zap.Duration("delay", delay))
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

func (a *App) handleConnected(msg ConnectedMsg) {
	a.connected = true
	a.attempt = 0
	a.stopped = make(map[string]bool)
	a.setStatus("Connected", false)
	a.logger.Info("Relay session", zap.String("session", msg.SessionID))

	if nick := a.chat.Nickname(); nick != "" {
		a.sendToRelay(a.relay.Nick(nick))
	}
	for _, ch := range a.store.Channels() {
		a.sendToRelay(a.relay.Join(ch))
	}
}

func (a *App) handleDisconnected(msg DisconnectedMsg) {
	a.connected = false
	a.logger.Warn("Relay lost", zap.Error(msg.Err))
	for _, ch := range a.store.Channels() {
		a.notice(ch, chatbox.ConnectionErrorNotice)
	}
	a.setStatus("Disconnected from relay", true)
}

func (a *App) handleNotice(msg NoticeMsg) {
	channel := msg.Channel
	if channel == "" {
		if active, ok := a.store.Active(); ok {
			channel = active
		}
	}
	if channel == "" || !a.store.Has(channel) {
		// Nowhere to show it; still honour a nickname rejection
		if nick := a.chat.Nickname(); nick != "" && msg.Text == nick+chatbox.NicknameUsedSuffix {
			a.onNicknameRejected(nick)
			return
		}
		a.setStatus(msg.Text, false)
		return
	}
	a.notice(channel, msg.Text)
}

func (a *App) sendToRelay(err error) {
	if err != nil {
		a.setStatus(fmt.Sprintf("Relay: %v", err), true)
	}
}

// --- ChatBox handlers ---

func (a *App) onSendMessage(channel, text string) {
	if a.relay == nil || !a.connected {
		return
	}
	a.sendToRelay(a.relay.Say(channel, text))
}

func (a *App) onNicknameChanged(nick string) {
	a.saveState()
	if a.relay == nil || !a.connected {
		return
	}
	a.sendToRelay(a.relay.Nick(nick))
}

func (a *App) onStop(channel string) {
	a.stopped[channel] = true
}

func (a *App) onNicknameRejected(nick string) {
	a.setStatus(fmt.Sprintf("Nickname %s is already in use, pick another", nick), true)
	a.setFocus(FocusNick)
}

// --- Store observers ---

func (a *App) onChannelsChanged(state transcript.ChannelState) {
	for ch := range a.cache.rendered {
		if !lo.Contains(state.Channels, ch) {
			a.cache.forget(ch)
			delete(a.stopped, ch)
		}
	}
	a.refreshViewport()
	a.saveState()
}

func (a *App) onRunsAppended(channel string, from int) {
	doc, err := a.store.Document(channel)
	if err != nil {
		return
	}
	a.cache.extend(channel, doc, from)

	if active, ok := a.store.Active(); ok && active == channel {
		atBottom := a.viewport.AtBottom()
		a.viewport.SetContent(a.cache.content(channel, doc))
		if atBottom {
			a.viewport.GotoBottom()
		}
	}
}

// refreshViewport shows the active channel's transcript
func (a *App) refreshViewport() {
	active, ok := a.store.Active()
	if !ok {
		a.viewport.SetContent("")
		return
	}
	doc, err := a.store.Document(active)
	if err != nil {
		return
	}
	a.viewport.SetContent(a.cache.content(active, doc))
	a.viewport.GotoBottom()
}

// --- Theme and state ---

// applyTheme switches theme and re-renders every transcript
func (a *App) applyTheme(name string) error {
	theme, err := themes.GetTheme(a.themesDir, name)
	if err != nil {
		return err
	}
	a.theme = theme
	a.themeName = name
	a.styles = theme.BuildStyles()
	a.cache.restyle(a.styles)
	a.refreshViewport()
	a.saveState()
	return nil
}

func (a *App) saveState() {
	if a.state == nil {
		return
	}
	active, _ := a.store.Active()
	err := a.state.Update(func(s *config.State) {
		s.Nickname = a.chat.Nickname()
		s.Channels = a.store.Channels()
		s.Active = active
		s.Theme = a.themeName
	})
	if err != nil {
		a.logger.Warn("Failed to save state", zap.Error(err))
	}
}

func (a *App) setStatus(text string, isError bool) {
	a.statusMessage = text
	a.statusError = isError
}

// setInfo shows or clears command output, resizing the transcript around it
func (a *App) setInfo(text string) {
	if text == a.info {
		return
	}
	a.info = text
	if a.height > 0 {
		a.updateViewportSize()
	}
}

func (a *App) updateViewportSize() {
	// Channel bar (1), nick/input row (3), status line (1), borders (2)
	height := a.height - 7
	if a.info != "" {
		height -= strings.Count(a.info, "\n") + 1
	}
	if height < 3 {
		height = 3
	}
	width := a.width - 2
	if width < 10 {
		width = 10
	}
	a.viewport.Width = width
	a.viewport.Height = height
	a.input.Width = width - protocol.MaxNickLength - 8
	a.refreshViewport()
}

func validateNick(nick string) error {
	switch {
	case nick == "":
		return errors.New("nickname cannot be empty")
	case len([]rune(nick)) > protocol.MaxNickLength:
		return fmt.Errorf("nickname too long (max %d characters)", protocol.MaxNickLength)
	case strings.ContainsAny(nick, " \t"):
		return errors.New("nickname cannot contain spaces")
	}
	return nil
}
