// Package discord connects the expense conversation to a Discord channel.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"pengeluaran/internal/bot"
	"pengeluaran/internal/log"
)

const (
	maxButtonsPerRow = 5
	maxRows          = 5

	DefaultTimeout = 30 * time.Second
)

// Dispatcher handles translated chat events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) error
}

// api is the subset of *discordgo.Session the adapter calls.
type api interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Limiter throttles events per user.
type Limiter interface {
	Allow(key string) bool
}

type Options struct {
	// ChannelID limits the bot to one channel. Empty accepts every channel.
	ChannelID string
	Timeout   time.Duration
	Logger    *log.Logger
	// Limiter drops events over the per-user rate. Nil disables limiting.
	Limiter   Limiter
}

// Bot is a bot.Messenger backed by a Discord gateway session.
type Bot struct {
	session   *discordgo.Session
	api       api
	handler   Dispatcher
	limiter   Limiter
	channelID string
	timeout   time.Duration
	logger    *log.Logger
	ready     atomic.Bool
	baseCtx   context.Context
	cancel    context.CancelFunc
}

var _ bot.Messenger = (*Bot)(nil)

func New(token string, opts Options) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	b := newBot(session, opts)
	b.session = session

	session.AddHandler(b.onReady)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b, nil
}

func newBot(a api, opts Options) *Bot {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		api:       a,
		limiter:   opts.Limiter,
		channelID: opts.ChannelID,
		timeout:   opts.Timeout,
		logger:    opts.Logger.WithComponent(log.ComponentDiscord),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// SetHandler wires the dispatcher. Call it before Open.
func (b *Bot) SetHandler(d Dispatcher) { b.handler = d }

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

// Close cancels in-flight handlers and disconnects.
func (b *Bot) Close() error {
	b.cancel()
	b.ready.Store(false)
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// Ready reports whether the gateway connection is up.
func (b *Bot) Ready() bool { return b.ready.Load() }

func (b *Bot) Send(_ context.Context, msg bot.OutboundMessage) error {
	data := &discordgo.MessageSend{
		Content:    msg.Text,
		Components: Components(msg.Keyboard),
	}
	if _, err := b.api.ChannelMessageSendComplex(msg.ChatID, data); err != nil {
		return fmt.Errorf("send to channel %s: %w", msg.ChatID, err)
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)
	b.logger.Info("Connected to Discord", "user", r.User.Username)
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.ready.Store(false)
	b.logger.Warn("Disconnected from Discord")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	b.handleMessage(m.Message, selfID)
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(i.Interaction)
}

func (b *Bot) handleMessage(m *discordgo.Message, selfID string) {
	if b.channelID != "" && m.ChannelID != b.channelID {
		return
	}
	ev, ok := EventFromMessage(m, selfID)
	if !ok {
		return
	}
	b.dispatch(ev)
}

func (b *Bot) handleInteraction(i *discordgo.Interaction) {
	if b.channelID != "" && i.ChannelID != b.channelID {
		return
	}
	ev, ok := EventFromInteraction(i)
	if !ok {
		return
	}
	// Acknowledge right away; the reply goes out as a regular message.
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.logger.Warn("Failed to acknowledge interaction", log.FieldError, err)
	}
	b.dispatch(ev)
}

func (b *Bot) dispatch(ev bot.Event) {
	if b.handler == nil {
		return
	}
	if b.limiter != nil && !b.limiter.Allow(ev.UserID) {
		b.logger.Warn("Rate limit exceeded, event dropped",
			"kind", ev.Kind.String(),
			log.FieldUserID, ev.UserID)
		return
	}
	ctx, cancel := context.WithTimeout(b.baseCtx, b.timeout)
	defer cancel()

	if err := b.handler.Dispatch(ctx, ev); err != nil {
		b.logger.ErrorContext(ctx, "Failed to handle event",
			"kind", ev.Kind.String(),
			log.FieldUserID, ev.UserID,
			log.FieldChatID, ev.ChatID,
			log.FieldError, err)
	}
}

// EventFromMessage turns a channel message into a command or text event.
// Messages from bots, including selfID, are dropped.
func EventFromMessage(m *discordgo.Message, selfID string) (bot.Event, bool) {
	if m == nil || m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return bot.Event{}, false
	}
	ev := bot.Event{ChatID: m.ChannelID, UserID: m.Author.ID, Text: m.Content}

	content := strings.TrimSpace(m.Content)
	if len(content) > 1 && (content[0] == '/' || content[0] == '!') {
		fields := strings.Fields(content[1:])
		if len(fields) > 0 {
			ev.Kind = bot.EventCommand
			ev.Command = strings.ToLower(fields[0])
			return ev, true
		}
	}
	ev.Kind = bot.EventText
	return ev, true
}

// EventFromInteraction turns a button press into a button event.
func EventFromInteraction(i *discordgo.Interaction) (bot.Event, bool) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent {
		return bot.Event{}, false
	}
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	data, ok := i.Data.(discordgo.MessageComponentInteractionData)
	if user == nil || !ok {
		return bot.Event{}, false
	}
	return bot.Event{
		Kind:   bot.EventButton,
		ChatID: i.ChannelID,
		UserID: user.ID,
		Data:   data.CustomID,
	}, true
}

// Components lays a keyboard out as Discord action rows. Buttons are flowed
// left to right, five per row; anything past five rows is dropped.
func Components(kb bot.Keyboard) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, row := range kb {
		for _, btn := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    btn.Label,
				Style:    buttonStyle(btn),
				CustomID: btn.Data,
			})
		}
	}
	if len(buttons) > maxButtonsPerRow*maxRows {
		buttons = buttons[:maxButtonsPerRow*maxRows]
	}

	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += maxButtonsPerRow {
		end := min(start+maxButtonsPerRow, len(buttons))
		rows = append(rows, discordgo.ActionsRow{Components: buttons[start:end]})
	}
	return rows
}

func buttonStyle(btn bot.Button) discordgo.ButtonStyle {
	if strings.HasPrefix(btn.Data, bot.ButtonRecordPrefix) {
		return discordgo.PrimaryButton
	}
	return discordgo.SecondaryButton
}
