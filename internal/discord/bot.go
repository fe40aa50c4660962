package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/Dev-Aaron27/fireboard/internal/backendclient"
	"github.com/Dev-Aaron27/fireboard/internal/config"
	"github.com/Dev-Aaron27/fireboard/internal/optout"
	"github.com/Dev-Aaron27/fireboard/internal/tracker"
)

// Reactions set on a tracked message to report the submission outcome.
const (
	reactionAccepted  = "✅"
	reactionDuplicate = "🔁"
	reactionFailed    = "⚠️"
)

// Bot wires the Discord gateway to the tracker and the backend client.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config
	tracker *tracker.Tracker
	optout  *optout.Store
	backend *backendclient.Client
}

// NewBot creates the Discord session and registers the message handler. The
// session is not opened yet; call Start.
func NewBot(cfg *config.Config, optoutStore *optout.Store, backend *backendclient.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		cfg:     cfg,
		optout:  optoutStore,
		backend: backend,
	}
	b.tracker = tracker.NewTracker(cfg.Discord.GuildID, cfg.Categories, optoutStore, b)

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)

	return b, nil
}

// Start opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	<-ctx.Done()
	return b.session.Close()
}

// CreateChannelInvite implements tracker.InviteCreator with a time-limited,
// unlimited-use invite.
func (b *Bot) CreateChannelInvite(ctx context.Context, channelID string) (string, error) {
	invite, err := b.session.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxAge:  b.cfg.Discord.InviteMaxAgeSecs,
		MaxUses: 0,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return "https://discord.gg/" + invite.Code, nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logrus.Infof("Logged in as %s#%s", r.User.Username, r.User.Discriminator)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	b.trackMessage(s, m)
	b.processCommands(s, m)
}

// trackMessage runs the admission filters and, if the message qualifies,
// submits the ad to the backend and reports the outcome as a reaction.
func (b *Bot) trackMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	ev, err := b.toEvent(s, m)
	if err != nil {
		logrus.Warnf("Skipping message %s: %v", m.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.BackendTimeout())
	defer cancel()

	ad, err := b.tracker.Normalize(ctx, ev)
	if err != nil {
		logrus.Errorf("Failed to normalize message %s: %v", m.ID, err)
		return
	}
	if ad == nil {
		return
	}

	status, err := b.backend.SubmitAd(ctx, ad)
	if err != nil {
		logrus.Errorf("Error sending ad: %v", err)
		b.react(s, m, reactionFailed)
		return
	}

	switch status {
	case backendclient.StatusDuplicate:
		logrus.Infof("Duplicate ad from %s in %s", m.Author.Username, ad.Category)
		b.react(s, m, reactionDuplicate)
	default:
		logrus.Infof("Sent ad from %s in %s", m.Author.Username, ad.Category)
		b.react(s, m, reactionAccepted)
	}
}

// toEvent maps a gateway message to the tracker's platform-independent event.
func (b *Bot) toEvent(s *discordgo.Session, m *discordgo.MessageCreate) (*tracker.Event, error) {
	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable author id %q: %w", m.Author.ID, err)
	}

	ev := &tracker.Event{
		MessageID: m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  authorID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}

	if m.GuildID != "" {
		if guild, err := s.State.Guild(m.GuildID); err == nil {
			ev.GuildName = guild.Name
		} else if guild, err := s.Guild(m.GuildID); err == nil {
			ev.GuildName = guild.Name
		}
	}

	channel, err := s.State.Channel(m.ChannelID)
	if err != nil {
		channel, err = s.Channel(m.ChannelID)
	}
	if err == nil {
		ev.CategoryID = channel.ParentID
	}

	return ev, nil
}

func (b *Bot) react(s *discordgo.Session, m *discordgo.MessageCreate, emoji string) {
	if err := s.MessageReactionAdd(m.ChannelID, m.ID, emoji); err != nil {
		logrus.Warnf("Failed to add reaction to message %s: %v", m.ID, err)
	}
}

// processCommands handles the opt-out commands. Both are idempotent with a
// distinct reply when nothing changed.
func (b *Bot) processCommands(s *discordgo.Session, m *discordgo.MessageCreate) {
	content := strings.TrimSpace(m.Content)
	prefix := b.cfg.Discord.CommandPrefix
	if !strings.HasPrefix(content, prefix) {
		return
	}

	authorID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}

	switch strings.Fields(content)[0] {
	case prefix + "optout":
		changed, err := b.optout.OptOut(authorID)
		if err != nil {
			logrus.Errorf("Failed to persist opt-out for %d: %v", authorID, err)
			b.reply(s, m, "⚠️ Something went wrong, please try again later.")
			return
		}
		if changed {
			b.reply(s, m, "✅ You have opted out of Fire Board tracking.")
		} else {
			b.reply(s, m, "❌ You are already opted out.")
		}
	case prefix + "optin":
		changed, err := b.optout.OptIn(authorID)
		if err != nil {
			logrus.Errorf("Failed to persist opt-in for %d: %v", authorID, err)
			b.reply(s, m, "⚠️ Something went wrong, please try again later.")
			return
		}
		if changed {
			b.reply(s, m, "✅ You have opted back in to Fire Board tracking.")
		} else {
			b.reply(s, m, "❌ You are already opted in.")
		}
	}
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		logrus.Warnf("Failed to send reply in channel %s: %v", m.ChannelID, err)
	}
}
