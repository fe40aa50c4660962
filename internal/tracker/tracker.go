package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dev-Aaron27/fireboard/internal/models"
)

// Event is a platform-independent view of an inbound guild message.
type Event struct {
	MessageID  string
	GuildID    string
	GuildName  string
	ChannelID  string
	CategoryID string // empty when the channel has no category
	AuthorID   int64
	AuthorBot  bool
	Content    string
	CreatedAt  time.Time
}

// InviteCreator creates a fresh invite link scoped to a channel. Implemented
// by the Discord gateway adapter.
type InviteCreator interface {
	CreateChannelInvite(ctx context.Context, channelID string) (string, error)
}

// OptOutChecker reports whether an author has opted out of tracking.
type OptOutChecker interface {
	Contains(authorID int64) bool
}

// Tracker turns raw inbound events into canonical ad records. All of its
// state is read-only after construction.
type Tracker struct {
	guildID    string
	categories map[string]string
	optout     OptOutChecker
	invites    InviteCreator
}

// NewTracker creates a Tracker for a single guild with a fixed category table.
func NewTracker(guildID string, categories map[string]string, optout OptOutChecker, invites InviteCreator) *Tracker {
	return &Tracker{
		guildID:    guildID,
		categories: categories,
		optout:     optout,
		invites:    invites,
	}
}

// Normalize applies the admission filters to an event and, if it qualifies,
// builds the ad record to submit. A nil record with a nil error means the
// event was filtered out.
func (t *Tracker) Normalize(ctx context.Context, ev *Event) (*models.Ad, error) {
	if ev.AuthorBot {
		return nil, nil
	}
	if ev.GuildID == "" || ev.GuildID != t.guildID {
		return nil, nil
	}
	if t.optout.Contains(ev.AuthorID) {
		return nil, nil
	}
	if strings.TrimSpace(ev.Content) == "" {
		return nil, nil
	}
	if ev.CategoryID == "" {
		return nil, nil
	}
	categoryName, ok := t.categories[ev.CategoryID]
	if !ok {
		return nil, nil
	}

	return &models.Ad{
		ServerName: ev.GuildName,
		Category:   categoryName,
		Content:    ev.Content,
		Invite:     t.resolveInvite(ctx, ev),
		Timestamp:  ev.CreatedAt.UTC(),
		AuthorID:   ev.AuthorID,
	}, nil
}

// resolveInvite picks an invite link out of the message body, or creates a
// fresh one for the channel. Failure to create an invite is not fatal: the
// record carries the sentinel instead.
func (t *Tracker) resolveInvite(ctx context.Context, ev *Event) string {
	if containsInviteLink(ev.Content) {
		for _, word := range strings.Fields(ev.Content) {
			if containsInviteLink(word) {
				return word
			}
		}
	}

	invite, err := t.invites.CreateChannelInvite(ctx, ev.ChannelID)
	if err != nil {
		logrus.Warnf("Failed to create invite for channel %s: %v", ev.ChannelID, err)
		return models.NoInvite
	}
	return invite
}

func containsInviteLink(s string) bool {
	return strings.Contains(s, "discord.gg") || strings.Contains(s, "discord.com/invite")
}
