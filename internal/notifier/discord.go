package notifier

import (
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// discordAPI is the part of *discordgo.Session the notifier uses.
type discordAPI interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord delivers alerts as direct messages. recipientID is a Discord user id.
type Discord struct {
	api    discordAPI
	logger *logrus.Logger
}

// NewDiscord opens a REST-only session; no gateway connection is needed to send DMs.
func NewDiscord(token string, logger *logrus.Logger) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{api: s, logger: logger}, nil
}

func (d *Discord) Name() string { return KindDiscord }

func (d *Discord) Send(ctx context.Context, recipientID, text string) error {
	ch, err := d.api.UserChannelCreate(recipientID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord open dm: %w", err)
	}
	if _, err := d.api.ChannelMessageSend(ch.ID, toMarkdown(text), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	d.logger.WithField("user_id", recipientID).Debug("discord message sent")
	return nil
}

var (
	reBold   = regexp.MustCompile(`</?b>`)
	reAnchor = regexp.MustCompile(`<a href="([^"]*)">([^<]*)</a>`)
	reTag    = regexp.MustCompile(`<[^>]+>`)
)

// toMarkdown rewrites the small HTML subset used by the messages into Discord markdown.
func toMarkdown(s string) string {
	s = reBold.ReplaceAllString(s, "**")
	s = reAnchor.ReplaceAllString(s, "$2: $1")
	s = reTag.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
