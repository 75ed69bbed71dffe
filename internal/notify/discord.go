package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/bwmarrin/discordgo"
)

// messageSender is the part of *discordgo.Session used here.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
	loc       *time.Location
}

func NewDiscordNotifier(session *discordgo.Session, channelID string, loc *time.Location) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		loc:       loc,
	}
}

// NewDiscordSession creates a bot session. Sending channel messages only
// needs the REST API, so the session is not opened.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return s, nil
}

func (n *DiscordNotifier) send(ctx context.Context, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

func (n *DiscordNotifier) NotifyRegistration(ctx context.Context, event database.Event, reg database.EventRegistration) error {
	codeStr := ""
	if reg.InvitationCode != nil {
		codeStr = fmt.Sprintf("\n**Einladungscode:** %s", reg.InvitationCode.Code)
	}
	messageStr := ""
	if reg.Message != "" {
		messageStr = fmt.Sprintf("\n**Nachricht:** %s", reg.Message)
	}

	message := fmt.Sprintf("📝 **Neue Anmeldung**\n**Veranstaltung:** %s (%s)\n**Name:** %s\n**E-Mail:** %s%s%s",
		event.Title,
		formatDate(event.Date, n.loc),
		reg.FullName(),
		reg.Email,
		codeStr,
		messageStr,
	)
	return n.send(ctx, message)
}

func (n *DiscordNotifier) NotifyContact(ctx context.Context, msg database.ContactMessage) error {
	message := fmt.Sprintf("✉️ **Neue Kontaktanfrage**\n**Von:** %s <%s>\n**Betreff:** %s",
		msg.Name, msg.Email, msg.Subject)
	return n.send(ctx, message)
}
