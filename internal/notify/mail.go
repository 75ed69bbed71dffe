package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
)

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// Staff receives a copy of every registration and contact message.
	Staff    string
	SiteName string
	Location *time.Location
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	cfg  MailConfig
	send sendFunc
}

func NewMailer(cfg MailConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

type mail struct {
	to      string
	replyTo string
	subject string
	body    string
}

func (m *Mailer) deliver(ctx context.Context, ml mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", ml.to)
	if ml.replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", ml.replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", ml.subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(ml.body, "\n", "\r\n"))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{ml.to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send email to %s: %w", ml.to, err)
	}
	return nil
}

func (m *Mailer) NotifyRegistration(ctx context.Context, event database.Event, reg database.EventRegistration) error {
	when := formatDate(event.Date, m.cfg.Location)

	body := fmt.Sprintf("Hallo %s,\n\nvielen Dank für Ihre Anmeldung zur Veranstaltung „%s“ am %s (%s).\n"+
		"Wir melden uns, sobald Ihre Teilnahme bestätigt ist.\n\nMit freundlichen Grüßen\n%s\n",
		reg.FirstName, event.Title, when, event.Location, m.cfg.SiteName)
	err := m.deliver(ctx, mail{
		to:      reg.Email,
		subject: "Ihre Anmeldung: " + event.Title,
		body:    body,
	})

	if m.cfg.Staff != "" {
		staff := fmt.Sprintf("Neue Anmeldung für „%s“ (%s)\n\nName: %s\nE-Mail: %s\nTelefon: %s\nNachricht: %s\n",
			event.Title, when, reg.FullName(), reg.Email, reg.Phone, reg.Message)
		if serr := m.deliver(ctx, mail{
			to:      m.cfg.Staff,
			replyTo: reg.Email,
			subject: "Neue Anmeldung: " + event.Title,
			body:    staff,
		}); err == nil {
			err = serr
		}
	}
	return err
}

func (m *Mailer) NotifyContact(ctx context.Context, msg database.ContactMessage) error {
	if m.cfg.Staff == "" {
		return nil
	}
	body := fmt.Sprintf("Von: %s <%s>\nBetreff: %s\n\n%s\n", msg.Name, msg.Email, msg.Subject, msg.Message)
	return m.deliver(ctx, mail{
		to:      m.cfg.Staff,
		replyTo: msg.Email,
		subject: "Kontaktanfrage: " + msg.Subject,
		body:    body,
	})
}
