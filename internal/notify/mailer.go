// Package notify delivers outbound email for the QR dashboard. The SMTP mailer
// sends share emails carrying a QR code image so recipients can scan it directly
// from their inbox. Delivery is a single best-effort attempt with no retry;
// failures propagate to the caller. The share operation never persists anything.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/qr-dashboard/qr-dashboard/internal/config"
	"github.com/qr-dashboard/qr-dashboard/internal/db/models"
)

// Mailer sends QR code share emails.
type Mailer interface {
	SendQRCodeShare(ctx context.Context, toEmail string, code *models.QRCode) error
}

// SMTPMailer delivers share emails through a configured SMTP server.
type SMTPMailer struct {
	cfg *config.NotificationsConfig
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg *config.NotificationsConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Enabled reports whether the mailer can actually deliver mail.
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.SMTP.Host != ""
}

// SendQRCodeShare composes and delivers a share email for the given QR code.
// The QR image is attached inline as a multipart/related part so mail clients
// render it without fetching anything remote.
func (m *SMTPMailer) SendQRCodeShare(ctx context.Context, toEmail string, code *models.QRCode) error {
	if !m.Enabled() {
		return fmt.Errorf("mail delivery is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "A QR code has been shared with you"
	msg := m.composeShareMessage(toEmail, subject, code)

	smtpCfg := &m.cfg.SMTP
	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	auth := smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)

	if smtpCfg.UseTLS {
		return sendMailTLS(addr, smtpCfg.Host, auth, smtpCfg.From, []string{toEmail}, msg)
	}
	return smtp.SendMail(addr, auth, smtpCfg.From, []string{toEmail}, msg)
}

// composeShareMessage builds the full RFC 5322 message: a multipart/related
// body with a plain-text part and the PNG image as an inline attachment.
func (m *SMTPMailer) composeShareMessage(toEmail, subject string, code *models.QRCode) []byte {
	const boundary = "qr-share-boundary"

	text := strings.Join([]string{
		"Hello,",
		"",
		fmt.Sprintf("A QR code has been shared with you. It encodes the following %s:", code.Kind),
		"",
		"  " + code.Content,
		"",
		"The QR code image is attached. Scan it with any QR reader.",
		"",
		"— QR Dashboard",
	}, "\r\n")

	// ImageURL is a data:image/png;base64 URL; strip the scheme prefix to get
	// the raw base64 payload for the attachment part.
	payload := code.ImageURL
	if idx := strings.Index(payload, ","); idx != -1 {
		payload = payload[idx+1:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.SMTP.From)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/related; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: image/png\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("Content-Disposition: inline; filename=\"qrcode.png\"\r\n\r\n")
	// Wrap the base64 payload at 76 columns per RFC 2045.
	for len(payload) > 76 {
		b.WriteString(payload[:76])
		b.WriteString("\r\n")
		payload = payload[76:]
	}
	b.WriteString(payload)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a message.
// Use this when UseTLS=true and the port is 465; for port 587 STARTTLS,
// smtp.SendMail handles the upgrade automatically — but we call this path for
// both so the config is unambiguous: UseTLS=true always means an encrypted connection.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		// Fall back to STARTTLS via the standard smtp.SendMail path (port 587 pattern)
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", addr, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
