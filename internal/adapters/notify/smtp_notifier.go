package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dialTimeout    = 10 * time.Second
	sessionTimeout = 30 * time.Second
)

// SMTPNotifier delivers digests by SMTP to a fixed recipient list
type SMTPNotifier struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	recipients []string
	tlsConfig  *tls.Config
	logger     *zap.Logger
}

// Option configures an SMTPNotifier
type Option func(*SMTPNotifier)

// WithStartTLS upgrades every session with STARTTLS using cfg. A nil cfg
// verifies the server certificate against the mail host.
func WithStartTLS(cfg *tls.Config) Option {
	return func(n *SMTPNotifier) {
		if cfg == nil {
			cfg = &tls.Config{ServerName: n.host}
		}
		n.tlsConfig = cfg
	}
}

// NewSMTPNotifier creates a new SMTP notifier. Sessions are plain text unless
// WithStartTLS is given.
func NewSMTPNotifier(host string, port int, username, password, from string, recipients []string, logger *zap.Logger, opts ...Option) (*SMTPNotifier, error) {
	if host == "" {
		return nil, fmt.Errorf("mail host is required")
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one mail recipient is required")
	}
	n := &SMTPNotifier{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		recipients: recipients,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify sends one message
func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string) error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mail server: %w", err)
	}

	deadline := time.Now().Add(sessionTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	c, err := n.open(conn, hostname)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	msg, err := n.compose(subject, body, hostname)
	if err != nil {
		return err
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message has already been accepted
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}

	n.logger.Debug("Message sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(n.recipients)))
	return nil
}

// open starts the SMTP session, upgrading it with STARTTLS when configured.
// The STARTTLS handshake greets the server itself, so EHLO is only sent here
// on plain sessions.
func (n *SMTPNotifier) open(conn net.Conn, hostname string) (*smtp.Client, error) {
	if n.tlsConfig != nil {
		c, err := smtp.NewClientStartTLS(conn, n.tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
		return c, nil
	}

	c := smtp.NewClient(conn)
	if err := c.Hello(hostname); err != nil {
		c.Close()
		return nil, fmt.Errorf("EHLO failed: %w", err)
	}
	return c, nil
}

// compose renders a plain text message with quoted-printable body
func (n *SMTPNotifier) compose(subject, body, hostname string) ([]byte, error) {
	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", n.from)
	header("To", strings.Join(n.recipients, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", time.Now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), hostname))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}
