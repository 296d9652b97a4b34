package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"FareSentinel/internal/model"
)

// EmailNotifier sends price alerts to a single recipient over implicit-TLS
// SMTP with PLAIN authentication. Each alert uses its own connection.
type EmailNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Now      func() time.Time

	// TLSConfig overrides the client TLS settings; ServerName defaults to Host.
	TLSConfig   *tls.Config
	DialTimeout time.Duration
}

// DefaultDialTimeout bounds connecting and the TLS handshake.
const DefaultDialTimeout = 30 * time.Second

// NewEmailNotifier creates a notifier that authenticates as from.
func NewEmailNotifier(host string, port int, from, to, password string) *EmailNotifier {
	return &EmailNotifier{
		Host:        host,
		Port:        port,
		Username:    from,
		Password:    password,
		From:        from,
		To:          to,
		Now:         time.Now,
		DialTimeout: DefaultDialTimeout,
	}
}

// Notify composes and sends one alert email.
func (e *EmailNotifier) Notify(ctx context.Context, a model.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Password == "" {
		return fmt.Errorf("smtp password not configured")
	}
	msg, err := e.buildMessage(a)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	conn, err := e.dial(ctx)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", e.Username, e.Password)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.SendMail(e.From, []string{e.To}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}

// dial opens the implicit-TLS connection, honoring ctx and DialTimeout.
func (e *EmailNotifier) dial(ctx context.Context) (net.Conn, error) {
	timeout := e.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	cfg := &tls.Config{}
	if e.TLSConfig != nil {
		cfg = e.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = e.Host
	}

	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    cfg,
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

func (e *EmailNotifier) buildMessage(a model.Alert) ([]byte, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var h mail.Header
	h.SetDate(now())
	h.SetAddressList("From", []*mail.Address{{Address: e.From}})
	h.SetAddressList("To", []*mail.Address{{Address: e.To}})
	h.SetSubject(FormatAlertSubject(a))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, FormatAlertBody(a)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
