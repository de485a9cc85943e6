package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport hands a rendered message to one relay.
type Transport interface {
	Name() string
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

var ErrStartTLSUnsupported = errors.New("smtp server does not offer STARTTLS")

// SMTPTransport submits through an authenticated relay such as Gmail or Brevo.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	HeloName string
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	tlsConfig := &tls.Config{ServerName: t.Host, MinVersion: tls.VersionTLS12}

	conn, err := dial(ctx, addr, t.Timeout)
	if err != nil {
		return err
	}

	// Port 465 speaks TLS from the first byte
	if t.Port == 465 {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("tls handshake with %s failed: %w", addr, err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, t.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp greeting from %s failed: %w", addr, err)
	}
	defer client.Close()

	if err := client.Hello(heloName(t.HeloName)); err != nil {
		return fmt.Errorf("smtp HELO failed: %w", err)
	}

	offered, _ := client.Extension("STARTTLS")
	upgrade, err := startTLSPolicy(t.Port, offered)
	if err != nil {
		return err
	}
	if upgrade {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("smtp STARTTLS failed: %w", err)
		}
	}

	if err := client.Auth(sasl.NewPlainClient("", t.Username, t.Password)); err != nil {
		return fmt.Errorf("smtp authentication failed: %w", err)
	}

	return deliver(client, from, to, msg)
}

// startTLSPolicy reports whether to upgrade a plaintext session. Port 465 is
// already encrypted, 587 refuses to continue without STARTTLS and any other
// port upgrades only when the server offers it.
func startTLSPolicy(port int, offered bool) (bool, error) {
	switch {
	case port == 465:
		return false, nil
	case offered:
		return true, nil
	case port == 587:
		return false, ErrStartTLSUnsupported
	default:
		return false, nil
	}
}

// DirectTransport hands the message to a local relay without authentication.
type DirectTransport struct {
	Addr     string
	Timeout  time.Duration
	HeloName string
}

func (t *DirectTransport) Name() string { return "direct" }

func (t *DirectTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	conn, err := dial(ctx, t.Addr, t.Timeout)
	if err != nil {
		return err
	}

	host, _, _ := net.SplitHostPort(t.Addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp greeting from %s failed: %w", t.Addr, err)
	}
	defer client.Close()

	if err := client.Hello(heloName(t.HeloName)); err != nil {
		return fmt.Errorf("smtp HELO failed: %w", err)
	}
	return deliver(client, from, to, msg)
}

// dial opens a connection whose deadline is the earlier of timeout and ctx.
func dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	return conn, nil
}

func deliver(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from, nil); err != nil {
		return fmt.Errorf("smtp MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO rejected: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA rejected: %w", err)
	}
	if _, err := bytes.NewReader(msg).WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp server rejected message: %w", err)
	}
	return client.Quit()
}

func heloName(name string) string {
	if name == "" {
		return "localhost"
	}
	return name
}
