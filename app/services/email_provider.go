package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"sync"
	"time"
)

// EmailAttachment is a file carried by an outgoing email
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// EmailMessage is a plain-text email with optional attachments
type EmailMessage struct {
	To          string
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// MockEmailProvider logs messages and keeps them in memory
type MockEmailProvider struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, msg EmailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	log.Printf("Email sent to %s [%s] (%d attachments)", msg.To, msg.Subject, len(msg.Attachments))
	return nil
}

// FailWith makes every later send return err
func (p *MockEmailProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Sent returns a copy of the delivered messages
func (p *MockEmailProvider) Sent() []EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EmailMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

// SMTPEmailProvider delivers mail over SMTP with implicit TLS or STARTTLS
type SMTPEmailProvider struct {
	host        string
	port        int
	username    string
	password    string
	fromEmail   string
	fromName    string
	useTLS      bool
	useSTARTTLS bool
	timeout     time.Duration
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail, fromName string, useTLS, useSTARTTLS bool, timeout time.Duration) EmailProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPEmailProvider{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		fromEmail:   fromEmail,
		fromName:    fromName,
		useTLS:      useTLS,
		useSTARTTLS: useSTARTTLS,
		timeout:     timeout,
	}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, msg EmailMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email recipient is empty")
	}

	raw, err := buildMIMEMessage(p.fromHeader(), msg)
	if err != nil {
		return err
	}

	client, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if p.useSTARTTLS && !p.useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: p.host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if p.username != "" && p.password != "" {
		auth := smtp.PlainAuth("", p.username, p.password, p.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(p.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

func (p *SMTPEmailProvider) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(p.host, fmt.Sprintf("%d", p.port))
	dialer := &net.Dialer{Timeout: p.timeout}

	var conn net.Conn
	var err error
	if p.useTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: p.host, MinVersion: tls.VersionTLS12}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	_ = conn.SetDeadline(time.Now().Add(p.timeout))

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

func (p *SMTPEmailProvider) fromHeader() string {
	if p.fromName == "" {
		return p.fromEmail
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", p.fromName), p.fromEmail)
}

// buildMIMEMessage renders msg as text/plain, or multipart/mixed when it has attachments
func buildMIMEMessage(from string, msg EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		writeBase64Lines(&buf, []byte(msg.Body))
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	textHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	var body bytes.Buffer
	writeBase64Lines(&body, []byte(msg.Body))
	if _, err := part.Write(body.Bytes()); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", contentType)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		var enc bytes.Buffer
		writeBase64Lines(&enc, a.Content)
		if _, err := part.Write(enc.Bytes()); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64Lines writes data base64-encoded in 76 character lines
func writeBase64Lines(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
