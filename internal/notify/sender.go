package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cablebill/internal/log"
)

// Channel selects how a message leaves the system.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

var (
	ErrNotConfigured  = errors.New("messaging api not configured")
	ErrUnknownChannel = errors.New("unknown messaging channel")
	ErrMissingPhone   = errors.New("missing phone number")
	ErrDeliveryFailed = errors.New("message delivery failed")
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// HTTPSender posts {"to", "message"} to a gateway with a bearer key.
type HTTPSender struct {
	channel Channel
	url     string
	apiKey  string
	client  *http.Client
}

func NewHTTPSender(channel Channel, url, apiKey string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		channel: channel,
		url:     strings.TrimSpace(url),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both the gateway URL and key are set.
func (s *HTTPSender) Configured() bool {
	return s != nil && s.url != "" && s.apiKey != ""
}

func (s *HTTPSender) Send(ctx context.Context, to, message string) error {
	if s == nil {
		return ErrNotConfigured
	}
	if !s.Configured() {
		return fmt.Errorf("%s: %w", s.channel, ErrNotConfigured)
	}
	if strings.TrimSpace(to) == "" {
		return ErrMissingPhone
	}
	body, err := json.Marshal(map[string]string{"to": to, "message": message})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s gateway returned %d", ErrDeliveryFailed, s.channel, resp.StatusCode)
	}
	return nil
}

// Notifier routes messages to the sender for a channel.
type Notifier struct {
	senders map[Channel]Sender
	logger  *log.Logger
}

func NewNotifier(logger *log.Logger, sms, whatsapp Sender) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	n := &Notifier{senders: map[Channel]Sender{}, logger: logger.WithComponent(log.ComponentNotify)}
	if sms != nil {
		n.senders[ChannelSMS] = sms
	}
	if whatsapp != nil {
		n.senders[ChannelWhatsApp] = whatsapp
	}
	return n
}

func (n *Notifier) Send(ctx context.Context, channel Channel, to, message string) error {
	sender, ok := n.senders[channel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	if err := sender.Send(ctx, to, message); err != nil {
		n.logger.WarnContext(ctx, "Message not sent",
			log.FieldOperation, log.OpSend, "channel", channel,
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeRemote)
		return err
	}
	n.logger.InfoContext(ctx, "Message sent", log.FieldOperation, log.OpSend, "channel", channel)
	return nil
}
