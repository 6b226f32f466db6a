package monitor

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/goliatone/go-station-inbox/core"
)

type ShoutrrrConfig struct {
	URLs    []string      `koanf:"urls" mapstructure:"urls"`
	Title   string        `koanf:"title" mapstructure:"title"`
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

// ShoutrrrSink sends monitor messages to every configured service URL
// (matrix://, telegram://, slack://, ...) through one shoutrrr router.
type ShoutrrrSink struct {
	sender   *router.ServiceRouter
	title    string
	redactor *Redactor
}

func NewShoutrrrSink(config ShoutrrrConfig) (*ShoutrrrSink, error) {
	urls := make([]string, 0, len(config.URLs))
	for _, raw := range config.URLs {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("monitor: at least one shoutrrr url is required")
	}
	redactor := NewRedactor(slices.Clone(urls)...)
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("monitor: create shoutrrr sender: %w", redactor.Error(err))
	}
	if config.Timeout > 0 {
		sender.Timeout = config.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrSink{
		sender:   sender,
		title:    strings.TrimSpace(config.Title),
		redactor: redactor,
	}, nil
}

// Redactor exposes the sink's URL redactor so a Dispatcher can share it.
func (s *ShoutrrrSink) Redactor() *Redactor {
	if s == nil {
		return nil
	}
	return s.redactor
}

func (s *ShoutrrrSink) Deliver(ctx context.Context, msg core.MonitorMessage) error {
	if s == nil || s.sender == nil {
		return fmt.Errorf("monitor: shoutrrr sender not initialized")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	params := stypes.Params{}
	if s.title != "" {
		params.SetTitle(s.title)
	}
	for _, err := range s.sender.Send(shoutrrrBody(msg), &params) {
		if err != nil {
			return s.redactor.Error(err)
		}
	}
	return nil
}

// shoutrrrBody appends the attachment path as a line of its own. Most
// shoutrrr services have no attachment support.
func shoutrrrBody(msg core.MonitorMessage) string {
	body := msg.Text
	if path := strings.TrimSpace(msg.AttachmentPath); path != "" {
		body = strings.TrimRight(body, "\n") + "\n" + path
	}
	return body
}

var _ Sink = (*ShoutrrrSink)(nil)
