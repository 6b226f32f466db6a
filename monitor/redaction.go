package monitor

import (
	"net/url"
	"strings"
	"sync"
)

const RedactedValue = "[REDACTED]"

// Redactor replaces known secret fragments of notification URLs in error
// text. shoutrrr errors may echo the full service URL including tokens.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

func NewRedactor(urls ...string) *Redactor {
	r := &Redactor{}
	r.Register(urls...)
	return r
}

// Register records the secret parts of each URL: user info, password, path
// segments and sensitive query values.
func (r *Redactor) Register(urls ...string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, raw := range urls {
		r.secrets = append(r.secrets, urlSecrets(raw)...)
	}
}

func (r *Redactor) String(value string) string {
	if r == nil {
		return value
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, secret := range r.secrets {
		value = strings.ReplaceAll(value, secret, RedactedValue)
	}
	return value
}

func (r *Redactor) Error(err error) error {
	if err == nil {
		return nil
	}
	redacted := r.String(err.Error())
	if redacted == err.Error() {
		return err
	}
	return &redactedError{message: redacted, cause: err}
}

type redactedError struct {
	message string
	cause   error
}

func (e *redactedError) Error() string {
	return e.message
}

// Unwrap keeps errors.Is working against sentinels while the message stays
// scrubbed.
func (e *redactedError) Unwrap() error {
	return e.cause
}

// RedactURL returns raw with credentials, path tokens and sensitive query
// values masked. It is safe to log.
func RedactURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" {
		return RedactedValue
	}
	if parsed.User != nil {
		parsed.User = url.User(RedactedValue)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		parsed.Path = "/" + RedactedValue
		parsed.RawPath = ""
	}
	query := parsed.Query()
	for key := range query {
		if shouldRedactKey(key) {
			query.Set(key, RedactedValue)
		}
	}
	parsed.RawQuery = query.Encode()
	out, unescapeErr := url.PathUnescape(parsed.String())
	if unescapeErr != nil {
		return parsed.String()
	}
	return out
}

func urlSecrets(raw string) []string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	var secrets []string
	add := func(value string) {
		value = strings.TrimSpace(value)
		if len(value) >= 4 {
			secrets = append(secrets, value)
		}
	}
	if parsed.User != nil {
		add(parsed.User.Username())
		if password, ok := parsed.User.Password(); ok {
			add(password)
		}
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		add(segment)
	}
	for key, values := range parsed.Query() {
		if !shouldRedactKey(key) {
			continue
		}
		for _, value := range values {
			add(value)
		}
	}
	return secrets
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	for _, token := range []string{
		"password",
		"secret",
		"token",
		"authorization",
		"api_key",
		"apikey",
		"access_key",
		"credential",
		"signature",
	} {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}
