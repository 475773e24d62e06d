package whitelist

import (
	"strings"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Checker tells whether a sender belongs to a trusted domain. Messages from
// trusted senders are accepted by the intake without a classification call.
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new trusted domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	c := &Checker{
		domains: make(map[string]struct{}, len(domains)),
		logger:  logger,
	}
	for _, domain := range domains {
		d := strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if d != "" {
			c.domains[d] = struct{}{}
		}
	}

	if len(c.domains) > 0 && logger != nil {
		logger.Info("Initialized trusted domain checker", zap.Int("domains", len(c.domains)))
	}

	return c
}

// Len returns the number of trusted domains
func (c *Checker) Len() int {
	return len(c.domains)
}

// IsTrusted reports whether the sender's domain, or one of its parent
// domains, is trusted
func (c *Checker) IsTrusted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := SenderDomain(from)
	for d := domain; d != ""; {
		if _, ok := c.domains[d]; ok {
			if c.logger != nil {
				c.logger.Debug("Sender domain is trusted",
					zap.String("domain", domain),
					zap.String("matched", d))
			}
			return true
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
	}

	return false
}

// SenderDomain extracts the lower-cased domain of an envelope path or a
// From header value. It returns "" when there is no domain.
func SenderDomain(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		from = addr.Address
	}
	from = strings.Trim(from, "<>")

	at := strings.LastIndexByte(from, '@')
	if at < 0 || at == len(from)-1 {
		return ""
	}
	return strings.ToLower(from[at+1:])
}
