package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// Email validation failures the verdict engine recovers from locally
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrASCIIAnomaly = errors.New("ascii anomaly in email address")
)

// EmailAddress is an immutable, per-request view of the address under test
type EmailAddress struct {
	Raw        string // as received
	Normalized string // lowercased, trimmed, IDN TLD punycoded
	Domain     string // extracted from Normalized
}

var (
	emailRe   = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.(xn--[a-z0-9\-]+|[a-z]{2,})$`)
	noReplyRe = regexp.MustCompile(`(?i)\bno[-_]?reply\b`)
)

// ParseEmail validates and normalizes a raw address.
//
// Rules, in order:
//   - the address must split into local@domain
//   - a non-ASCII local part or a non-ASCII label below the TLD is a visual
//     anomaly (ErrASCIIAnomaly): lookalike unicode in those positions is an
//     impersonation signal, not an internationalized mailbox
//   - an internationalized TLD is legitimate and is normalized to punycode
//   - addresses failing the format check are still accepted when they carry a
//     recognizable no-reply marker, since many legitimate automated senders
//     use oddly shaped no-reply mailboxes
func ParseEmail(raw string) (*EmailAddress, error) {
	base := strings.ToLower(strings.TrimSpace(raw))

	at := strings.LastIndex(base, "@")
	if at <= 0 || at == len(base)-1 {
		return nil, ErrInvalidEmail
	}
	local, dom := base[:at], base[at+1:]

	if !isASCII(local) {
		return nil, ErrASCIIAnomaly
	}

	normDom, err := normalizeIDNDomain(dom)
	if err != nil {
		return nil, err
	}

	normalized := local + "@" + normDom
	if !emailRe.MatchString(normalized) && !noReplyRe.MatchString(raw) {
		return nil, ErrInvalidEmail
	}

	return &EmailAddress{Raw: raw, Normalized: normalized, Domain: normDom}, nil
}

// normalizeIDNDomain converts IDN labels to punycode. Only the TLD label may
// legitimately be internationalized; unicode anywhere else in the domain is
// treated as a visual anomaly.
func normalizeIDNDomain(dom string) (string, error) {
	dom = strings.TrimSuffix(dom, ".")
	labels := strings.Split(dom, ".")
	if len(labels) < 2 {
		return "", ErrInvalidEmail
	}

	for i, label := range labels {
		if label == "" {
			return "", ErrInvalidEmail
		}
		if isASCII(label) {
			continue
		}
		if i != len(labels)-1 {
			return "", ErrASCIIAnomaly
		}
		ascii, err := idna.Lookup.ToASCII(label)
		if err != nil {
			return "", ErrInvalidEmail
		}
		labels[i] = ascii
	}

	return strings.Join(labels, "."), nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
