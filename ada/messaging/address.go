package messaging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	ErrEmptyAddress   = errors.New("sender address is empty")
	ErrInvalidAddress = errors.New("sender address is not a phone number")
)

// channels whose addresses are phone numbers
var phoneChannels = map[string]bool{
	"":         true,
	"whatsapp": true,
	"sms":      true,
	"tel":      true,
}

// NormalizeAddress canonicalise an inbound sender address so one person
// always maps to one session. Phone numbers are formatted as E.164 and keep
// their channel prefix; other channels pass through.
func NormalizeAddress(addr, defaultRegion string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrEmptyAddress
	}

	channel, rest, ok := strings.Cut(addr, ":")
	if !ok {
		channel, rest = "", addr
	}
	channel = strings.ToLower(strings.TrimSpace(channel))
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ErrEmptyAddress
	}

	if !phoneChannels[channel] {
		return channel + ":" + rest, nil
	}

	region := strings.ToUpper(defaultRegion)
	if region == "" && !strings.HasPrefix(rest, "+") {
		rest = "+" + rest
	}
	num, err := phonenumbers.Parse(rest, region)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	if channel == "" {
		return e164, nil
	}
	return channel + ":" + e164, nil
}
