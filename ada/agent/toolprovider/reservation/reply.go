package reservation

import (
	"fmt"
	"strings"

	"github.com/odit-bit/ada/ada/dialogue"
)

const (
	DatabaseFailureReply   = "I'm sorry, there was a database error trying to make your reservation. Please try again later."
	UnexpectedFailureReply = "An unexpected error occurred while trying to make your reservation. Please try again."
)

// ConfirmationText is the reply for a saved reservation.
func ConfirmationText(req dialogue.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OK! I've successfully made a reservation for %s on %s at %s for %d guest(s)",
		req.FullName(), req.Date, req.Time, req.PartySize)
	if req.ReservationType != "" {
		fmt.Fprintf(&b, " for %s", req.ReservationType)
	}
	b.WriteString(". Have fun! See you soon!")
	return b.String()
}
