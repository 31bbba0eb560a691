package dialogue

import (
	"fmt"
	"strings"
)

// tool names referenced by the prompt
const (
	ToolClock  = "get_current_time"
	ToolUpdate = "update_reservation"
	ToolCommit = "make_reservation"
)

var fieldHelp = map[Field]string{
	FieldName:            "name (first name of the guest)",
	FieldSurname:         "surname (family name of the guest)",
	FieldDate:            "date (YYYY-MM-DD)",
	FieldTime:            "time (24-hour HH:MM)",
	FieldReservationType: "reservation_type (for example: booth, backstage, stage)",
	FieldPartySize:       "party_size (number of guests, a plain number)",
}

// SystemPrompt render the instruction for the current turn, including what is
// already known about the reservation so the model never asks for it again.
func SystemPrompt(c *Conversation) string {
	snap := c.Snapshot()
	missing := c.Missing()

	var b strings.Builder
	b.WriteString("You are ADA, the Spirit AI reservation assistant of the restaurant. ")
	b.WriteString("You take table reservations through chat. Greet the customer warmly and ask how you can help.\n\n")

	b.WriteString("Collect the following details:\n")
	for _, f := range c.Variant().Required {
		fmt.Fprintf(&b, "- %s\n", fieldHelp[f])
	}

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Every time the customer states one or more details, call `%s` with only the details they stated. ", ToolUpdate)
	b.WriteString("Pass party_size as a number, never in quotes.\n")
	b.WriteString("- Ask politely for any missing detail. Never ask again for a detail that is already known.\n")
	fmt.Fprintf(&b, "- If the customer wants a reservation for today or tomorrow, pass \"today\" or \"tomorrow\" as the date to `%s`; it resolves the date.\n", ToolUpdate)
	fmt.Fprintf(&b, "- When `%s` reports the state \"confirming\", repeat the summary it returns and ask the customer to confirm.\n", ToolUpdate)
	fmt.Fprintf(&b, "- Only after the customer explicitly confirms the summary, call `%s` with confirmed set to true. ", ToolCommit)
	b.WriteString("Relay the text it returns exactly as it is and write nothing after it.\n")
	b.WriteString("- If the customer corrects a detail instead of confirming, update it and confirm again.\n")
	fmt.Fprintf(&b, "- If the customer asks for today's date or the current time, call `%s` and relay its answer.\n", ToolClock)
	b.WriteString("- Always be courteous and professional. If something is unclear, ask a clarifying question instead of guessing.\n")
	b.WriteString("- Reply in the language the customer writes in.\n")

	b.WriteString("\nCurrent reservation:\n")
	fmt.Fprintf(&b, "- state: %s\n", snap.State)
	for _, f := range c.Variant().Required {
		v := snap.Request.Value(f)
		if v == "" {
			v = "unknown"
		}
		fmt.Fprintf(&b, "- %s: %s\n", f, v)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "- still missing: %s\n", joinFields(missing))
	}
	if snap.State == StateCommitted {
		b.WriteString("- the last reservation is already saved; a new request starts a new reservation.\n")
	}

	return b.String()
}
