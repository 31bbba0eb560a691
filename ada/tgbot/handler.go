package tgbot

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/odit-bit/ada/ada/dialogue"
)

const (
	ResetReply       = "Your reservation details were cleared. How can I help you today?"
	UnavailableReply = "service unavailable"
)

type Assistant interface {
	Turn(ctx context.Context, sender, text string) (string, error)
	Reset(ctx context.Context, sender string)
}

// Address is the session key of a telegram chat.
func Address(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

func Handle(ctx context.Context, bot *tele.Bot, a Assistant) {
	h := &Handler{ctx: ctx, a: a}

	bot.Handle("/start", h.HandleStart)
	bot.Handle("/reset", h.HandleReset)
	bot.Handle(tele.OnText, h.HandleText)
}

type Handler struct {
	ctx context.Context
	a   Assistant
}

func (h *Handler) HandleStart(c tele.Context) error {
	return c.Send(dialogue.GreetingReply)
}

func (h *Handler) HandleReset(c tele.Context) error {
	h.a.Reset(h.ctx, Address(c.Chat().ID))
	return c.Send(ResetReply)
}

func (h *Handler) HandleText(c tele.Context) error {
	sender := Address(c.Chat().ID)
	reply, err := h.a.Turn(h.ctx, sender, c.Text())
	if err != nil {
		slog.Error("failed turn", "sender", sender, "error", err)
		return c.Send(UnavailableReply)
	}
	return c.Send(reply)
}
