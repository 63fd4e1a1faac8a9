package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/services"
)

// MessageHandler serves the public contact form.
type MessageHandler struct {
	messages *services.MessageService
	log      *logger.Logger
}

func NewMessageHandler(messages *services.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, log: log}
}

// MessageRouter registers message routes on the given router.
func MessageRouter(r chi.Router, messages *services.MessageService, guard *Guard, log *logger.Logger) {
	h := NewMessageHandler(messages, log)

	r.Post("/send", h.Send)
	r.With(guard.RequireAdmin).Get("/getall", h.List)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in services.MessageInput
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	if _, err := h.messages.Send(r.Context(), in); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"message": "Message Sent!"})
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.List(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, envelope{"messages": messages})
}
