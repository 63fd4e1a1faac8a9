package services

import (
	"context"
	"strings"

	"github.com/shaan-hospital/apiserver/internal/validate"
	"github.com/shaan-hospital/apiserver/types"
)

// MessageRepository defines persistence operations for contact messages.
type MessageRepository interface {
	Create(ctx context.Context, msg types.Message) (types.Message, error)
	List(ctx context.Context) ([]types.Message, error)
}

// MessageInput is a message submitted through the public contact form.
type MessageInput struct {
	FirstName string `json:"firstName" validate:"required,min=3"`
	LastName  string `json:"lastName" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,numeric,len=11"`
	Message   string `json:"message" validate:"required,min=10"`
}

// MessageService encapsulates message use-cases.
type MessageService struct {
	repo MessageRepository
}

func NewMessageService(repo MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

func (s *MessageService) Send(ctx context.Context, in MessageInput) (types.Message, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	if err := validate.Struct(in); err != nil {
		return types.Message{}, err
	}
	return s.repo.Create(ctx, types.Message{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
	})
}

func (s *MessageService) List(ctx context.Context) ([]types.Message, error) {
	return s.repo.List(ctx)
}
