// Package messages is the contact-form inbox: public visitors create messages,
// admins read, toggle and delete them, and a snapshot feed pushes inbox state
// to the admin UI as it changes.
package messages

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("message not found")
	ErrBodyRequired = errors.New("message text is required")
)

// Message is one contact-form submission.
type Message struct {
	ID        primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Phone     string             `json:"phone" bson:"phone"`
	Email     string             `json:"email" bson:"email"`
	Body      string             `json:"message" bson:"message"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Repository provides inbox persistence. List returns newest first.
type Repository interface {
	Insert(ctx context.Context, m *Message) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountUnread(ctx context.Context) (int64, error)
}

// Notifier is told after every successful mutation so feeds can refresh.
type Notifier interface {
	Notify(ctx context.Context)
}

// Service wraps the repository with validation and change notification.
type Service struct {
	repo     Repository
	notifier Notifier
}

// NewService creates a Service; notifier may be nil.
func NewService(r Repository, n Notifier) *Service {
	return &Service{repo: r, notifier: n}
}

func (s *Service) Create(ctx context.Context, name, phone, email, body string) (*Message, error) {
	if body == "" {
		return nil, ErrBodyRequired
	}
	m := &Message{Name: name, Phone: phone, Email: email, Body: body}
	created, err := s.repo.Insert(ctx, m)
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]*Message, error) {
	return s.repo.List(ctx)
}

func (s *Service) SetRead(ctx context.Context, id primitive.ObjectID, read bool) (*Message, error) {
	m, err := s.repo.SetRead(ctx, id, read)
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) CountUnread(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Notify(ctx)
	}
}
