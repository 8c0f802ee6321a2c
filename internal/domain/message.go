package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string
	Role      Role
	Content   string
	Sources   []Source
	Timestamp time.Time
}

// Source is one citation attached to an assistant answer: the legal
// document it came from and the cited passage.
type Source struct {
	File    string
	Excerpt string
}

func NewUserMessage(content string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: at,
	}
}

func NewAssistantMessage(content string, sources []Source, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Sources:   sources,
		Timestamp: at,
	}
}
