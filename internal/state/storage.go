// Package state tracks per-user purchase conversations.
package state

import "context"

// Storage persists conversations keyed by user id.
type Storage interface {
	// Get returns the conversation or ErrStateNotFound.
	Get(ctx context.Context, userID int64) (*Conversation, error)
	// Save replaces the conversation of conv.UserID.
	Save(ctx context.Context, conv *Conversation) error
	// Delete removes the conversation. Deleting an absent record is not an error.
	Delete(ctx context.Context, userID int64) error
	// List returns every stored conversation.
	List(ctx context.Context) ([]*Conversation, error)
}
