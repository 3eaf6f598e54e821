package handlers

import (
	"context"

	"github.com/Kamron201111/telegram-stars-bot/internal/catalog"
	"github.com/Kamron201111/telegram-stars-bot/internal/domain"
	"github.com/Kamron201111/telegram-stars-bot/internal/purchase"
	"github.com/Kamron201111/telegram-stars-bot/internal/repository"
	"github.com/Kamron201111/telegram-stars-bot/internal/state"
)

// Profiles reads and merges user profiles. repository.ProfileStore implements it.
type Profiles interface {
	GetProfile(ctx context.Context, userID int64) (*domain.Profile, repository.Outcome)
	UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) repository.Outcome
}

// Purchases is the purchase dialogue. purchase.Flow implements it.
type Purchases interface {
	SelectByCallback(ctx context.Context, userID int64, data string) (catalog.Package, error)
	SubmitUsername(ctx context.Context, userID int64, text string) (*state.Conversation, error)
	SubmitPayment(ctx context.Context, buyer purchase.Buyer, proof purchase.Proof) (*purchase.Receipt, error)
	Cancel(ctx context.Context, userID int64) (bool, error)
}

// ProfileCounter counts stored profiles.
type ProfileCounter interface {
	CountProfiles(ctx context.Context) (int, error)
}

// OrderReader lists unexpired orders, newest first.
type OrderReader interface {
	RecentOrders(ctx context.Context, limit int, status *domain.OrderStatus) ([]*domain.Order, error)
}

// ConversationLister lists purchases in progress. state.Storage implements it.
type ConversationLister interface {
	List(ctx context.Context) ([]*state.Conversation, error)
}
