package app

import (
	"context"

	"github.com/hylla/famboard/internal/domain"
)

// Repository persists every group-scoped record.
type Repository interface {
	ListGroups(ctx context.Context, userID string) ([]domain.Group, error)
	CreateGroup(ctx context.Context, group domain.Group) error

	ListScheduleEntries(ctx context.Context, owner domain.Owner, from, to domain.Date) ([]domain.DayScheduleEntry, error)
	SaveScheduleEntries(ctx context.Context, entries []domain.DayScheduleEntry) error

	ListAssignments(ctx context.Context, groupID string, from, to domain.Date) ([]domain.DayAssignment, error)
	SaveAssignment(ctx context.Context, assignment domain.DayAssignment) (domain.DayAssignment, error)

	ListRecipes(ctx context.Context, groupID string) ([]domain.Recipe, error)
	SaveRecipe(ctx context.Context, groupID string, recipe domain.Recipe) error
	DeleteRecipe(ctx context.Context, groupID, recipeID string) error
	ListCategories(ctx context.Context, groupID string) ([]domain.Category, error)
	SaveCategory(ctx context.Context, groupID string, category domain.Category) error

	ListShoppingItems(ctx context.Context, groupID string) ([]domain.ShoppingItem, error)
	SaveShoppingItems(ctx context.Context, groupID string, items []domain.ShoppingItem) error
	DeleteShoppingItems(ctx context.Context, groupID string, ids []string) error
}

// Extractor turns a recipe web page into a recipe.
type Extractor interface {
	Extract(ctx context.Context, url string) (domain.Recipe, error)
}

// Transformer rewrites the targeted part of a recipe according to prompt.
type Transformer interface {
	Transform(ctx context.Context, target domain.SubstitutionTarget, prompt string, recipe domain.Recipe) (domain.Recipe, error)
}

// WeatherSource fetches daily forecasts.
type WeatherSource interface {
	Fetch(ctx context.Context, locations []domain.Location, date domain.Date) ([]domain.Weather, error)
}

// Entitlements answers and changes premium status.
type Entitlements interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
	Purchase(ctx context.Context, userID, productID string) error
	Restore(ctx context.Context, userID string) (bool, error)
}

// Sharing manages invitations and join requests.
type Sharing interface {
	CreateInvitation(ctx context.Context, groupID, inviterID string) (string, error)
	AcceptInvitation(ctx context.Context, token, userID, displayName string) (domain.Group, error)
	ListJoinRequests(ctx context.Context, groupID string) ([]domain.JoinRequest, error)
	ApproveJoinRequest(ctx context.Context, groupID, participantID string) error
	RejectJoinRequest(ctx context.Context, groupID, participantID string) error
}

// Ports bundles the capabilities the orchestrator may call; nil ports report ErrNotConfigured.
type Ports struct {
	Repo         Repository
	Extractor    Extractor
	Transformer  Transformer
	Weather      WeatherSource
	Entitlements Entitlements
	Sharing      Sharing
}
