package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/famboard/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service wraps repository workflows that span several records.
type Service struct {
	repo  Repository
	idGen IDGenerator
	clock Clock
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, idGen: idGen, clock: clock}
}

// EnsureDefaultGroup creates a first group for userID when they belong to none.
func (s *Service) EnsureDefaultGroup(ctx context.Context, userID, displayName string) (domain.Group, error) {
	if s.repo == nil {
		return domain.Group{}, ErrNotConfigured
	}
	groups, err := s.repo.ListGroups(ctx, userID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: list groups: %w", ErrStorage, err)
	}
	if len(groups) > 0 {
		return groups[0], nil
	}

	name := "Family"
	if trimmed := strings.TrimSpace(displayName); trimmed != "" {
		name = trimmed + "'s family"
	}
	group, err := domain.NewGroup(s.idGen(), name, userID, displayName, s.clock())
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return domain.Group{}, fmt.Errorf("%w: create group: %w", ErrStorage, err)
	}
	return group, nil
}

// SeedDemoData fills groupID with a week of availability and assignments, a recipe with a
// category, and a short shopping list.
func (s *Service) SeedDemoData(ctx context.Context, groupID, userID string, weekStart domain.Date) error {
	if s.repo == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(groupID) == "" {
		return ErrNoGroup
	}
	owner := domain.Owner{GroupID: groupID, UserID: userID}

	entries := domain.ReconcileScheduleWeek(weekStart, owner, nil)
	for i := range entries {
		if i < 5 {
			entries[i].DropOff = domain.AvailabilityOK
			entries[i].PickUp = domain.AvailabilityOK
		}
	}
	entries[2].PickUp = domain.AvailabilityNG
	if err := s.repo.SaveScheduleEntries(ctx, entries); err != nil {
		return fmt.Errorf("%w: seed schedule: %w", ErrStorage, err)
	}

	for i, day := range domain.ReconcileAssignmentWeek(weekStart, groupID, nil) {
		if i >= 5 {
			break
		}
		day = day.WithAssignee(domain.SlotDropOff, userID)
		if i%2 == 0 {
			day = day.WithConfirmed(domain.SlotDropOff)
		}
		if i != 4 {
			day = day.WithAssignee(domain.SlotPickUp, userID).WithConfirmed(domain.SlotPickUp)
		}
		if _, err := s.repo.SaveAssignment(ctx, day); err != nil {
			return fmt.Errorf("%w: seed assignments: %w", ErrStorage, err)
		}
	}

	recipe, err := domain.NewRecipe(domain.RecipeInput{
		ID:          s.idGen(),
		Title:       "Weeknight tomato pasta",
		Description: "Twenty minutes, one pot, kids approve.",
		IngredientSections: []domain.IngredientSection{{
			Items: []domain.Ingredient{
				{Name: "spaghetti", Amount: "400 g"},
				{Name: "crushed tomatoes", Amount: "1 can"},
				{Name: "garlic", Amount: "2 cloves"},
				{Name: "parmesan", Amount: "50 g"},
			},
		}},
		StepSections: []domain.StepSection{{
			Steps: []domain.Step{
				{Instruction: "Boil the pasta in salted water."},
				{Instruction: "Fry the garlic, add tomatoes and simmer for ten minutes."},
				{Instruction: "Toss with the pasta and top with parmesan."},
			},
		}},
	}, s.clock())
	if err != nil {
		return err
	}
	if err := s.repo.SaveRecipe(ctx, groupID, recipe); err != nil {
		return fmt.Errorf("%w: seed recipe: %w", ErrStorage, err)
	}
	category := domain.Category{ID: s.idGen(), Name: "Weeknight", RecipeIDs: []string{recipe.ID}}
	if err := s.repo.SaveCategory(ctx, groupID, category); err != nil {
		return fmt.Errorf("%w: seed category: %w", ErrStorage, err)
	}

	items := []domain.ShoppingItem{
		{ID: s.idGen(), Name: "milk", Amount: "2 l"},
		{ID: s.idGen(), Name: "apples", Amount: "1 kg"},
	}
	if err := s.repo.SaveShoppingItems(ctx, groupID, items); err != nil {
		return fmt.Errorf("%w: seed shopping list: %w", ErrStorage, err)
	}
	return nil
}
