package state

import (
	"slices"
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// RecipeState holds the current recipe, the saved library, search and the substitution workflow.
type RecipeState struct {
	Current          *domain.Recipe       `json:"current,omitempty"`
	Persisted        bool                 `json:"persisted"`
	Extracting       bool                 `json:"extracting"`
	Saving           bool                 `json:"saving"`
	Loading          bool                 `json:"loading"`
	Deleting         string               `json:"deleting,omitempty"`
	Recipes          []domain.Recipe      `json:"recipes"`
	Categories       []domain.Category    `json:"categories"`
	Query            string               `json:"query,omitempty"`
	SelectedCategory string               `json:"selected_category,omitempty"`
	Matches          []domain.RecipeMatch `json:"matches"`
	CategoryCounts   map[string]int       `json:"category_counts,omitempty"`
	Substitution     Substitution         `json:"substitution"`
	Error            string               `json:"error,omitempty"`
}

// ExtractRecipe imports a recipe from a web page.
type ExtractRecipe struct {
	URL string `json:"url"`
}

// RecipeLoaded makes Recipe the current, unsaved recipe.
type RecipeLoaded struct {
	Recipe domain.Recipe `json:"recipe"`
}

// RecipeExtractionFailed reports a failed import.
type RecipeExtractionFailed struct {
	Failure domain.Failure `json:"failure"`
}

// SaveRecipe persists the current recipe.
type SaveRecipe struct{}

// RecipeSaved delivers the stored recipe.
type RecipeSaved struct {
	Recipe domain.Recipe `json:"recipe"`
}

// RecipeSaveFailed reports a failed save.
type RecipeSaveFailed struct {
	Failure domain.Failure `json:"failure"`
}

// LoadRecipes loads the group's recipe library.
type LoadRecipes struct{}

// RecipesLoaded delivers the library and its categories.
type RecipesLoaded struct {
	Recipes    []domain.Recipe   `json:"recipes"`
	Categories []domain.Category `json:"categories"`
}

// RecipesLoadFailed reports a failed library load.
type RecipesLoadFailed struct {
	Failure domain.Failure `json:"failure"`
}

// SelectRecipe makes a saved recipe current.
type SelectRecipe struct {
	ID string `json:"id"`
}

// DeleteRecipe removes a saved recipe.
type DeleteRecipe struct {
	ID string `json:"id"`
}

// RecipeDeleted reports a removed recipe.
type RecipeDeleted struct {
	ID string `json:"id"`
}

// RecipeDeleteFailed reports a failed delete.
type RecipeDeleteFailed struct {
	Failure domain.Failure `json:"failure"`
}

// SearchRecipes sets the free-text query.
type SearchRecipes struct {
	Query string `json:"query"`
}

// SelectCategory narrows search results to one category; empty clears the filter.
type SelectCategory struct {
	CategoryID string `json:"category_id"`
}

func (ExtractRecipe) IntentName() string          { return "recipe.extract" }
func (RecipeLoaded) IntentName() string           { return "recipe.loaded" }
func (RecipeExtractionFailed) IntentName() string { return "recipe.extraction_failed" }
func (SaveRecipe) IntentName() string             { return "recipe.save" }
func (RecipeSaved) IntentName() string            { return "recipe.saved" }
func (RecipeSaveFailed) IntentName() string       { return "recipe.save_failed" }
func (LoadRecipes) IntentName() string            { return "recipe.load_all" }
func (RecipesLoaded) IntentName() string          { return "recipe.all_loaded" }
func (RecipesLoadFailed) IntentName() string      { return "recipe.load_all_failed" }
func (SelectRecipe) IntentName() string           { return "recipe.select" }
func (DeleteRecipe) IntentName() string           { return "recipe.delete" }
func (RecipeDeleted) IntentName() string          { return "recipe.deleted" }
func (RecipeDeleteFailed) IntentName() string     { return "recipe.delete_failed" }
func (SearchRecipes) IntentName() string          { return "recipe.search" }
func (SelectCategory) IntentName() string         { return "recipe.select_category" }

func (ExtractRecipe) recipeIntent()          {}
func (RecipeLoaded) recipeIntent()           {}
func (RecipeExtractionFailed) recipeIntent() {}
func (SaveRecipe) recipeIntent()             {}
func (RecipeSaved) recipeIntent()            {}
func (RecipeSaveFailed) recipeIntent()       {}
func (LoadRecipes) recipeIntent()            {}
func (RecipesLoaded) recipeIntent()          {}
func (RecipesLoadFailed) recipeIntent()      {}
func (SelectRecipe) recipeIntent()           {}
func (DeleteRecipe) recipeIntent()           {}
func (RecipeDeleted) recipeIntent()          {}
func (RecipeDeleteFailed) recipeIntent()     {}
func (SearchRecipes) recipeIntent()          {}
func (SelectCategory) recipeIntent()         {}

func (i RecipeExtractionFailed) failure() domain.Failure { return i.Failure }
func (i RecipeSaveFailed) failure() domain.Failure       { return i.Failure }
func (i RecipesLoadFailed) failure() domain.Failure      { return i.Failure }
func (i RecipeDeleteFailed) failure() domain.Failure     { return i.Failure }

// ReduceRecipe applies a recipe or substitution intent.
func ReduceRecipe(s RecipeState, intent RecipeIntent) RecipeState {
	if sub, ok := intent.(substitutionIntent); ok {
		return reduceSubstitution(s, sub)
	}
	switch i := intent.(type) {
	case ExtractRecipe:
		if strings.TrimSpace(i.URL) == "" || s.Extracting {
			return s
		}
		s.Extracting = true
		s.Error = ""
		return s
	case RecipeLoaded:
		s.Current = cloneRecipe(i.Recipe)
		s.Persisted = false
		s.Extracting = false
		s.Error = ""
		s.Substitution = Substitution{Phase: PhaseClosed}
		return s
	case RecipeExtractionFailed:
		if !s.Extracting {
			return s
		}
		s.Extracting = false
		s.Error = i.Failure.Message
		return s
	case SaveRecipe:
		if s.Current == nil || s.Saving {
			return s
		}
		s.Saving = true
		s.Error = ""
		return s
	case RecipeSaved:
		s.Saving = false
		if s.Current == nil || s.Current.ID == i.Recipe.ID {
			s.Current = cloneRecipe(i.Recipe)
			s.Persisted = true
		}
		s.Recipes = upsertRecipe(s.Recipes, i.Recipe)
		return refreshSearch(s)
	case RecipeSaveFailed:
		if !s.Saving {
			return s
		}
		s.Saving = false
		s.Error = i.Failure.Message
		return s
	case LoadRecipes:
		s.Loading = true
		s.Error = ""
		return s
	case RecipesLoaded:
		s.Recipes = make([]domain.Recipe, 0, len(i.Recipes))
		for _, r := range i.Recipes {
			s.Recipes = append(s.Recipes, r.Clone())
		}
		s.Categories = slices.Clone(i.Categories)
		s.Loading = false
		if _, ok := findCategory(s.Categories, s.SelectedCategory); !ok {
			s.SelectedCategory = ""
		}
		return refreshSearch(s)
	case RecipesLoadFailed:
		if !s.Loading {
			return s
		}
		s.Loading = false
		s.Error = i.Failure.Message
		return s
	case SelectRecipe:
		for _, r := range s.Recipes {
			if r.ID == i.ID {
				s.Current = cloneRecipe(r)
				s.Persisted = true
				s.Substitution = Substitution{Phase: PhaseClosed}
				return s
			}
		}
		return s
	case DeleteRecipe:
		if s.Deleting != "" || !hasRecipe(s.Recipes, i.ID) {
			return s
		}
		s.Deleting = i.ID
		s.Error = ""
		return s
	case RecipeDeleted:
		s.Recipes = slices.DeleteFunc(slices.Clone(s.Recipes), func(r domain.Recipe) bool { return r.ID == i.ID })
		if s.Deleting == i.ID {
			s.Deleting = ""
		}
		if s.Current != nil && s.Current.ID == i.ID {
			s.Current = nil
			s.Persisted = false
			s.Substitution = Substitution{Phase: PhaseClosed}
		}
		return refreshSearch(s)
	case RecipeDeleteFailed:
		if s.Deleting == "" {
			return s
		}
		s.Deleting = ""
		s.Error = i.Failure.Message
		return s
	case SearchRecipes:
		s.Query = strings.TrimSpace(i.Query)
		return refreshSearch(s)
	case SelectCategory:
		id := strings.TrimSpace(i.CategoryID)
		if id != "" {
			if _, ok := findCategory(s.Categories, id); !ok {
				return s
			}
		}
		s.SelectedCategory = id
		return refreshSearch(s)
	}
	return s
}

// refreshSearch recomputes matches and per-category counts from the library.
func refreshSearch(s RecipeState) RecipeState {
	membership := domain.MembershipOf(s.Categories)
	matches := domain.SearchRecipes(s.Recipes, s.Query)
	if len(matches) == 0 {
		s.Matches = nil
		s.CategoryCounts = nil
		return s
	}
	s.CategoryCounts = domain.CountByCategory(matches, membership)
	s.Matches = domain.FilterByCategory(matches, s.SelectedCategory, membership)
	return s
}

func cloneRecipe(r domain.Recipe) *domain.Recipe {
	c := r.Clone()
	return &c
}

func upsertRecipe(recipes []domain.Recipe, r domain.Recipe) []domain.Recipe {
	out := slices.Clone(recipes)
	for idx := range out {
		if out[idx].ID == r.ID {
			out[idx] = r.Clone()
			return out
		}
	}
	return append(out, r.Clone())
}

func hasRecipe(recipes []domain.Recipe, id string) bool {
	return slices.ContainsFunc(recipes, func(r domain.Recipe) bool { return r.ID == id })
}

func findCategory(categories []domain.Category, id string) (domain.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}
