package domain

import "strings"

// MatchField is a bitset of the recipe fields a query matched.
type MatchField uint8

// MatchField bits.
const (
	MatchTitle MatchField = 1 << iota
	MatchDescription
	MatchIngredient
	MatchStep
)

// Has reports whether every bit of f is set in m.
func (m MatchField) Has(f MatchField) bool {
	return m&f == f
}

// Fields lists the matched field names in a stable order.
func (m MatchField) Fields() []string {
	out := make([]string, 0, 4)
	if m.Has(MatchTitle) {
		out = append(out, "title")
	}
	if m.Has(MatchDescription) {
		out = append(out, "description")
	}
	if m.Has(MatchIngredient) {
		out = append(out, "ingredients")
	}
	if m.Has(MatchStep) {
		out = append(out, "steps")
	}
	return out
}

// RecipeMatch is one search hit.
type RecipeMatch struct {
	RecipeID string     `json:"recipe_id"`
	Title    string     `json:"title"`
	Fields   MatchField `json:"fields"`
}

// NormalizeQuery trims and case-folds a free-text query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// SearchRecipes returns the recipes matching query in input order; an empty query matches nothing.
func SearchRecipes(recipes []Recipe, query string) []RecipeMatch {
	query = NormalizeQuery(query)
	if query == "" {
		return nil
	}
	out := make([]RecipeMatch, 0)
	for _, r := range recipes {
		var fields MatchField
		if containsFold(r.Title, query) {
			fields |= MatchTitle
		}
		if containsFold(r.Description, query) {
			fields |= MatchDescription
		}
		for _, name := range r.IngredientNames() {
			if containsFold(name, query) {
				fields |= MatchIngredient
				break
			}
		}
		for _, instruction := range r.StepInstructions() {
			if containsFold(instruction, query) {
				fields |= MatchStep
				break
			}
		}
		if fields == 0 {
			continue
		}
		out = append(out, RecipeMatch{RecipeID: r.ID, Title: r.Title, Fields: fields})
	}
	return out
}

// CategoryMembership maps a category id to the set of recipe ids in it.
type CategoryMembership map[string]map[string]struct{}

// MembershipOf builds the category membership for categories.
func MembershipOf(categories []Category) CategoryMembership {
	out := make(CategoryMembership, len(categories))
	for _, c := range categories {
		members := make(map[string]struct{}, len(c.RecipeIDs))
		for _, id := range c.RecipeIDs {
			members[id] = struct{}{}
		}
		out[c.ID] = members
	}
	return out
}

// Contains reports whether recipeID belongs to categoryID.
func (m CategoryMembership) Contains(categoryID, recipeID string) bool {
	_, ok := m[categoryID][recipeID]
	return ok
}

// FilterByCategory keeps matches in categoryID; an empty category keeps every match.
func FilterByCategory(matches []RecipeMatch, categoryID string, membership CategoryMembership) []RecipeMatch {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return matches
	}
	out := make([]RecipeMatch, 0, len(matches))
	for _, m := range matches {
		if membership.Contains(categoryID, m.RecipeID) {
			out = append(out, m)
		}
	}
	return out
}

// CountByCategory counts the matches falling into each category.
func CountByCategory(matches []RecipeMatch, membership CategoryMembership) map[string]int {
	out := make(map[string]int, len(membership))
	for categoryID := range membership {
		n := 0
		for _, m := range matches {
			if membership.Contains(categoryID, m.RecipeID) {
				n++
			}
		}
		out[categoryID] = n
	}
	return out
}

func containsFold(haystack, folded string) bool {
	return strings.Contains(strings.ToLower(haystack), folded)
}
