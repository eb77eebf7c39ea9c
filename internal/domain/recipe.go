package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Ingredient is one line of an ingredient section.
type Ingredient struct {
	Name     string `json:"name"`
	Amount   string `json:"amount,omitempty"`
	Modified bool   `json:"modified,omitempty"`
}

// IngredientSection groups ingredients under an optional heading.
type IngredientSection struct {
	Title string       `json:"title,omitempty"`
	Items []Ingredient `json:"items"`
}

// Step is one numbered instruction; Number is a stable identifier within its section.
type Step struct {
	Number      int      `json:"number"`
	Instruction string   `json:"instruction"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	Modified    bool     `json:"modified,omitempty"`
}

// StepSection groups steps under an optional heading.
type StepSection struct {
	Title string `json:"title,omitempty"`
	Steps []Step `json:"steps"`
}

// Recipe is the recipe aggregate.
type Recipe struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	SourceURL          string              `json:"source_url,omitempty"`
	ImageURLs          []string            `json:"image_urls,omitempty"`
	IngredientSections []IngredientSection `json:"ingredient_sections"`
	StepSections       []StepSection       `json:"step_sections"`
	CreatedAt          time.Time           `json:"created_at"`
}

// RecipeInput holds values for NewRecipe.
type RecipeInput struct {
	ID                 string
	Title              string
	Description        string
	SourceURL          string
	ImageURLs          []string
	IngredientSections []IngredientSection
	StepSections       []StepSection
}

// NewRecipe validates and normalizes a recipe; steps without a number are numbered by position.
func NewRecipe(in RecipeInput, now time.Time) (Recipe, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" {
		return Recipe{}, ErrInvalidID
	}
	if in.Title == "" {
		return Recipe{}, ErrInvalidTitle
	}

	r := Recipe{
		ID:          in.ID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		SourceURL:   strings.TrimSpace(in.SourceURL),
		ImageURLs:   normalizeURLs(in.ImageURLs),
		CreatedAt:   now.UTC(),
	}
	for _, section := range in.IngredientSections {
		items := make([]Ingredient, 0, len(section.Items))
		for _, item := range section.Items {
			item.Name = strings.TrimSpace(item.Name)
			item.Amount = strings.TrimSpace(item.Amount)
			if item.Name == "" {
				continue
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			continue
		}
		r.IngredientSections = append(r.IngredientSections, IngredientSection{
			Title: strings.TrimSpace(section.Title),
			Items: items,
		})
	}
	if len(r.IngredientSections) == 0 {
		return Recipe{}, ErrEmptyIngredients
	}
	for _, section := range in.StepSections {
		steps := make([]Step, 0, len(section.Steps))
		seen := map[int]struct{}{}
		for idx, step := range section.Steps {
			step.Instruction = strings.TrimSpace(step.Instruction)
			if step.Instruction == "" {
				continue
			}
			if step.Number <= 0 {
				step.Number = idx + 1
			}
			if _, ok := seen[step.Number]; ok {
				return Recipe{}, fmt.Errorf("%w: %d", ErrDuplicateStep, step.Number)
			}
			seen[step.Number] = struct{}{}
			step.ImageURLs = normalizeURLs(step.ImageURLs)
			steps = append(steps, step)
		}
		if len(steps) == 0 {
			continue
		}
		r.StepSections = append(r.StepSections, StepSection{
			Title: strings.TrimSpace(section.Title),
			Steps: steps,
		})
	}
	return r, nil
}

// Clone returns a deep copy that shares no slices with r.
func (r Recipe) Clone() Recipe {
	out := r
	out.ImageURLs = slices.Clone(r.ImageURLs)
	out.IngredientSections = nil
	for _, section := range r.IngredientSections {
		section.Items = slices.Clone(section.Items)
		out.IngredientSections = append(out.IngredientSections, section)
	}
	out.StepSections = nil
	for _, section := range r.StepSections {
		steps := make([]Step, 0, len(section.Steps))
		for _, step := range section.Steps {
			step.ImageURLs = slices.Clone(step.ImageURLs)
			steps = append(steps, step)
		}
		section.Steps = steps
		out.StepSections = append(out.StepSections, section)
	}
	return out
}

// IngredientNames flattens every ingredient name in order.
func (r Recipe) IngredientNames() []string {
	out := make([]string, 0)
	for _, section := range r.IngredientSections {
		for _, item := range section.Items {
			out = append(out, item.Name)
		}
	}
	return out
}

// StepInstructions flattens every step instruction in order.
func (r Recipe) StepInstructions() []string {
	out := make([]string, 0)
	for _, section := range r.StepSections {
		for _, step := range section.Steps {
			out = append(out, step.Instruction)
		}
	}
	return out
}

// FindStep locates a step by number within section, returning its index.
func (r Recipe) FindStep(section, number int) (int, bool) {
	if section < 0 || section >= len(r.StepSections) {
		return 0, false
	}
	for idx, step := range r.StepSections[section].Steps {
		if step.Number == number {
			return idx, true
		}
	}
	return 0, false
}

// Markdown renders the recipe for terminal or export output.
func (r Recipe) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	if r.SourceURL != "" {
		fmt.Fprintf(&b, "Source: <%s>\n\n", r.SourceURL)
	}
	b.WriteString("## Ingredients\n\n")
	for _, section := range r.IngredientSections {
		if section.Title != "" {
			fmt.Fprintf(&b, "### %s\n\n", section.Title)
		}
		for _, item := range section.Items {
			line := item.Name
			if item.Amount != "" {
				line = item.Amount + " " + item.Name
			}
			if item.Modified {
				line += " *(substituted)*"
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(r.StepSections) > 0 {
		b.WriteString("## Steps\n\n")
	}
	for _, section := range r.StepSections {
		if section.Title != "" {
			fmt.Fprintf(&b, "### %s\n\n", section.Title)
		}
		for _, step := range section.Steps {
			line := step.Instruction
			if step.Modified {
				line += " *(substituted)*"
			}
			fmt.Fprintf(&b, "%d. %s\n", step.Number, line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// normalizeURLs trims and de-duplicates urls while preserving order.
func normalizeURLs(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
