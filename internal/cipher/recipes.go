package cipher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const recipeExt = ".yml"

// RecipeManager handles storage and retrieval of recipes. Recipes persist as
// one YAML document per file when a store path is configured.
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	mu        sync.RWMutex
}

// NewRecipeManager creates a new recipe manager
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
	}
}

// SaveRecipe validates and stores a recipe
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	if recipe == nil || recipe.Name == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if err := validatePipeline(&recipe.Pipeline); err != nil {
		return fmt.Errorf("recipe %s: %w", recipe.Name, err)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if recipe.CreatedAt == "" {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	rm.recipes[recipe.Name] = recipe

	if rm.storePath != "" {
		return rm.persistRecipe(recipe)
	}
	return nil
}

// GetRecipe retrieves a recipe by name
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipe, exists := rm.recipes[name]
	return recipe, exists
}

// ListRecipes returns all recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
	return recipes
}

// DeleteRecipe removes a recipe
func (rm *RecipeManager) DeleteRecipe(name string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.recipes, name)

	if rm.storePath != "" {
		recipePath := filepath.Join(rm.storePath, sanitizeFilename(name)+recipeExt)
		if err := os.Remove(recipePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	return nil
}

// LoadRecipes loads all recipes from the store path
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}

		recipe, err := LoadRecipeFile(filepath.Join(rm.storePath, entry.Name()))
		if err != nil {
			return err
		}
		rm.recipes[recipe.Name] = recipe
	}
	return nil
}

// LoadRecipeFile parses a single YAML recipe.
func LoadRecipeFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", filepath.Base(path), err)
	}
	var recipe Recipe
	if err := yaml.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("failed to parse recipe %s: %w", filepath.Base(path), err)
	}
	if recipe.Name == "" {
		recipe.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := validatePipeline(&recipe.Pipeline); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", recipe.Name, err)
	}
	return &recipe, nil
}

func (rm *RecipeManager) persistRecipe(recipe *Recipe) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	data, err := yaml.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	recipePath := filepath.Join(rm.storePath, sanitizeFilename(recipe.Name)+recipeExt)
	if err := os.WriteFile(recipePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// SearchRecipes finds recipes whose name, description, or tags contain query,
// ignoring case
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	query = strings.ToLower(query)
	results := make([]*Recipe, 0)
	for _, recipe := range rm.ListRecipes() {
		if strings.Contains(strings.ToLower(recipe.Name), query) ||
			strings.Contains(strings.ToLower(recipe.Description), query) {
			results = append(results, recipe)
			continue
		}
		for _, tag := range recipe.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, recipe)
				break
			}
		}
	}
	return results
}

func validatePipeline(p *Pipeline) error {
	if len(p.Operations) == 0 {
		return fmt.Errorf("pipeline has no operations")
	}
	for i, step := range p.Operations {
		if _, ok := GetOperation(step.Name); !ok {
			return fmt.Errorf("unknown operation at step %d: %s", i, step.Name)
		}
	}
	return nil
}

// sanitizeFilename converts a recipe name to a safe filename
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}
