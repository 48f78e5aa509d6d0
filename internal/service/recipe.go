package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tastegen/backend/internal/model"
)

// ErrRecipeNotFound is returned when a recipe lookup or patch targets a row
// that does not exist.
var ErrRecipeNotFound = errors.New("recipe not found")

// PartialInsertError reports a bulk insert that failed mid-run. Chunks
// committed before the failure stay committed; Inserted says how many rows
// made it in.
type PartialInsertError struct {
	Inserted int
	Err      error
}

func (e *PartialInsertError) Error() string {
	return fmt.Sprintf("insert failed after %d rows: %v", e.Inserted, e.Err)
}

func (e *PartialInsertError) Unwrap() error { return e.Err }

// MediaUpdate is a patch of the media columns on an existing recipe. Nil
// fields are left untouched.
type MediaUpdate struct {
	AudioURL             *string
	DetailedInstructions *string
	ImageURL             *string
	StepImages           []string
}

// RecipeService is the persistence gateway for recipes.
type RecipeService struct {
	db        *gorm.DB
	chunkSize int
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, chunkSize int) *RecipeService {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &RecipeService{db: db, chunkSize: chunkSize}
}

// InsertMany persists rows in fixed-size chunks and returns the rows that
// were actually inserted, with their assigned IDs. On a chunk failure the
// preceding chunks are kept and a PartialInsertError is returned.
func (s *RecipeService) InsertMany(ctx context.Context, rows []*model.Recipe) ([]*model.Recipe, error) {
	inserted := make([]*model.Recipe, 0, len(rows))

	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		chunk := rows[start:end]
		for _, row := range chunk {
			if len(row.Embedding.Slice()) == 0 {
				row.Embedding = GenerateEmbedding(row.Name + " " + row.Description)
			}
		}

		if err := s.db.WithContext(ctx).Create(&chunk).Error; err != nil {
			return inserted, &PartialInsertError{Inserted: len(inserted), Err: err}
		}
		inserted = append(inserted, chunk...)
	}

	return inserted, nil
}

// UpdateMedia patches the media columns of one recipe.
func (s *RecipeService) UpdateMedia(ctx context.Context, id uuid.UUID, update MediaUpdate) error {
	values := map[string]any{}
	if update.AudioURL != nil {
		values["audio_url"] = *update.AudioURL
	}
	if update.DetailedInstructions != nil {
		values["detailed_instructions"] = *update.DetailedInstructions
	}
	if update.ImageURL != nil {
		values["image_url"] = *update.ImageURL
	}
	if update.StepImages != nil {
		values["step_images"] = model.JSONBStringArray(update.StepImages)
	}
	if len(values) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update recipe media: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// Get fetches one recipe by ID.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var row model.Recipe
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to fetch recipe: %w", err)
	}
	return &row, nil
}

// SearchParams filters and pages a recipe search. Zero values mean "no
// filter"; nil pointer bounds are not applied.
type SearchParams struct {
	Query       string
	Category    string
	Cuisine     string
	Difficulty  string
	MaxPrepTime *int
	MaxCalories *int
	Tags        []string
	Limit       int
	Offset      int
}

// Search returns the matching page of recipes plus the exact total count of
// matches. On PostgreSQL, keyword queries are ranked by embedding distance;
// elsewhere results fall back to newest-first.
func (s *RecipeService) Search(ctx context.Context, params SearchParams) ([]model.Recipe, int64, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	isPostgres := s.db.Dialector.Name() == "postgres"

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Recipe{})
		if params.Query != "" {
			like := "%" + strings.ToLower(params.Query) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
		if params.Category != "" {
			q = q.Where("category = ?", strings.ToLower(params.Category))
		}
		if params.Cuisine != "" {
			q = q.Where("cuisine = ?", strings.ToLower(params.Cuisine))
		}
		if params.Difficulty != "" {
			q = q.Where("difficulty = ?", strings.ToLower(params.Difficulty))
		}
		if params.MaxPrepTime != nil {
			q = q.Where("prep_time <= ?", *params.MaxPrepTime)
		}
		if params.MaxCalories != nil {
			q = q.Where("calories IS NOT NULL AND calories <= ?", *params.MaxCalories)
		}
		for _, tag := range params.Tags {
			// Tags live in a JSON array column; match the quoted element.
			needle := `%"` + strings.ToLower(tag) + `"%`
			if isPostgres {
				q = q.Where("tags::text LIKE ?", needle)
			} else {
				q = q.Where("tags LIKE ?", needle)
			}
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	q := base()
	if params.Query != "" && isPostgres {
		vec := GenerateEmbedding(params.Query)
		q = q.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		})
	} else {
		q = q.Order("created_at DESC")
	}

	var rows []model.Recipe
	if err := q.Limit(params.Limit).Offset(params.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search recipes: %w", err)
	}

	return rows, total, nil
}

// RecipeStats summarizes the recipe corpus for the status endpoint.
type RecipeStats struct {
	Total        int64            `json:"total"`
	WithAudio    int64            `json:"withAudio"`
	ByCategory   map[string]int64 `json:"byCategory"`
	ByCuisine    map[string]int64 `json:"byCuisine"`
	ByDifficulty map[string]int64 `json:"byDifficulty"`
}

// Stats computes grouped counts over all recipes.
func (s *RecipeService) Stats(ctx context.Context) (*RecipeStats, error) {
	stats := &RecipeStats{
		ByCategory:   map[string]int64{},
		ByCuisine:    map[string]int64{},
		ByDifficulty: map[string]int64{},
	}

	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	withAudio, err := s.CountWithAudio(ctx)
	if err != nil {
		return nil, err
	}
	stats.WithAudio = withAudio

	type bucket struct {
		Key   string
		Count int64
	}

	group := func(column string, into map[string]int64) error {
		var buckets []bucket
		err := s.db.WithContext(ctx).Model(&model.Recipe{}).
			Select(column + " AS key, COUNT(*) AS count").
			Group(column).
			Scan(&buckets).Error
		if err != nil {
			return fmt.Errorf("failed to group recipes by %s: %w", column, err)
		}
		for _, b := range buckets {
			into[b.Key] = b.Count
		}
		return nil
	}

	if err := group("category", stats.ByCategory); err != nil {
		return nil, err
	}
	if err := group("cuisine", stats.ByCuisine); err != nil {
		return nil, err
	}
	if err := group("difficulty", stats.ByDifficulty); err != nil {
		return nil, err
	}

	return stats, nil
}

// CountWithAudio counts recipes that already carry narration audio.
func (s *RecipeService) CountWithAudio(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Where("audio_url IS NOT NULL AND audio_url <> ''").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count narrated recipes: %w", err)
	}
	return count, nil
}

// ListWithoutAudio returns up to limit recipes that have no narration yet,
// oldest first so backfill works through the backlog in order.
func (s *RecipeService) ListWithoutAudio(ctx context.Context, limit int) ([]model.Recipe, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.Recipe
	err := s.db.WithContext(ctx).
		Where("audio_url IS NULL OR audio_url = ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes without audio: %w", err)
	}
	return rows, nil
}
