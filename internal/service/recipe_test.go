package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tastegen/backend/internal/model"
	"github.com/tastegen/backend/internal/recipe"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Recipe{}))
	return db
}

func testRow(name string, overrides func(*model.Recipe)) *model.Recipe {
	calories := 400
	row := &model.Recipe{
		Name:        name,
		Description: "A perfectly serviceable test recipe description.",
		Category:    "dinner",
		Cuisine:     "italian",
		Difficulty:  "easy",
		PrepTime:    20,
		CookTime:    30,
		Servings:    4,
		Calories:    &calories,
		Ingredients: model.IngredientList{
			{Item: "pasta", Quantity: "400", Unit: "g"},
			{Item: "tomatoes", Quantity: "6"},
		},
		Instructions: model.JSONBStringArray{
			"Boil the pasta in salted water.",
			"Simmer the tomatoes into a sauce.",
		},
		Tags: model.JSONBStringArray{"quick", "comfort-food"},
	}
	if overrides != nil {
		overrides(row)
	}
	return row
}

func TestInsertMany(t *testing.T) {
	t.Run("inserts in chunks and assigns ids", func(t *testing.T) {
		db := setupTestDB(t)

		createCalls := 0
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count_creates", func(tx *gorm.DB) {
			createCalls++
		}))

		svc := NewRecipeService(db, 100)

		rows := make([]*model.Recipe, 250)
		for i := range rows {
			rows[i] = testRow(fmt.Sprintf("Recipe %03d", i), nil)
		}

		inserted, err := svc.InsertMany(context.Background(), rows)

		require.NoError(t, err)
		assert.Len(t, inserted, 250)
		assert.Equal(t, 3, createCalls, "250 rows at chunk size 100 is 3 inserts")

		for _, row := range inserted {
			assert.NotEqual(t, uuid.Nil, row.ID)
			assert.NotEmpty(t, row.Embedding.Slice())
		}

		var count int64
		require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
		assert.EqualValues(t, 250, count)
	})

	t.Run("keeps committed chunks on failure", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewRecipeService(db, 2)

		dup := uuid.New()
		rows := []*model.Recipe{
			testRow("First", func(r *model.Recipe) { r.ID = dup }),
			testRow("Second", nil),
			testRow("Third", func(r *model.Recipe) { r.ID = dup }),
			testRow("Fourth", nil),
		}

		inserted, err := svc.InsertMany(context.Background(), rows)

		require.Error(t, err)
		var partial *PartialInsertError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, 2, partial.Inserted)
		assert.Len(t, inserted, 2)

		var count int64
		require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	})

	t.Run("preserves existing embeddings", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewRecipeService(db, 100)

		row := testRow("Embedded", func(r *model.Recipe) {
			r.Embedding = GenerateEmbedding("precomputed text")
		})
		want := row.Embedding.Slice()

		_, err := svc.InsertMany(context.Background(), []*model.Recipe{row})
		require.NoError(t, err)
		assert.Equal(t, want, row.Embedding.Slice())
	})
}

func TestUpdateMedia(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRecipeService(db, 100)

	rows, err := svc.InsertMany(context.Background(), []*model.Recipe{testRow("Target", nil)})
	require.NoError(t, err)
	id := rows[0].ID

	t.Run("patches only provided fields", func(t *testing.T) {
		audioURL := "https://media.test/audio.mp3"
		script := "Welcome to the tutorial"
		require.NoError(t, svc.UpdateMedia(context.Background(), id, MediaUpdate{
			AudioURL:             &audioURL,
			DetailedInstructions: &script,
		}))

		got, err := svc.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, audioURL, got.AudioURL)
		assert.Equal(t, script, got.DetailedInstructions)
		assert.Empty(t, got.ImageURL)
		assert.Equal(t, "Target", got.Name)
	})

	t.Run("patches step images", func(t *testing.T) {
		require.NoError(t, svc.UpdateMedia(context.Background(), id, MediaUpdate{
			StepImages: []string{"https://media.test/step1.png", ""},
		}))

		got, err := svc.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.JSONBStringArray{"https://media.test/step1.png", ""}, got.StepImages)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		url := "x"
		err := svc.UpdateMedia(context.Background(), uuid.New(), MediaUpdate{AudioURL: &url})
		assert.ErrorIs(t, err, ErrRecipeNotFound)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.UpdateMedia(context.Background(), uuid.New(), MediaUpdate{}))
	})
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRecipeService(db, 100)

	seed := []*model.Recipe{
		testRow("Spicy Thai Curry", func(r *model.Recipe) {
			r.Cuisine = "thai"
			r.Difficulty = "medium"
			c := 650
			r.Calories = &c
			r.PrepTime = 35
			r.Tags = model.JSONBStringArray{"spicy", "curry"}
		}),
		testRow("Light Garden Salad", func(r *model.Recipe) {
			r.Category = "salad"
			r.Difficulty = "easy"
			c := 180
			r.Calories = &c
			r.PrepTime = 10
			r.Tags = model.JSONBStringArray{"healthy", "quick"}
		}),
		testRow("Heavy Lasagna", func(r *model.Recipe) {
			r.Category = "pasta"
			c := 900
			r.Calories = &c
			r.PrepTime = 60
			r.Description = "Layered pasta with slow-cooked ragu and bechamel."
		}),
		testRow("Mystery Bake", func(r *model.Recipe) {
			r.Calories = nil
		}),
	}
	_, err := svc.InsertMany(context.Background(), seed)
	require.NoError(t, err)

	t.Run("keyword matches name and description", func(t *testing.T) {
		rows, total, err := svc.Search(context.Background(), SearchParams{Query: "lasagna"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Heavy Lasagna", rows[0].Name)

		rows, _, err = svc.Search(context.Background(), SearchParams{Query: "ragu"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Heavy Lasagna", rows[0].Name)
	})

	t.Run("max calories excludes heavier and unknown", func(t *testing.T) {
		max := 300
		rows, total, err := svc.Search(context.Background(), SearchParams{MaxCalories: &max})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Light Garden Salad", rows[0].Name)
		for _, row := range rows {
			require.NotNil(t, row.Calories)
			assert.LessOrEqual(t, *row.Calories, max)
		}
	})

	t.Run("max prep time bound", func(t *testing.T) {
		max := 30
		_, total, err := svc.Search(context.Background(), SearchParams{MaxPrepTime: &max})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("filters combine", func(t *testing.T) {
		rows, total, err := svc.Search(context.Background(), SearchParams{
			Category:   "salad",
			Difficulty: "easy",
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Light Garden Salad", rows[0].Name)
	})

	t.Run("tag membership", func(t *testing.T) {
		rows, _, err := svc.Search(context.Background(), SearchParams{Tags: []string{"spicy"}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Spicy Thai Curry", rows[0].Name)
	})

	t.Run("pagination with exact total", func(t *testing.T) {
		page1, total, err := svc.Search(context.Background(), SearchParams{Limit: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, page1, 3)

		page2, total, err := svc.Search(context.Background(), SearchParams{Limit: 3, Offset: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, page2, 1)
	})

	t.Run("no matches is empty not error", func(t *testing.T) {
		rows, total, err := svc.Search(context.Background(), SearchParams{Query: "nonexistent dish"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)
	})
}

func TestStatsAndAudioQueries(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRecipeService(db, 100)

	seed := []*model.Recipe{
		testRow("Narrated One", func(r *model.Recipe) { r.AudioURL = "https://media.test/1.mp3" }),
		testRow("Narrated Two", func(r *model.Recipe) {
			r.AudioURL = "https://media.test/2.mp3"
			r.Category = "dessert"
		}),
		testRow("Silent One", nil),
		testRow("Silent Two", func(r *model.Recipe) { r.Difficulty = "hard" }),
	}
	_, err := svc.InsertMany(context.Background(), seed)
	require.NoError(t, err)

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(context.Background())
		require.NoError(t, err)

		assert.EqualValues(t, 4, stats.Total)
		assert.EqualValues(t, 2, stats.WithAudio)
		assert.EqualValues(t, 3, stats.ByCategory["dinner"])
		assert.EqualValues(t, 1, stats.ByCategory["dessert"])
		assert.EqualValues(t, 1, stats.ByDifficulty["hard"])
		assert.EqualValues(t, 4, stats.ByCuisine["italian"])
	})

	t.Run("list without audio", func(t *testing.T) {
		rows, err := svc.ListWithoutAudio(context.Background(), 10)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		for _, row := range rows {
			assert.Empty(t, row.AudioURL)
		}
	})

	t.Run("count with audio", func(t *testing.T) {
		n, err := svc.CountWithAudio(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRecipeService(db, 100)

	rows, err := svc.InsertMany(context.Background(), []*model.Recipe{testRow("Findable", nil)})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Findable", got.Name)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "pasta", got.Ingredients[0].Item)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestFromCanonical(t *testing.T) {
	protein := 25.0
	calories := 420
	c := &recipe.Recipe{
		Name:        "Canonical Dish",
		Description: "Converted from the canonical shape.",
		Category:    "dinner",
		Cuisine:     "french",
		Difficulty:  "hard",
		PrepTime:    25,
		CookTime:    40,
		Servings:    2,
		Calories:    &calories,
		Ingredients: []recipe.Ingredient{
			{Item: "butter", Quantity: "100", Unit: "g"},
			{Item: "shallots", Quantity: "3"},
		},
		Instructions:    []string{"Melt the butter slowly.", "Sweat the shallots until soft."},
		Tags:            []string{"rich"},
		NutritionalInfo: &recipe.NutritionalInfo{Protein: &protein},
	}

	row := model.FromCanonical(c)

	assert.Equal(t, uuid.Nil, row.ID)
	assert.Equal(t, c.Name, row.Name)
	assert.Equal(t, c.Calories, row.Calories)
	assert.Len(t, row.Ingredients, 2)
	require.NotNil(t, row.NutritionalInfo.Protein)
	assert.Equal(t, protein, *row.NutritionalInfo.Protein)
}
