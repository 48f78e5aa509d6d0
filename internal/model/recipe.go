package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/tastegen/backend/internal/recipe"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// IngredientList stores the ordered ingredient sequence in JSONB
type IngredientList []recipe.Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// NutritionJSON stores the optional per-serving macros in JSONB
type NutritionJSON recipe.NutritionalInfo

// Value implements the driver.Valuer interface
func (n NutritionJSON) Value() (driver.Value, error) {
	return json.Marshal(n)
}

// Scan implements the sql.Scanner interface
func (n *NutritionJSON) Scan(value interface{}) error {
	if value == nil {
		*n = NutritionJSON{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, n)
}

// Recipe is one persisted recipe row. The media columns (audio, image, step
// images) start empty and are patched in after the row exists.
type Recipe struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:50;index" json:"category"`
	Cuisine     string `gorm:"size:50;index" json:"cuisine"`
	Difficulty  string `gorm:"size:20;index" json:"difficulty"`

	// Times are minutes.
	PrepTime int  `gorm:"not null;default:0" json:"prepTime"`
	CookTime int  `gorm:"not null;default:0" json:"cookTime"`
	Servings int  `gorm:"not null;default:1" json:"servings"`
	Calories *int `json:"calories,omitempty"`

	Ingredients     IngredientList   `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Tags            JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	NutritionalInfo NutritionJSON    `gorm:"type:jsonb;not null;default:'{}'" json:"nutritionalInfo"`

	AudioURL             string           `gorm:"size:512" json:"audioUrl,omitempty"`
	DetailedInstructions string           `gorm:"type:text" json:"detailedInstructions,omitempty"`
	ImageURL             string           `gorm:"size:512" json:"imageUrl,omitempty"`
	StepImages           JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"stepImages,omitempty"`

	Embedding pgvector.Vector `gorm:"type:vector(3)" json:"-"`
}

// BeforeCreate assigns the identity when the database cannot (sqlite has no
// gen_random_uuid).
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FromCanonical builds a row from a validated canonical recipe. The ID is
// left unset; persistence assigns it.
func FromCanonical(c *recipe.Recipe) *Recipe {
	r := &Recipe{
		Name:         c.Name,
		Description:  c.Description,
		Category:     c.Category,
		Cuisine:      c.Cuisine,
		Difficulty:   c.Difficulty,
		PrepTime:     c.PrepTime,
		CookTime:     c.CookTime,
		Servings:     c.Servings,
		Calories:     c.Calories,
		Ingredients:  IngredientList(c.Ingredients),
		Instructions: JSONBStringArray(c.Instructions),
		Tags:         JSONBStringArray(c.Tags),
	}
	if c.NutritionalInfo != nil {
		r.NutritionalInfo = NutritionJSON(*c.NutritionalInfo)
	}
	return r
}
