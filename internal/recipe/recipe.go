package recipe

// Categories lists the accepted recipe categories, cycled during diverse
// batch generation to guarantee coverage across a large run.
var Categories = []string{
	"breakfast", "lunch", "dinner", "snack", "dessert", "beverage",
	"appetizer", "salad", "soup", "pasta", "meat", "fish", "vegetarian", "vegan",
}

// Cuisines lists the accepted regional styles.
var Cuisines = []string{
	"brazilian", "italian", "mexican", "japanese", "chinese", "indian",
	"french", "american", "mediterranean", "thai", "korean", "greek",
	"spanish", "middle-eastern", "fusion",
}

// Difficulties lists the accepted difficulty levels.
var Difficulties = []string{"easy", "medium", "hard"}

// Ingredient is one entry of a recipe's ingredient list.
type Ingredient struct {
	Item     string `json:"item" validate:"required,min=2,max=200"`
	Quantity string `json:"quantity" validate:"required,min=1,max=50"`
	Unit     string `json:"unit,omitempty" validate:"omitempty,max=50"`
}

// NutritionalInfo holds optional per-serving macros in grams.
type NutritionalInfo struct {
	Protein *float64 `json:"protein,omitempty"`
	Carbs   *float64 `json:"carbs,omitempty"`
	Fat     *float64 `json:"fat,omitempty"`
	Fiber   *float64 `json:"fiber,omitempty"`
}

// Recipe is the canonical recipe shape. Raw generator output is coerced into
// this struct by Normalize and accepted or rejected by Validate; only
// validated recipes are ever persisted.
type Recipe struct {
	Name        string `json:"name" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10,max=1000"`
	Category    string `json:"category" validate:"required,oneof=breakfast lunch dinner snack dessert beverage appetizer salad soup pasta meat fish vegetarian vegan"`
	Cuisine     string `json:"cuisine" validate:"required,oneof=brazilian italian mexican japanese chinese indian french american mediterranean thai korean greek spanish middle-eastern fusion"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=easy medium hard"`

	// Times are minutes.
	PrepTime int  `json:"prepTime" validate:"min=1,max=480"`
	CookTime int  `json:"cookTime" validate:"min=0,max=480"`
	Servings int  `json:"servings" validate:"min=1,max=50"`
	Calories *int `json:"calories,omitempty" validate:"omitempty,min=0,max=5000"`

	Ingredients  []Ingredient `json:"ingredients" validate:"min=2,max=50,dive"`
	Instructions []string     `json:"instructions" validate:"min=2,max=30,dive,min=10,max=1000"`
	Tags         []string     `json:"tags,omitempty" validate:"max=20,dive,max=50"`

	NutritionalInfo *NutritionalInfo `json:"nutritionalInfo,omitempty"`
}
