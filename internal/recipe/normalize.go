package recipe

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Normalize coerces a raw generator object of unknown shape into the
// canonical Recipe shape. It trims strings, lowercases enum fields and tags,
// parses numeric-looking strings, and tolerates the generator's varying
// phrasing (ingredient "item" vs "name", instructions as strings or objects).
// Normalize never rejects; imperfect data flows on to Validate, which does.
func Normalize(raw map[string]any) Recipe {
	r := Recipe{
		Name:        strings.TrimSpace(asString(raw["name"])),
		Description: strings.TrimSpace(asString(raw["description"])),
		Category:    lowered(raw["category"]),
		Cuisine:     lowered(raw["cuisine"]),
		Difficulty:  lowered(raw["difficulty"]),
	}

	r.PrepTime = intOr(raw["prepTime"], 0)
	r.CookTime = intOr(raw["cookTime"], 0)
	r.Servings = intOr(raw["servings"], 1)

	if v, ok := raw["calories"]; ok && v != nil {
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			// blank string means the generator omitted the estimate
		} else if n, parsed := parseLeadingInt(v); parsed {
			r.Calories = &n
		} else {
			// Unparseable calories must not validate; -1 is outside the
			// 0..5000 bound.
			bad := -1
			r.Calories = &bad
		}
	}

	if items, ok := raw["ingredients"].([]any); ok {
		r.Ingredients = make([]Ingredient, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				r.Ingredients = append(r.Ingredients, Ingredient{})
				continue
			}
			item := strings.TrimSpace(asString(m["item"]))
			if item == "" {
				item = strings.TrimSpace(asString(m["name"]))
			}
			r.Ingredients = append(r.Ingredients, Ingredient{
				Item:     item,
				Quantity: strings.TrimSpace(stringify(m["quantity"])),
				Unit:     strings.TrimSpace(asString(m["unit"])),
			})
		}
	} else {
		r.Ingredients = []Ingredient{}
	}

	r.Instructions = []string{}
	if steps, ok := raw["instructions"].([]any); ok {
		for _, s := range steps {
			var step string
			switch t := s.(type) {
			case string:
				step = strings.TrimSpace(t)
			case map[string]any:
				step = strings.TrimSpace(asString(t["description"]))
			}
			if step != "" {
				r.Instructions = append(r.Instructions, step)
			}
		}
	}

	r.Tags = []string{}
	if tags, ok := raw["tags"].([]any); ok {
		for _, t := range tags {
			r.Tags = append(r.Tags, strings.ToLower(strings.TrimSpace(asString(t))))
		}
	}

	if info, ok := raw["nutritionalInfo"].(map[string]any); ok {
		r.NutritionalInfo = &NutritionalInfo{
			Protein: floatPtr(info["protein"]),
			Carbs:   floatPtr(info["carbs"]),
			Fat:     floatPtr(info["fat"]),
			Fiber:   floatPtr(info["fiber"]),
		}
	}

	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// stringify renders quantities that arrive as numbers ("quantity": 2) the
// way the schema expects them: as strings.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func lowered(v any) string {
	return strings.ToLower(strings.TrimSpace(asString(v)))
}

func intOr(v any, fallback int) int {
	if n, ok := parseLeadingInt(v); ok {
		return n
	}
	return fallback
}

// parseLeadingInt parses integers the way the generator emits them: bare
// numbers, or strings with a leading integer ("30 minutes" -> 30).
func parseLeadingInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		i := 0
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i {
			return 0, false
		}
		n, err := strconv.Atoi(s[:j])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func floatPtr(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	}
	return nil
}
