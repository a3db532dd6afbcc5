package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"wayfarer/apperror"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tour difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Tour struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	Slug            string             `json:"slug" bson:"slug"`
	Duration        float64            `json:"duration" bson:"duration"`
	MaxGroupSize    int                `json:"maxGroupSize" bson:"maxGroupSize"`
	Difficulty      string             `json:"difficulty" bson:"difficulty"`
	RatingsAverage  float64            `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int                `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64            `json:"price" bson:"price"`
	PriceDiscount   float64            `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty"`
	Summary         string             `json:"summary" bson:"summary"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string             `json:"imageCover" bson:"imageCover"`
	Images          []string           `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt       time.Time          `json:"-" bson:"created_at"`
	StartDates      []time.Time        `json:"startDates,omitempty" bson:"startDates,omitempty"`
	SecretTour      bool               `json:"secretTour" bson:"secretTour"`
}

// DurationWeeks is the derived field exposed in responses but never
// persisted.
func (t *Tour) DurationWeeks() float64 {
	return t.Duration / 7
}

// MarshalJSON adds the durationWeeks virtual to the serialized document.
func (t Tour) MarshalJSON() ([]byte, error) {
	type alias Tour
	return json.Marshal(struct {
		alias
		DurationWeeks float64 `json:"durationWeeks"`
	}{
		alias:         alias(t),
		DurationWeeks: t.DurationWeeks(),
	})
}

// PrepareForInsert applies the write-time lifecycle steps the controller
// drives explicitly: defaults, slug derivation and timestamping.
func (t *Tour) PrepareForInsert(now time.Time) {
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.9
	}
	t.Slug = Slugify(t.Name)
	t.CreatedAt = now
}

// Validate checks the schema constraints. All violations are collected so
// the caller gets one message naming every problem.
func (t *Tour) Validate() error {
	var problems []string

	name := strings.TrimSpace(t.Name)
	switch {
	case name == "":
		problems = append(problems, "A tour must have a name")
	case len(name) < 10:
		problems = append(problems, "A tour name must have more or equal to 10 characters")
	case len(name) > 40:
		problems = append(problems, "A tour name must have less or equal to 40 characters")
	}

	if t.Duration <= 0 {
		problems = append(problems, "A tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		problems = append(problems, "A tour must have a group size")
	}

	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		problems = append(problems, "Difficulty is either: easy, medium, hard")
	}

	if t.RatingsAverage != 0 && (t.RatingsAverage < 1 || t.RatingsAverage > 5) {
		problems = append(problems, "Rating must be between 1.0 and 5.0")
	}

	if t.Price <= 0 {
		problems = append(problems, "A tour must have a price")
	}
	if t.PriceDiscount != 0 && t.PriceDiscount >= t.Price {
		problems = append(problems, "Discount price should be below regular price")
	}

	if strings.TrimSpace(t.Summary) == "" {
		problems = append(problems, "A tour must have a summary")
	}
	if strings.TrimSpace(t.ImageCover) == "" {
		problems = append(problems, "A tour must have a cover image")
	}

	if len(problems) > 0 {
		return &apperror.ValidationError{Problems: problems}
	}
	return nil
}

// Slugify derives the lowercase-hyphenated slug from a tour name.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
