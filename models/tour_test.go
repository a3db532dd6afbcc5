package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"wayfarer/apperror"
)

func validTour() Tour {
	return Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTourValidateOK(t *testing.T) {
	tour := validTour()
	if err := tour.Validate(); err != nil {
		t.Fatalf("valid tour rejected: %v", err)
	}
}

func TestTourValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tour)
		want   string
	}{
		{"missing name", func(tr *Tour) { tr.Name = "" }, "must have a name"},
		{"name too short", func(tr *Tour) { tr.Name = "Short" }, "more or equal to 10"},
		{"name too long", func(tr *Tour) { tr.Name = strings.Repeat("x", 41) }, "less or equal to 40"},
		{"bad difficulty", func(tr *Tour) { tr.Difficulty = "extreme" }, "easy, medium, hard"},
		{"rating too high", func(tr *Tour) { tr.RatingsAverage = 5.5 }, "between 1.0 and 5.0"},
		{"rating too low", func(tr *Tour) { tr.RatingsAverage = 0.5 }, "between 1.0 and 5.0"},
		{"no price", func(tr *Tour) { tr.Price = 0 }, "must have a price"},
		{"discount equals price", func(tr *Tour) { tr.PriceDiscount = tr.Price }, "below regular price"},
		{"discount above price", func(tr *Tour) { tr.PriceDiscount = tr.Price + 1 }, "below regular price"},
		{"no summary", func(tr *Tour) { tr.Summary = " " }, "must have a summary"},
		{"no cover", func(tr *Tour) { tr.ImageCover = "" }, "cover image"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tour := validTour()
			tc.mutate(&tour)

			err := tour.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			valErr, ok := err.(*apperror.ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want *apperror.ValidationError", err)
			}
			if !strings.Contains(valErr.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", valErr.Error(), tc.want)
			}
		})
	}
}

func TestTourPrepareForInsert(t *testing.T) {
	tour := validTour()
	now := time.Now()
	tour.PrepareForInsert(now)

	if tour.Slug != "the-forest-hiker" {
		t.Errorf("slug = %q", tour.Slug)
	}
	if tour.RatingsAverage != 4.9 {
		t.Errorf("default ratingsAverage = %v, want 4.9", tour.RatingsAverage)
	}
	if !tour.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", tour.CreatedAt, now)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The Forest Hiker", "the-forest-hiker"},
		{"  Snow   &  Ice! ", "snow-ice"},
		{"Tour 2027", "tour-2027"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTourMarshalJSON(t *testing.T) {
	tour := validTour()
	tour.Duration = 14
	tour.CreatedAt = time.Now()

	raw, err := json.Marshal(tour)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}

	if out["durationWeeks"] != 2.0 {
		t.Errorf("durationWeeks = %v, want 2", out["durationWeeks"])
	}
	if _, ok := out["created_at"]; ok {
		t.Error("created_at must be hidden from responses")
	}
	if _, ok := out["createdAt"]; ok {
		t.Error("createdAt must be hidden from responses")
	}
}
