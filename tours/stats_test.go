package tours

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestStatsPipelineExcludesSecretAndLowRated(t *testing.T) {
	pipeline := statsPipeline()

	match, ok := pipeline[0]["$match"].(bson.M)
	if !ok {
		t.Fatalf("first stage = %v, want a $match", pipeline[0])
	}
	secret, ok := match["secretTour"].(bson.M)
	if !ok || secret["$ne"] != true {
		t.Errorf("secretTour match = %v, want $ne true", match["secretTour"])
	}
	rating, ok := match["ratingsAverage"].(bson.M)
	if !ok || rating["$gte"] != 4.5 {
		t.Errorf("ratingsAverage match = %v, want $gte 4.5", match["ratingsAverage"])
	}
}

func TestStatsPipelineGroupsByDifficulty(t *testing.T) {
	pipeline := statsPipeline()

	group, ok := pipeline[1]["$group"].(bson.M)
	if !ok {
		t.Fatalf("second stage = %v, want a $group", pipeline[1])
	}
	id, ok := group["_id"].(bson.M)
	if !ok || id["$toUpper"] != "$difficulty" {
		t.Errorf("group _id = %v, want $toUpper $difficulty", group["_id"])
	}
	ratings, ok := group["numRatings"].(bson.M)
	if !ok || ratings["$sum"] != "$ratingsQuantity" {
		t.Errorf("numRatings = %v, want $sum of $ratingsQuantity", group["numRatings"])
	}
	for _, key := range []string{"numTours", "avgRating", "avgPrice", "minPrice", "maxPrice"} {
		if _, ok := group[key]; !ok {
			t.Errorf("group stage missing %q", key)
		}
	}

	sort, ok := pipeline[2]["$sort"].(bson.M)
	if !ok || sort["avgPrice"] != 1 {
		t.Errorf("sort stage = %v, want avgPrice ascending", pipeline[2])
	}
}

func TestMonthlyPlanPipeline(t *testing.T) {
	pipeline := monthlyPlanPipeline(2027)

	match := pipeline[0]["$match"].(bson.M)
	secret := match["secretTour"].(bson.M)
	if secret["$ne"] != true {
		t.Errorf("secret filter = %v", match)
	}

	if pipeline[1]["$unwind"] != "$startDates" {
		t.Errorf("unwind = %v, want $startDates", pipeline[1])
	}

	window := pipeline[2]["$match"].(bson.M)["startDates"].(bson.M)
	from := window["$gte"].(time.Time)
	to := window["$lte"].(time.Time)
	if from.Year() != 2027 || from.Month() != time.January || from.Day() != 1 {
		t.Errorf("window start = %v", from)
	}
	if to.Year() != 2027 || to.Month() != time.December || to.Day() != 31 {
		t.Errorf("window end = %v", to)
	}

	group := pipeline[3]["$group"].(bson.M)
	id := group["_id"].(bson.M)
	if id["$month"] != "$startDates" {
		t.Errorf("group _id = %v, want $month of $startDates", group["_id"])
	}

	last := pipeline[len(pipeline)-1]
	if last["$limit"] != 12 {
		t.Errorf("final stage = %v, want $limit 12", last)
	}
}

func TestTopCheapQuery(t *testing.T) {
	q := topCheapQuery()

	if q.Get("limit") != "5" {
		t.Errorf("limit = %q, want 5", q.Get("limit"))
	}
	if q.Get("sort") != "-ratingsAverage,price" {
		t.Errorf("sort = %q", q.Get("sort"))
	}
	if q.Get("fields") == "" {
		t.Error("field projection missing")
	}
}

func TestNotSecretFilter(t *testing.T) {
	filter := notSecret()
	secret, ok := filter["secretTour"].(bson.M)
	if !ok || secret["$ne"] != true {
		t.Errorf("filter = %v, want secretTour $ne true", filter)
	}
}
