package tours

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wayfarer/apperror"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	statsCacheKey  = "tours:stats"
	planCachePref  = "tours:plan:"
	aggregateTTL   = 10 * time.Minute
	maxPlanMonths  = 12
	minStatsRating = 4.5
)

func statsPipeline() []bson.M {
	return []bson.M{
		{"$match": bson.M{
			"secretTour":     bson.M{"$ne": true},
			"ratingsAverage": bson.M{"$gte": minStatsRating},
		}},
		{"$group": bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}},
		{"$sort": bson.M{"avgPrice": 1}},
	}
}

func monthlyPlanPipeline(year int) []bson.M {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return []bson.M{
		{"$match": bson.M{"secretTour": bson.M{"$ne": true}}},
		{"$unwind": "$startDates"},
		{"$match": bson.M{"startDates": bson.M{"$gte": from, "$lte": to}}},
		{"$group": bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}},
		{"$addFields": bson.M{"month": "$_id"}},
		{"$project": bson.M{"_id": 0}},
		{"$sort": bson.M{"numTourStarts": -1}},
		{"$limit": maxPlanMonths},
	}
}

// Stats handles GET /api/v1/tours/tour-stats: per-difficulty aggregates
// over the well-rated tours, served from cache when possible.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	if cached, ok := h.Cache.Get(ctx, statsCacheKey); ok {
		utils.Success(w, http.StatusOK, utils.M{"stats": json.RawMessage(cached)})
		return nil
	}

	cursor, err := h.Tours.Aggregate(ctx, statsPipeline())
	if err != nil {
		return err
	}
	stats := []bson.M{}
	if err := cursor.All(ctx, &stats); err != nil {
		return err
	}

	if body, err := json.Marshal(stats); err == nil {
		h.Cache.SetWithExpiry(ctx, statsCacheKey, string(body), aggregateTTL)
	}

	utils.Success(w, http.StatusOK, utils.M{"stats": stats})
	return nil
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/:year: the monthly
// distribution of tour starts in a calendar year, busiest month first. A
// year with no tours yields an empty list, not an error.
func (h *Handler) MonthlyPlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	year, err := strconv.Atoi(ps.ByName("year"))
	if err != nil || year < 1 {
		return apperror.BadRequest("Invalid year: " + ps.ByName("year"))
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	cacheKey := planCachePref + strconv.Itoa(year)
	if cached, ok := h.Cache.Get(ctx, cacheKey); ok {
		utils.Success(w, http.StatusOK, utils.M{"plan": json.RawMessage(cached)})
		return nil
	}

	cursor, err := h.Tours.Aggregate(ctx, monthlyPlanPipeline(year))
	if err != nil {
		return err
	}
	plan := []bson.M{}
	if err := cursor.All(ctx, &plan); err != nil {
		return err
	}

	if body, err := json.Marshal(plan); err == nil {
		h.Cache.SetWithExpiry(ctx, cacheKey, string(body), aggregateTTL)
	}

	utils.Success(w, http.StatusOK, utils.M{"plan": plan})
	return nil
}

// invalidateAggregates drops the cached stats and the plan entries for
// every year the tour has a start date in.
func (h *Handler) invalidateAggregates(ctx context.Context, tour *models.Tour) {
	keys := []string{statsCacheKey}
	seen := map[int]bool{}
	for _, start := range tour.StartDates {
		year := start.UTC().Year()
		if !seen[year] {
			seen[year] = true
			keys = append(keys, fmt.Sprintf("%s%d", planCachePref, year))
		}
	}
	h.Cache.Del(ctx, keys...)
}
