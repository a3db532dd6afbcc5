package tours

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"wayfarer/apiquery"
	"wayfarer/apperror"
	"wayfarer/models"
	"wayfarer/rdx"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const dbTimeout = 5 * time.Second

// updatable lists the fields a PATCH may touch. Everything else in the
// body is dropped.
var updatable = map[string]bool{
	"name":            true,
	"duration":        true,
	"maxGroupSize":    true,
	"difficulty":      true,
	"ratingsAverage":  true,
	"ratingsQuantity": true,
	"price":           true,
	"priceDiscount":   true,
	"summary":         true,
	"description":     true,
	"imageCover":      true,
	"images":          true,
	"startDates":      true,
	"secretTour":      true,
}

// Handler owns the tour endpoints.
type Handler struct {
	Tours     *mongo.Collection
	Cache     *rdx.Cache
	UploadDir string
}

func NewHandler(tours *mongo.Collection, cache *rdx.Cache, uploadDir string) *Handler {
	return &Handler{Tours: tours, Cache: cache, UploadDir: uploadDir}
}

// notSecret is merged into every read and aggregate so secret tours never
// leave the database.
func notSecret() bson.M {
	return bson.M{"secretTour": bson.M{"$ne": true}}
}

func parseID(raw string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperror.BadRequest("Invalid ID: " + raw)
	}
	return oid, nil
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), dbTimeout)
}

// List handles GET /api/v1/tours with filter/sort/fields/page/limit
// parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	features := apiquery.New(r.URL.Query(), "created_at").Apply()

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	cursor, err := h.Tours.Find(ctx, features.Filters(notSecret()), features.FindOptions())
	if err != nil {
		return err
	}

	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return err
	}

	if len(tours) == 0 && features.Page() > 1 {
		return apperror.NotFound("This page does not exist")
	}

	utils.SuccessList(w, http.StatusOK, len(tours), utils.M{"tours": tours})
	return nil
}

// topCheapQuery presets the list parameters for the five best-rated
// cheap tours.
func topCheapQuery() url.Values {
	q := url.Values{}
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	return q
}

// TopCheap is the alias route over List.
func (h *Handler) TopCheap(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	r.URL.RawQuery = topCheapQuery().Encode()
	return h.List(w, r, ps)
}

// Get handles GET /api/v1/tours/:id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	filter := notSecret()
	filter["_id"] = oid

	var tour models.Tour
	if err := h.Tours.FindOne(ctx, filter).Decode(&tour); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperror.NotFound("No tour found with that ID")
		}
		return err
	}

	utils.Success(w, http.StatusOK, utils.M{"tour": tour})
	return nil
}

// Create handles POST /api/v1/tours.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var tour models.Tour
	if err := json.NewDecoder(r.Body).Decode(&tour); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	tour.ID = primitive.NilObjectID
	tour.PrepareForInsert(time.Now())
	if err := tour.Validate(); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	res, err := h.Tours.InsertOne(ctx, tour)
	if err != nil {
		return err
	}
	tour.ID = res.InsertedID.(primitive.ObjectID)

	h.invalidateAggregates(ctx, &tour)
	utils.Success(w, http.StatusCreated, utils.M{"tour": tour})
	return nil
}

// Update handles PATCH /api/v1/tours/:id. The stored document is loaded,
// the allowed fields merged on top, and the result re-validated before it
// replaces the original.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	for key := range payload {
		if !updatable[key] {
			delete(payload, key)
		}
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	filter := notSecret()
	filter["_id"] = oid

	var tour models.Tour
	if err := h.Tours.FindOne(ctx, filter).Decode(&tour); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperror.NotFound("No tour found with that ID")
		}
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &tour); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	tour.ID = oid
	tour.Slug = models.Slugify(tour.Name)
	if err := tour.Validate(); err != nil {
		return err
	}

	if _, err := h.Tours.ReplaceOne(ctx, filter, tour); err != nil {
		return err
	}

	h.invalidateAggregates(ctx, &tour)
	utils.Success(w, http.StatusOK, utils.M{"tour": tour})
	return nil
}

// Delete handles DELETE /api/v1/tours/:id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	filter := notSecret()
	filter["_id"] = oid

	var tour models.Tour
	if err := h.Tours.FindOneAndDelete(ctx, filter).Decode(&tour); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperror.NotFound("No tour found with that ID")
		}
		return err
	}

	h.invalidateAggregates(ctx, &tour)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
