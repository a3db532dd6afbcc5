package users

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"wayfarer/apiquery"
	"wayfarer/apperror"
	"wayfarer/filemgr"
	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	dbTimeout     = 5 * time.Second
	maxUploadSize = 5 << 20
)

// Handler owns the user resource endpoints.
type Handler struct {
	Users     *mongo.Collection
	UploadDir string
}

func NewHandler(users *mongo.Collection, uploadDir string) *Handler {
	return &Handler{Users: users, UploadDir: uploadDir}
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

// List handles GET /api/v1/users with the same query parameter surface as
// the tour listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	features := apiquery.New(r.URL.Query(), "password", "passwordResetToken", "created_at").Apply()

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	cursor, err := h.Users.Find(ctx, features.Filters(bson.M{}), features.FindOptions())
	if err != nil {
		return err
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return err
	}

	if len(users) == 0 && features.Page() > 1 {
		return apperror.NotFound("This page does not exist")
	}

	utils.SuccessList(w, http.StatusOK, len(users), utils.M{"users": users})
	return nil
}

// Get handles GET /api/v1/users/:id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	var user models.User
	if err := h.Users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return apperror.NotFound("No user found with that ID")
		}
		return err
	}

	utils.Success(w, http.StatusOK, utils.M{"user": user})
	return nil
}

// Me handles GET /api/v1/users/me for the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperror.Unauthorized("You are not logged in! Please log in to get access")
	}
	utils.Success(w, http.StatusOK, utils.M{"user": user})
	return nil
}

// UpdateMe lets the authenticated user change their own name, email and
// photo. Password changes go through updateMyPassword, never here.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperror.Unauthorized("You are not logged in! Please log in to get access")
	}

	set := bson.M{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return apperror.BadRequest("Invalid multipart form")
		}
		if name := strings.TrimSpace(r.FormValue("name")); name != "" {
			set["name"] = name
		}
		if email := strings.TrimSpace(r.FormValue("email")); email != "" {
			set["email"] = strings.ToLower(email)
		}
		if file, header, err := r.FormFile("photo"); err == nil {
			defer file.Close()
			if !filemgr.ValidImageType(header) {
				return apperror.BadRequest("Invalid file type. Supported formats: JPEG, PNG, WebP, GIF")
			}
			dir := filepath.Join(h.UploadDir, "userpic")
			fileName, err := filemgr.SaveImage(file, dir, user.ID.Hex())
			if err != nil {
				return err
			}
			set["photo"] = "/static/userpic/" + fileName
		}
	} else {
		var input struct {
			Name  string `json:"name"`
			Email string `json:"email"`

			// reject password smuggling explicitly
			Password        string `json:"password"`
			PasswordConfirm string `json:"passwordConfirm"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return apperror.BadRequest("Invalid request body")
		}
		if input.Password != "" || input.PasswordConfirm != "" {
			return apperror.BadRequest("This route is not for password updates. Please use /updateMyPassword")
		}
		if name := strings.TrimSpace(input.Name); name != "" {
			set["name"] = name
		}
		if email := strings.TrimSpace(input.Email); email != "" {
			set["email"] = strings.ToLower(email)
		}
	}

	if len(set) == 0 {
		utils.Success(w, http.StatusOK, utils.M{"user": user})
		return nil
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	var updated models.User
	err := h.Users.FindOneAndUpdate(ctx, bson.M{"_id": user.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return err
	}

	utils.Success(w, http.StatusOK, utils.M{"user": updated})
	return nil
}

// Update handles the admin PATCH /api/v1/users/:id for name, email and
// role.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	var input struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	set := bson.M{}
	if name := strings.TrimSpace(input.Name); name != "" {
		set["name"] = name
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		set["email"] = strings.ToLower(email)
	}
	if input.Role != "" {
		switch input.Role {
		case models.RoleUser, models.RoleGuide, models.RoleLeadGuide, models.RoleAdmin:
			set["role"] = input.Role
		default:
			return apperror.BadRequest("Role is either: user, guide, lead-guide, admin")
		}
	}
	if len(set) == 0 {
		return apperror.BadRequest("Nothing to update")
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	var user models.User
	err = h.Users.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apperror.NotFound("No user found with that ID")
		}
		return err
	}

	utils.Success(w, http.StatusOK, utils.M{"user": user})
	return nil
}

// Delete handles DELETE /api/v1/users/:id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	res, err := h.Users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("No user found with that ID")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
