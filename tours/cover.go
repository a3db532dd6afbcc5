package tours

import (
	"net/http"
	"path/filepath"

	"wayfarer/apperror"
	"wayfarer/filemgr"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxUploadSize = 10 << 20 // 10 MiB

// UploadCover handles PATCH /api/v1/tours/:id/cover with a multipart
// "imageCover" file.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	oid, err := parseID(ps.ByName("id"))
	if err != nil {
		return err
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return apperror.BadRequest("Invalid multipart form")
	}
	file, header, err := r.FormFile("imageCover")
	if err != nil {
		return apperror.BadRequest("An imageCover file is required")
	}
	defer file.Close()

	if !filemgr.ValidImageType(header) {
		return apperror.BadRequest("Invalid file type. Supported formats: JPEG, PNG, WebP, GIF")
	}

	dir := filepath.Join(h.UploadDir, "tourpic")
	baseName := oid.Hex() + "-cover"
	fileName, err := filemgr.SaveImage(file, dir, baseName)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	filter := notSecret()
	filter["_id"] = oid

	var tour models.Tour
	err = h.Tours.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"imageCover": "/static/tourpic/" + fileName}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tour)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// the upload has no owner; don't leave orphan files behind
			filemgr.Remove(dir, baseName)
			return apperror.NotFound("No tour found with that ID")
		}
		return err
	}

	utils.Success(w, http.StatusOK, utils.M{"tour": tour})
	return nil
}
