package tours

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wayfarer/apperror"
	"wayfarer/models"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/mongo"
)

// Brochure handles GET /api/v1/tours/:id/brochure, rendering a one-page
// PDF with the tour details and a QR code pointing back at the tour.
func (h *Handler) Brochure(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
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

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	tourURL := fmt.Sprintf("%s://%s/api/v1/tours/%s", scheme, r.Host, tour.ID.Hex())

	qrPNG, err := qrcode.Encode(tourURL, qrcode.Medium, 256)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, tour.Name)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Difficulty: %s", tour.Difficulty))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Duration: %.0f days (%.1f weeks)", tour.Duration, tour.DurationWeeks()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Group size: up to %d people", tour.MaxGroupSize))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Price: $%.2f", tour.Price))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Rating: %.1f (%d ratings)", tour.RatingsAverage, tour.RatingsQuantity))
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 12)
	pdf.MultiCell(0, 6, tour.Summary, "", "L", false)
	pdf.Ln(4)
	if tour.Description != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tour.Description, "", "L", false)
		pdf.Ln(4)
	}

	if len(tour.StartDates) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Upcoming departures")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, start := range tour.StartDates {
			pdf.Cell(0, 6, start.Format(time.DateOnly))
			pdf.Ln(6)
		}
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return err
	}

	slug := tour.Slug
	if slug == "" {
		slug = strings.ToLower(tour.ID.Hex())
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=brochure-"+slug+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
	return nil
}
