// Package filemgr persists uploaded images. Every accepted image is
// re-encoded through the imaging pipeline, which both normalizes the
// format and strips anything that is not pixel data.
package filemgr

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const thumbWidth = 300

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidImageType checks the declared content type of an upload.
func ValidImageType(header *multipart.FileHeader) bool {
	return supportedImageTypes[header.Header.Get("Content-Type")]
}

// SaveImage decodes an uploaded image, writes it as JPEG under dir with
// the given base name, and writes a resized thumbnail next to it.
// It returns the stored file name.
func SaveImage(file multipart.File, dir, name string) (string, error) {
	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fileName := name + ".jpg"
	if err := imaging.Save(img, filepath.Join(dir, fileName), imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(dir, name+"_thumb.jpg"), imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	return fileName, nil
}

// Remove deletes a stored image and its thumbnail, used to clean up when
// the document the upload was meant for turns out not to exist.
func Remove(dir, name string) {
	os.Remove(filepath.Join(dir, name+".jpg"))
	os.Remove(filepath.Join(dir, name+"_thumb.jpg"))
}
