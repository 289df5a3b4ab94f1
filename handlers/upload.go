package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"tours-api/service"
	"tours-api/store"
	"tours-api/utils"
)

const maxGalleryImages = 3

type UploadHandler struct {
	DB       *store.DB
	S3       *service.S3Service
	MaxBytes int64
}

// UploadTourImages accepts a multipart form with an optional "imageCover"
// part and up to three "images" parts, stores them in S3 and saves their
// public URLs on the tour.
func (h *UploadHandler) UploadTourImages(w http.ResponseWriter, r *http.Request) error {
	if h.S3 == nil {
		return utils.NewAppError("Image upload is not configured", http.StatusServiceUnavailable)
	}
	id, err := idParam(r)
	if err != nil {
		return err
	}
	// 404 before reading the body when the tour does not exist.
	existing, err := h.DB.Tours.FindByID(r.Context(), id)
	if err != nil {
		return err
	}

	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		return utils.BadRequest("Failed to parse multipart form")
	}

	prefix := "tours/" + id.Hex() + "/"
	var coverURL string
	if headers := r.MultipartForm.File["imageCover"]; len(headers) > 0 {
		coverURL, err = h.storeImage(r, prefix, headers[0])
		if err != nil {
			return err
		}
	}

	gallery := r.MultipartForm.File["images"]
	if len(gallery) > maxGalleryImages {
		return utils.BadRequest(fmt.Sprintf("At most %d gallery images are allowed", maxGalleryImages))
	}
	var imageURLs []string
	for _, header := range gallery {
		url, err := h.storeImage(r, prefix, header)
		if err != nil {
			return err
		}
		imageURLs = append(imageURLs, url)
	}

	if coverURL == "" && len(imageURLs) == 0 {
		return utils.BadRequest("No image files in request")
	}

	tour, err := h.DB.Tours.SetImages(r.Context(), id, coverURL, imageURLs)
	if err != nil {
		return err
	}
	// Best effort: drop the replaced cover object once the new one is saved.
	if coverURL != "" && existing.ImageCover != coverURL {
		if key, ok := h.S3.KeyFromURL(existing.ImageCover); ok {
			_ = h.S3.Delete(r.Context(), key)
		}
	}
	respond(w, http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]interface{}{"data": tour},
	})
	return nil
}

func (h *UploadHandler) storeImage(r *http.Request, prefix string, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", utils.BadRequest("Only image uploads are allowed")
	}
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()
	key, err := h.S3.Upload(r.Context(), prefix, header.Filename, file, contentType)
	if err != nil {
		return "", err
	}
	return h.S3.PublicURL(key), nil
}
