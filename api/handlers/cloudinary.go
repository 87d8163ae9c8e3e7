package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/config"
)

const (
	bannerFolder   = "valentine-vouchers/banners"
	evidenceFolder = "valentine-vouchers/evidence"

	// banner cards render at a fixed 2:1 crop
	bannerTransformation = "w_800,h_400,c_fill/q_auto"
)

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct{}

type uploadRequest struct {
	Image string `json:"image"`
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
	PublicID string `json:"publicId"`
}

// UploadBannerHandler uploads a banner image (base64 data URI or remote URL)
// to Cloudinary and returns its durable URL
func (c CloudinaryHandler) UploadBannerHandler(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	cld, err := cloudinary.NewFromParams(
		os.Getenv("CLOUDINARY_CLOUD_NAME"),
		os.Getenv("CLOUDINARY_API_KEY"),
		os.Getenv("CLOUDINARY_API_SECRET"),
	)
	if err != nil {
		config.ErrorStatus("failed to init cloudinary", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp, err := cld.Upload.Upload(ctx, req.Image, uploader.UploadParams{
		Folder:         bannerFolder,
		Transformation: bannerTransformation,
	})
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(uploadResponse{
		ImageURL: resp.SecureURL,
		PublicID: resp.PublicID,
	})
}

// GenerateSignature generates a signature for direct-to-Cloudinary evidence
// uploads from the browser
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("folder=" + evidenceFolder + "&timestamp=" + timestamp))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"folder":    evidenceFolder,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
