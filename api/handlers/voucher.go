package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/config"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

var (
	// Limit stores the pagination limit
	Limit int
	// Page stores the pagination page
	Page = 0
)

// Voucher exported for testing purposes
type Voucher struct {
	DB databases.VoucherDatabase
}

// VoucherHandler returns all vouchers, newest first
func (v Voucher) VoucherHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|50, err))
		Limit = 50
	}
	Page = getPage(Page, r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.DB.FindPage(ctx, bson.D{}, Limit, Page)
	if err != nil {
		config.ErrorStatus("failed to get vouchers", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Voucher{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VoucherByIDHandler returns a voucher by ID
func (v Voucher) VoucherByIDHandler(w http.ResponseWriter, r *http.Request) {
	voucherID := mux.Vars(r)["voucher_id"]

	zap.S().Debugf("voucher_id: %v", voucherID)

	vID, err := primitive.ObjectIDFromHex(voucherID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to get voucher by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// VoucherCreateHandler creates a new voucher
func (v Voucher) VoucherCreateHandler(w http.ResponseWriter, r *http.Request) {
	ident, _ := api.IdentityFromContext(r.Context())

	var voucher models.Voucher
	if err := json.NewDecoder(r.Body).Decode(&voucher); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	voucher.ID = primitive.NewObjectID()
	voucher.CreatedBy = ident.UserID
	voucher.CreatedAt = time.Now()
	voucher.TotalClaims = 0
	voucher.ClaimedBy = []string{}
	if voucher.BannerType == "" {
		voucher.BannerType = models.BannerTypeDefault
	}
	if voucher.ClaimLimit <= 0 {
		// single-use voucher by default
		voucher.ClaimLimit = 1
	}
	if voucher.Barcode == "" {
		voucher.Barcode = uuid.New().String()
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := v.DB.InsertOne(ctx, voucher); err != nil {
		config.ErrorStatus("failed to create voucher", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(voucher)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateVoucherHandler updates a voucher's details, merging the request body
// over the existing document
func (v Voucher) UpdateVoucherHandler(w http.ResponseWriter, r *http.Request) {
	voucherID := mux.Vars(r)["voucher_id"]

	vID, err := primitive.ObjectIDFromHex(voucherID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := v.DB.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		config.ErrorStatus("failed to find voucher", http.StatusNotFound, w, err)
		return
	}

	existingMap := make(map[string]interface{})
	data, _ := json.Marshal(existing)
	json.Unmarshal(data, &existingMap)

	var updateData map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	// the claim counter only moves through the atomic claim commit
	delete(updateData, "totalClaims")
	delete(updateData, "claimedBy")
	delete(updateData, "_id")

	for key, value := range updateData {
		existingMap[key] = value
	}

	updated := models.Voucher{}
	data, _ = json.Marshal(existingMap)
	if err := json.Unmarshal(data, &updated); err != nil {
		config.ErrorStatus("failed to merge voucher details", http.StatusBadRequest, w, err)
		return
	}
	updated.ID = vID

	set := bson.M{
		"title":         updated.Title,
		"description":   updated.Description,
		"bannerType":    updated.BannerType,
		"bannerImage":   updated.BannerImage,
		"bannerIcon":    updated.BannerIcon,
		"barcode":       updated.Barcode,
		"expireDate":    updated.ExpireDate,
		"neverExpires":  updated.NeverExpires,
		"claimLimit":    updated.ClaimLimit,
		"requiresImage": updated.RequiresImage,
	}
	if _, err := v.DB.UpdateOne(ctx, bson.M{"_id": vID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update voucher", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteVoucherHandler deletes a voucher by ID
func (v Voucher) DeleteVoucherHandler(w http.ResponseWriter, r *http.Request) {
	voucherID := mux.Vars(r)["voucher_id"]

	vID, err := primitive.ObjectIDFromHex(voucherID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := v.DB.DeleteOne(ctx, bson.M{"_id": vID}); err != nil {
		config.ErrorStatus("failed to delete voucher", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageResponse{Message: "voucher deleted successfully"})
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
