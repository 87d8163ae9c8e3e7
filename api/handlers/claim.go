package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/config"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

// Claim exported for testing purposes
type Claim struct {
	DB     databases.ClaimDatabase
	VDB    databases.VoucherDatabase
	Feed   *ClaimFeed
	Mailer *ReviewMailer
}

// ClaimsByUserHandler returns the claims of the requesting user, each joined
// with its voucher document. Users can only list their own claims.
func (c Claim) ClaimsByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	ident, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no identity in request", http.StatusUnauthorized, w, errors.New("missing identity"))
		return
	}
	if ident.UserID != userID {
		config.ErrorStatus("cannot access other users claims", http.StatusForbidden, w, errors.New("identity mismatch"))
		return
	}

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindWithVouchers(ctx, bson.M{"user": uID})
	if err != nil {
		config.ErrorStatus("failed to get claims", http.StatusInternalServerError, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.ClaimDetail{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ClaimCreateHandler submits a claim for a voucher. Admission and the
// counter increment are delegated to ClaimAccounting so the handler only
// translates errors to status codes.
func (c Claim) ClaimCreateHandler(w http.ResponseWriter, r *http.Request) {
	ident, ok := api.IdentityFromContext(r.Context())
	if !ok {
		config.ErrorStatus("no identity in request", http.StatusUnauthorized, w, errors.New("missing identity"))
		return
	}

	var req models.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	acct := ClaimAccounting{Claims: c.DB, Vouchers: c.VDB}
	resp, err := acct.Submit(ctx, ident, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrClaimForbidden):
			config.ErrorStatus("cannot claim for another user", http.StatusForbidden, w, err)
		case errors.Is(err, ErrVoucherNotFound):
			config.ErrorStatus("voucher not found", http.StatusNotFound, w, err)
		case errors.Is(err, ErrVoucherExpired):
			config.ErrorStatus("voucher has expired", http.StatusBadRequest, w, err)
		case errors.Is(err, ErrClaimLimitReached):
			config.ErrorStatus("claim limit reached for this voucher", http.StatusBadRequest, w, err)
		default:
			config.ErrorStatus("failed to claim voucher", http.StatusInternalServerError, w, err)
		}
		return
	}

	if c.Feed != nil {
		c.Feed.Broadcast(resp.Claim.Claim)
	}
	if c.Mailer != nil && resp.Claim.Status == models.ClaimStatusPending {
		go c.Mailer.SendReviewRequest(resp.Claim.Claim, resp.UpdatedVoucher)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateClaimStatusHandler moves a pending claim to approved or rejected.
// Rejecting a claim releases its slot on the voucher so the invariant counts
// only non-rejected claims.
func (c Claim) UpdateClaimStatusHandler(w http.ResponseWriter, r *http.Request) {
	claimID := mux.Vars(r)["claim_id"]

	cID, err := primitive.ObjectIDFromHex(claimID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req models.UpdateClaimStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Status != models.ClaimStatusApproved && req.Status != models.ClaimStatusRejected {
		config.ErrorStatus("status must be approved or rejected", http.StatusBadRequest, w, errors.New("invalid status"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	claim, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get claim by ID", http.StatusNotFound, w, err)
		return
	}

	// only a pending claim can transition, the filter makes a concurrent
	// double review a no-op
	res, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": cID, "status": models.ClaimStatusPending},
		bson.M{"$set": bson.M{"status": req.Status}},
	)
	if err != nil {
		config.ErrorStatus("failed to update claim status", http.StatusInternalServerError, w, err)
		return
	}
	if res == nil || res.ModifiedCount == 0 {
		config.ErrorStatus("claim is not pending review", http.StatusConflict, w, errors.New("claim already reviewed"))
		return
	}

	if req.Status == models.ClaimStatusRejected {
		if _, err := c.VDB.UpdateOne(ctx, bson.M{"_id": claim.VoucherID}, bson.M{"$inc": bson.M{"totalClaims": -1}}); err != nil {
			zap.S().Errorw("failed to release claim slot for rejected claim",
				"claimId", claimID,
				"voucherId", claim.VoucherID.Hex(),
				"error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageResponse{Message: "claim " + req.Status})
}
