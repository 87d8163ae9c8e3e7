package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

// Claim admission failures, each surfaced to the caller as its own message
var (
	// ErrClaimForbidden means the request tried to claim on behalf of
	// another identity
	ErrClaimForbidden = errors.New("cannot claim for another user")

	// ErrVoucherNotFound means the voucher does not exist
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrVoucherExpired means the voucher's expire date has passed
	ErrVoucherExpired = errors.New("voucher has expired")

	// ErrClaimLimitReached means either this user or the voucher as a whole
	// is out of claim slots
	ErrClaimLimitReached = errors.New("claim limit reached for this voucher")
)

// ClaimAccounting decides whether a claim is admitted and commits it. The
// voucher's totalClaims is the single point of contention, so admission
// against the global cap happens inside one conditional update on the
// voucher document rather than a read-compare-write sequence: two requests
// racing for the last slot can never both pass.
type ClaimAccounting struct {
	Claims   databases.ClaimDatabase
	Vouchers databases.VoucherDatabase

	// Now is swapped in tests to pin the clock. Nil means time.Now.
	Now func() time.Time
}

// Submit validates the claim request against the voucher and, if admitted,
// atomically commits one claim record plus the counter increment. It returns
// the created claim joined with the post-increment voucher.
func (s ClaimAccounting) Submit(ctx context.Context, ident models.Identity, req models.SubmitClaimRequest) (*models.SubmitClaimResponse, error) {
	if ident.UserID != req.UserID {
		return nil, ErrClaimForbidden
	}

	vID, err := primitive.ObjectIDFromHex(req.VoucherID)
	if err != nil {
		return nil, ErrVoucherNotFound
	}
	uID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return nil, ErrClaimForbidden
	}

	voucher, err := s.Vouchers.FindOne(ctx, bson.M{"_id": vID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to fetch voucher: %w", err)
	}

	if voucher.Expired(s.now()) {
		return nil, ErrVoucherExpired
	}

	// Per-user cap reuses the voucher-wide limit, there is no separate
	// per-user field
	userClaims, err := s.Claims.CountDocuments(ctx, bson.M{"voucher": vID, "user": uID})
	if err != nil {
		return nil, fmt.Errorf("failed to count user claims: %w", err)
	}
	if userClaims >= int64(voucher.ClaimLimit) {
		return nil, ErrClaimLimitReached
	}

	// The global cap check and the increment are one indivisible operation:
	// the update matches only while totalClaims < claimLimit, so at most
	// claimLimit increments can ever commit no matter how many requests race.
	updated, err := s.Vouchers.FindOneAndUpdate(ctx,
		bson.M{
			"_id":   vID,
			"$expr": bson.M{"$lt": bson.A{"$totalClaims", "$claimLimit"}},
		},
		bson.M{
			"$inc":      bson.M{"totalClaims": 1},
			"$addToSet": bson.M{"claimedBy": req.UserID},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// existence was already established, so no match means the
			// voucher is full
			return nil, ErrClaimLimitReached
		}
		return nil, fmt.Errorf("failed to commit claim slot: %w", err)
	}

	status := models.ClaimStatusApproved
	if req.EvidenceImage != "" {
		status = models.ClaimStatusPending
	}

	claim := models.Claim{
		ID:            primitive.NewObjectID(),
		VoucherID:     vID,
		UserID:        uID,
		ClaimedAt:     s.now(),
		EvidenceImage: req.EvidenceImage,
		Status:        status,
	}

	if _, err := s.Claims.InsertOne(ctx, claim); err != nil {
		// release the slot we took so the counter stays consistent with the
		// set of claim records
		if _, derr := s.Vouchers.UpdateOne(ctx, bson.M{"_id": vID}, bson.M{"$inc": bson.M{"totalClaims": -1}}); derr != nil {
			zap.S().Errorw("failed to release claim slot after insert failure",
				"voucherId", req.VoucherID,
				"error", derr)
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	return &models.SubmitClaimResponse{
		Claim: models.ClaimDetail{
			Claim:   claim,
			Voucher: updated,
		},
		UpdatedVoucher: *updated,
	}, nil
}

func (s ClaimAccounting) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
