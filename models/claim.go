package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claim review states
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Claim represents the structure of a claim document in MongoDB. Each claim
// records one user redeeming one voucher.
type Claim struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	VoucherID     primitive.ObjectID `json:"voucher" bson:"voucher"`
	UserID        primitive.ObjectID `json:"user" bson:"user"`
	ClaimedAt     time.Time          `json:"claimedAt" bson:"claimedAt"`
	EvidenceImage string             `json:"evidenceImage,omitempty" bson:"evidenceImage,omitempty"`
	Status        string             `json:"status" bson:"status"`
}

// ClaimDetail is a claim joined with its voucher document, the shape returned
// by the claims listing and the submit response
type ClaimDetail struct {
	Claim   `bson:",inline"`
	Voucher *Voucher `json:"voucherDetails,omitempty" bson:"voucherDetails,omitempty"`
}

// SubmitClaimRequest is the request body for claiming a voucher
type SubmitClaimRequest struct {
	VoucherID     string `json:"voucherId"`
	UserID        string `json:"userId"`
	EvidenceImage string `json:"evidenceImage,omitempty"`
}

// SubmitClaimResponse carries the created claim plus the post-increment
// voucher so the caller can refresh its view without a re-fetch
type SubmitClaimResponse struct {
	Claim          ClaimDetail `json:"claim"`
	UpdatedVoucher Voucher     `json:"updatedVoucher"`
}

// UpdateClaimStatusRequest is the request body for claim moderation
type UpdateClaimStatusRequest struct {
	Status string `json:"status"`
}
