package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Banner types supported by the voucher card renderer
const (
	BannerTypeDefault = "default"
	BannerTypeImage   = "image"
	BannerTypeIcon    = "icon"
)

// Voucher represents the structure of a voucher document in MongoDB
type Voucher struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	BannerType    string             `json:"bannerType" bson:"bannerType"`
	BannerImage   string             `json:"bannerImage,omitempty" bson:"bannerImage,omitempty"`
	BannerIcon    string             `json:"bannerIcon,omitempty" bson:"bannerIcon,omitempty"`
	Barcode       string             `json:"barcode" bson:"barcode" index:"unique"`
	ExpireDate    *time.Time         `json:"expireDate" bson:"expireDate"`
	NeverExpires  bool               `json:"neverExpires" bson:"neverExpires"`
	ClaimLimit    int                `json:"claimLimit" bson:"claimLimit"`
	RequiresImage bool               `json:"requiresImage" bson:"requiresImage"`
	CreatedBy     string             `json:"createdBy" bson:"createdBy"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`

	// TotalClaims counts committed claims and only moves through the atomic
	// claim commit, never a read-compare-write
	TotalClaims int `json:"totalClaims" bson:"totalClaims"`

	// ClaimedBy is informational only, limits are enforced with TotalClaims
	ClaimedBy []string `json:"claimedBy" bson:"claimedBy"`
}

// Expired reports whether the voucher is expired at the given instant.
// NeverExpires wins over any expire date still present on the document.
func (v *Voucher) Expired(now time.Time) bool {
	if v.NeverExpires || v.ExpireDate == nil {
		return false
	}
	return v.ExpireDate.Before(now)
}
