package databases

// go generate: mockery --name ClaimDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valentine-apple/vouchers-api/models"
)

const claimName = "claims"

// ClaimDatabase contains the methods to use with the claim database
type ClaimDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Claim, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Claim, error)
	FindWithVouchers(ctx context.Context, filter interface{}) ([]models.ClaimDetail, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, claim models.Claim, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type claimDatabase struct {
	db DatabaseHelper
}

// NewClaimDatabase initializes a new instance of claim database with the provided db connection
func NewClaimDatabase(db DatabaseHelper) ClaimDatabase {
	return &claimDatabase{
		db: db,
	}
}

func (c *claimDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Claim, error) {
	claim := &models.Claim{}
	err := c.db.Collection(claimName).FindOne(ctx, filter, opts...).Decode(&claim)
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (c *claimDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Claim, error) {
	var claims []models.Claim
	cur, err := c.db.Collection(claimName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// FindWithVouchers returns the matching claims newest first, each joined with
// its voucher document via $lookup
func (c *claimDatabase) FindWithVouchers(ctx context.Context, filter interface{}) ([]models.ClaimDetail, error) {
	pipeline := []map[string]interface{}{
		{"$match": filter},
		{"$sort": map[string]interface{}{"claimedAt": -1}},
		{"$lookup": map[string]interface{}{
			"from":         voucherName,
			"localField":   "voucher",
			"foreignField": "_id",
			"as":           "voucherDetails",
		}},
		{"$unwind": map[string]interface{}{
			"path":                       "$voucherDetails",
			"preserveNullAndEmptyArrays": true,
		}},
	}

	cur, err := c.db.Collection(claimName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var claims []models.ClaimDetail
	err = cur.Decode(&claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *claimDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(claimName).CountDocuments(ctx, filter, opts...)
}

func (c *claimDatabase) InsertOne(ctx context.Context, claim models.Claim, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(claimName).InsertOne(ctx, claim, opts...)
}

func (c *claimDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(claimName).UpdateOne(ctx, filter, update, opts...)
}

func (c *claimDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(claimName).DeleteOne(ctx, filter, opts...)
}
