package databases

// go generate: mockery --name VoucherDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valentine-apple/vouchers-api/models"
)

const voucherName = "vouchers"

// VoucherDatabase contains the methods to use with the voucher database
type VoucherDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Voucher, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Voucher, error)
	FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.Voucher, error)
	InsertOne(ctx context.Context, voucher models.Voucher, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) (*models.Voucher, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type voucherDatabase struct {
	db DatabaseHelper
}

// NewVoucherDatabase initializes a new instance of voucher database with the provided db connection
func NewVoucherDatabase(db DatabaseHelper) VoucherDatabase {
	return &voucherDatabase{
		db: db,
	}
}

func (c *voucherDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Voucher, error) {
	voucher := &models.Voucher{}
	err := c.db.Collection(voucherName).FindOne(ctx, filter, opts...).Decode(&voucher)
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (c *voucherDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	cur, err := c.db.Collection(voucherName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&vouchers)
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

// FindPage returns one page of vouchers, newest first
func (c *voucherDatabase) FindPage(ctx context.Context, filter interface{}, limit, page int) ([]models.Voucher, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts().SetSort(bson.M{"createdAt": -1})
	return c.Find(ctx, filter, opts)
}

func (c *voucherDatabase) InsertOne(ctx context.Context, voucher models.Voucher, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(voucherName).InsertOne(ctx, voucher, opts...)
}

func (c *voucherDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(voucherName).UpdateOne(ctx, filter, update, opts...)
}

func (c *voucherDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) (*models.Voucher, error) {
	voucher := &models.Voucher{}
	err := c.db.Collection(voucherName).FindOneAndUpdate(ctx, filter, update, opts...).Decode(&voucher)
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func (c *voucherDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(voucherName).DeleteOne(ctx, filter, opts...)
}

func (c *voucherDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(voucherName).CountDocuments(ctx, filter, opts...)
}
