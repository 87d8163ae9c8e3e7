package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/databases/mocks"
	"github.com/valentine-apple/vouchers-api/models"
)

func TestVoucherDatabase_FindOneSuccess(t *testing.T) {
	voucherID := primitive.NewObjectID()

	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Voucher)
		**arg = models.Voucher{ID: voucherID, Title: "handwritten letter"}
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "vouchers").Return(&collectionHelper)

	voucherDB := databases.NewVoucherDatabase(&dbHelper)
	voucher, err := voucherDB.FindOne(context.Background(), bson.M{"_id": voucherID})

	require.NoError(t, err)
	assert.Equal(t, voucherID, voucher.ID)
	assert.Equal(t, "handwritten letter", voucher.Title)
}

func TestVoucherDatabase_FindOneError(t *testing.T) {
	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "vouchers").Return(&collectionHelper)

	voucherDB := databases.NewVoucherDatabase(&dbHelper)
	voucher, err := voucherDB.FindOne(context.Background(), bson.M{"_id": primitive.NewObjectID()})

	assert.Nil(t, voucher)
	assert.EqualError(t, err, "mocked-error")
}

func TestVoucherDatabase_FindOneAndUpdateReturnsNoDocumentsWhenUnmatched(t *testing.T) {
	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var singleResult mocks.SingleResultHelper

	singleResult.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&singleResult)
	dbHelper.On("Collection", "vouchers").Return(&collectionHelper)

	voucherDB := databases.NewVoucherDatabase(&dbHelper)
	voucher, err := voucherDB.FindOneAndUpdate(context.Background(),
		bson.M{"_id": primitive.NewObjectID()},
		bson.M{"$inc": bson.M{"totalClaims": 1}},
	)

	assert.Nil(t, voucher)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestClaimDatabase_FindWithVouchersJoinsVoucher(t *testing.T) {
	userID := primitive.NewObjectID()
	voucherID := primitive.NewObjectID()

	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper
	var cursorHelper mocks.CursorHelper

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.ClaimDetail)
		*arg = []models.ClaimDetail{
			{
				Claim:   models.Claim{ID: primitive.NewObjectID(), VoucherID: voucherID, UserID: userID},
				Voucher: &models.Voucher{ID: voucherID, Title: "picnic"},
			},
		}
	})

	var pipeline []map[string]interface{}
	collectionHelper.On("Aggregate", mock.Anything, mock.Anything).Return(&cursorHelper, nil).
		Run(func(args mock.Arguments) {
			pipeline = args.Get(1).([]map[string]interface{})
		})
	dbHelper.On("Collection", "claims").Return(&collectionHelper)

	claimDB := databases.NewClaimDatabase(&dbHelper)
	claims, err := claimDB.FindWithVouchers(context.Background(), bson.M{"user": userID})

	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "picnic", claims[0].Voucher.Title)

	// the pipeline must match before joining and join from the vouchers side
	require.NotEmpty(t, pipeline)
	assert.Equal(t, bson.M{"user": userID}, pipeline[0]["$match"])
	var hasLookup bool
	for _, stage := range pipeline {
		if lookup, ok := stage["$lookup"].(map[string]interface{}); ok {
			hasLookup = true
			assert.Equal(t, "vouchers", lookup["from"])
		}
	}
	assert.True(t, hasLookup)
}

func TestClaimDatabase_FindError(t *testing.T) {
	var dbHelper mocks.DatabaseHelper
	var collectionHelper mocks.CollectionHelper

	collectionHelper.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "claims").Return(&collectionHelper)

	claimDB := databases.NewClaimDatabase(&dbHelper)
	claims, err := claimDB.Find(context.Background(), bson.M{})

	assert.Nil(t, claims)
	assert.EqualError(t, err, "mocked-error")
}
