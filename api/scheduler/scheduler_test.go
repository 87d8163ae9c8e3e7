package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/valentine-apple/vouchers-api/api/scheduler"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/databases/mocks"
	"github.com/valentine-apple/vouchers-api/models"
)

func TestScheduler_ReconcileClaimCountsRepairsDrift(t *testing.T) {
	voucherID := primitive.NewObjectID()

	var dbHelper mocks.DatabaseHelper
	var voucherColl mocks.CollectionHelper
	var claimColl mocks.CollectionHelper
	var cursorHelper mocks.CursorHelper

	// stored counter says 5, but only 3 non-rejected claim records exist
	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Voucher)
		*arg = []models.Voucher{{ID: voucherID, Title: "sunset walk", ClaimLimit: 10, TotalClaims: 5}}
	})
	voucherColl.On("Find", mock.Anything, mock.Anything).Return(&cursorHelper, nil)
	claimColl.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil)

	var repairFilter, repairUpdate bson.M
	voucherColl.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			repairFilter = args.Get(1).(bson.M)
			repairUpdate = args.Get(2).(bson.M)
		})

	dbHelper.On("Collection", "vouchers").Return(&voucherColl)
	dbHelper.On("Collection", "claims").Return(&claimColl)

	s := scheduler.NewScheduler(databases.NewVoucherDatabase(&dbHelper), databases.NewClaimDatabase(&dbHelper))
	s.ReconcileClaimCounts(context.Background())

	voucherColl.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	// the repair is a compare-and-set against the drifted value
	assert.Equal(t, 5, repairFilter["totalClaims"])
	assert.Equal(t, bson.M{"$set": bson.M{"totalClaims": 3}}, repairUpdate)
}

func TestScheduler_ReconcileClaimCountsSkipsConsistentVouchers(t *testing.T) {
	voucherID := primitive.NewObjectID()

	var dbHelper mocks.DatabaseHelper
	var voucherColl mocks.CollectionHelper
	var claimColl mocks.CollectionHelper
	var cursorHelper mocks.CursorHelper

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Voucher)
		*arg = []models.Voucher{{ID: voucherID, ClaimLimit: 10, TotalClaims: 3}}
	})
	voucherColl.On("Find", mock.Anything, mock.Anything).Return(&cursorHelper, nil)
	claimColl.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil)

	dbHelper.On("Collection", "vouchers").Return(&voucherColl)
	dbHelper.On("Collection", "claims").Return(&claimColl)

	s := scheduler.NewScheduler(databases.NewVoucherDatabase(&dbHelper), databases.NewClaimDatabase(&dbHelper))
	s.ReconcileClaimCounts(context.Background())

	voucherColl.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_ReconcileClaimCountsExcludesRejectedClaims(t *testing.T) {
	voucherID := primitive.NewObjectID()

	var dbHelper mocks.DatabaseHelper
	var voucherColl mocks.CollectionHelper
	var claimColl mocks.CollectionHelper
	var cursorHelper mocks.CursorHelper

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Voucher)
		*arg = []models.Voucher{{ID: voucherID, ClaimLimit: 10, TotalClaims: 3}}
	})
	voucherColl.On("Find", mock.Anything, mock.Anything).Return(&cursorHelper, nil)

	var countFilter bson.M
	claimColl.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil).
		Run(func(args mock.Arguments) {
			countFilter = args.Get(1).(bson.M)
		})

	dbHelper.On("Collection", "vouchers").Return(&voucherColl)
	dbHelper.On("Collection", "claims").Return(&claimColl)

	s := scheduler.NewScheduler(databases.NewVoucherDatabase(&dbHelper), databases.NewClaimDatabase(&dbHelper))
	s.ReconcileClaimCounts(context.Background())

	assert.Equal(t, voucherID, countFilter["voucher"])
	assert.Equal(t, bson.M{"$ne": models.ClaimStatusRejected}, countFilter["status"])
}
