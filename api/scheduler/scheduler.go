package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

// Scheduler runs periodic background jobs, currently the claim-count
// reconciliation audit. The voucher's stored totalClaims and the set of
// claim records are two representations of the same fact; the atomic commit
// keeps them in lockstep, and this audit catches any drift left behind by a
// partial failure (e.g. a crash between the counter increment and the claim
// insert).
type Scheduler struct {
	cron       *cron.Cron
	VDB        databases.VoucherDatabase
	CDB        databases.ClaimDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(vdb databases.VoucherDatabase, cdb databases.ClaimDatabase) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%s", uuid.New().String())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		VDB:        vdb,
		CDB:        cdb,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@every 10m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.ReconcileClaimCounts(ctx)
	})
	if err != nil {
		zap.S().Errorw("failed to register reconciliation job", "error", err)
		return
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.instanceID)
}

// Stop halts the cron loop, letting a running job finish
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// ReconcileClaimCounts recounts the non-rejected claims of every voucher and
// repairs a drifted totalClaims. The repair is a compare-and-set against the
// drifted value so a concurrent live claim is never clobbered.
func (s *Scheduler) ReconcileClaimCounts(ctx context.Context) {
	vouchers, err := s.VDB.Find(ctx, bson.D{})
	if err != nil {
		zap.S().Errorw("reconciliation: failed to list vouchers", "error", err)
		return
	}

	for _, v := range vouchers {
		count, err := s.CDB.CountDocuments(ctx, bson.M{
			"voucher": v.ID,
			"status":  bson.M{"$ne": models.ClaimStatusRejected},
		})
		if err != nil {
			zap.S().Errorw("reconciliation: failed to count claims",
				"voucherId", v.ID.Hex(),
				"error", err)
			continue
		}

		if int(count) == v.TotalClaims {
			continue
		}

		zap.S().Warnw("reconciliation: totalClaims drifted from claim records",
			"voucherId", v.ID.Hex(),
			"totalClaims", v.TotalClaims,
			"claimRecords", count)

		res, err := s.VDB.UpdateOne(ctx,
			bson.M{"_id": v.ID, "totalClaims": v.TotalClaims},
			bson.M{"$set": bson.M{"totalClaims": int(count)}},
		)
		if err != nil {
			zap.S().Errorw("reconciliation: failed to repair totalClaims",
				"voucherId", v.ID.Hex(),
				"error", err)
			continue
		}
		if res != nil && res.ModifiedCount == 0 {
			// the counter moved while we were counting, leave it for the
			// next sweep
			zap.S().Debugw("reconciliation: counter moved, skipping repair",
				"voucherId", v.ID.Hex())
		}
	}
}
