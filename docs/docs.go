// Package docs Valentine Vouchers API.
//
// Documentation of the Valentine Vouchers API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// swagger:meta
package docs

import (
	"github.com/valentine-apple/vouchers-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/claims claims submitClaim
// Submits a claim for a voucher.
// responses:
//   200: submitClaimResponse

// The created claim together with the post-increment voucher.
// swagger:response submitClaimResponse
type submitClaimResponseWrapper struct {
	// in:body
	Body models.SubmitClaimResponse
}

// swagger:route GET /api/v1/vouchers vouchers listVouchers
// Lists all vouchers, newest first.
// responses:
//   200: listVouchersResponse

// One page of vouchers.
// swagger:response listVouchersResponse
type listVouchersResponseWrapper struct {
	// in:body
	Body []models.Voucher
}
