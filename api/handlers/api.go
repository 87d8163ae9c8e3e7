package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/valentine-apple/vouchers-api/api"
	"github.com/valentine-apple/vouchers-api/api/scheduler"
	"github.com/valentine-apple/vouchers-api/config"
	"github.com/valentine-apple/vouchers-api/databases"
	"github.com/valentine-apple/vouchers-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	auth := Auth{DB: databases.NewUserDatabase(a.dbHelper)}
	v := Voucher{DB: databases.NewVoucherDatabase(a.dbHelper)}
	feed := NewClaimFeed()
	mailer := &ReviewMailer{AdminEmail: a.Config.AdminEmail}
	c := Claim{
		DB:     databases.NewClaimDatabase(a.dbHelper),
		VDB:    databases.NewVoucherDatabase(a.dbHelper),
		Feed:   feed,
		Mailer: mailer,
	}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(auth.LogoutHandler))).Methods("POST")

	apiCreate.Handle("/vouchers", api.Middleware(http.HandlerFunc(v.VoucherHandler))).Methods("GET")
	apiCreate.Handle("/vouchers", api.AdminOnly(http.HandlerFunc(v.VoucherCreateHandler))).Methods("POST")
	apiCreate.Handle("/voucher/{voucher_id}", api.Middleware(http.HandlerFunc(v.VoucherByIDHandler))).Methods("GET")
	apiCreate.Handle("/voucher/{voucher_id}", api.AdminOnly(http.HandlerFunc(v.UpdateVoucherHandler))).Methods("PUT")
	apiCreate.Handle("/voucher/{voucher_id}", api.AdminOnly(http.HandlerFunc(v.DeleteVoucherHandler))).Methods("DELETE")

	apiCreate.Handle("/claims", api.Middleware(http.HandlerFunc(c.ClaimsByUserHandler))).Methods("GET")
	apiCreate.Handle("/claims", api.Middleware(http.HandlerFunc(c.ClaimCreateHandler))).Methods("POST")
	apiCreate.Handle("/claim/{claim_id}/status", api.AdminOnly(http.HandlerFunc(c.UpdateClaimStatusHandler))).Methods("PUT")

	apiCreate.Handle("/upload", api.AdminOnly(http.HandlerFunc(cloudinaryHandler.UploadBannerHandler))).Methods("POST")
	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// the websocket route stays outside the timeout middleware, feed
	// connections are long-lived
	r.Handle("/ws/claims", api.AdminOnly(http.HandlerFunc(feed.HandleClaimFeed)))

	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("vouchers-api has connected to the database")

	// start the reconciliation scheduler
	a.Scheduler = scheduler.NewScheduler(
		databases.NewVoucherDatabase(a.dbHelper),
		databases.NewClaimDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
