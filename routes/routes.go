package routes

import (
	"net/http"
	"path/filepath"

	"wayfarer/auth"
	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/ratelim"
	"wayfarer/tours"
	"wayfarer/users"

	"github.com/julienschmidt/httprouter"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Errors      *middleware.ErrorHandler
	Auth        *middleware.Auth
	RateLimiter *ratelim.RateLimiter
	AuthHandler *auth.Handler
	Tours       *tours.Handler
	Users       *users.Handler
	UploadDir   string
}

// NewRouter builds the router with every route registered.
func NewRouter(d *Deps) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	AddUserRoutes(router, d)
	AddTourRoutes(router, d)
	AddStaticRoutes(router, d.UploadDir)

	router.NotFound = d.Errors.NotFoundHandler()
	return router
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	router.ServeFiles("/static/tourpic/*filepath", http.Dir(filepath.Join(uploadDir, "tourpic")))
	router.ServeFiles("/static/userpic/*filepath", http.Dir(filepath.Join(uploadDir, "userpic")))
}

func AddUserRoutes(router *httprouter.Router, d *Deps) {
	eh, rl := d.Errors, d.RateLimiter

	router.POST("/api/v1/users/signup", rl.Limit(eh.Wrap(d.AuthHandler.Signup)))
	router.POST("/api/v1/users/login", rl.Limit(eh.Wrap(d.AuthHandler.Login)))
	router.POST("/api/v1/users/forgotPassword", rl.Limit(eh.Wrap(d.AuthHandler.ForgotPassword)))

	// resetPassword/:token shares the two-segment pattern with the :id
	// routes below, so it dispatches on the first segment like the tour
	// sub-resources do.
	resetPassword := rl.Limit(eh.Wrap(d.AuthHandler.ResetPassword))
	router.PATCH("/api/v1/users/:id/:token", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("id") == "resetPassword" {
			resetPassword(w, r, ps)
			return
		}
		d.Errors.NotFoundHandler().ServeHTTP(w, r)
	})

	adminOnly := middleware.RestrictTo(models.RoleAdmin)

	router.GET("/api/v1/users", eh.Wrap(d.Auth.Protect(adminOnly(d.Users.List))))

	// httprouter cannot mix static and parameter segments at the same
	// level, so the self-service aliases dispatch on the id value.
	me := d.Auth.Protect(d.Users.Me)
	getUser := d.Auth.Protect(adminOnly(d.Users.Get))
	router.GET("/api/v1/users/:id", eh.Wrap(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
		if ps.ByName("id") == "me" {
			return me(w, r, ps)
		}
		return getUser(w, r, ps)
	}))

	updateMyPassword := d.Auth.Protect(d.AuthHandler.UpdateMyPassword)
	updateMe := d.Auth.Protect(d.Users.UpdateMe)
	updateUser := d.Auth.Protect(adminOnly(d.Users.Update))
	router.PATCH("/api/v1/users/:id", eh.Wrap(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
		switch ps.ByName("id") {
		case "updateMyPassword":
			return updateMyPassword(w, r, ps)
		case "updateMe":
			return updateMe(w, r, ps)
		default:
			return updateUser(w, r, ps)
		}
	}))

	router.DELETE("/api/v1/users/:id", eh.Wrap(d.Auth.Protect(adminOnly(d.Users.Delete))))
}

func AddTourRoutes(router *httprouter.Router, d *Deps) {
	eh, rl := d.Errors, d.RateLimiter

	editors := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)

	router.GET("/api/v1/tours", eh.Wrap(d.Tours.List))
	router.POST("/api/v1/tours", eh.Wrap(d.Auth.Protect(editors(d.Tours.Create))))

	stats := rl.Limit(eh.Wrap(d.Tours.Stats))
	getTour := eh.Wrap(d.Tours.Get)
	topCheap := eh.Wrap(d.Tours.TopCheap)
	router.GET("/api/v1/tours/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("id") {
		case "tour-stats":
			stats(w, r, ps)
		case "top-5-cheap":
			topCheap(w, r, ps)
		default:
			getTour(w, r, ps)
		}
	})

	monthlyPlan := rl.Limit(eh.Wrap(d.Tours.MonthlyPlan))
	brochure := eh.Wrap(d.Tours.Brochure)
	router.GET("/api/v1/tours/:id/:action", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch {
		case ps.ByName("id") == "monthly-plan":
			year := httprouter.Params{{Key: "year", Value: ps.ByName("action")}}
			monthlyPlan(w, r, year)
		case ps.ByName("action") == "brochure":
			brochure(w, r, ps)
		default:
			d.Errors.NotFoundHandler().ServeHTTP(w, r)
		}
	})

	router.PATCH("/api/v1/tours/:id", eh.Wrap(d.Auth.Protect(editors(d.Tours.Update))))
	router.PATCH("/api/v1/tours/:id/cover", eh.Wrap(d.Auth.Protect(editors(d.Tours.UploadCover))))
	router.DELETE("/api/v1/tours/:id", eh.Wrap(d.Auth.Protect(editors(d.Tours.Delete))))
}
