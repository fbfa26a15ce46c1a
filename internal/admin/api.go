// Package admin implements the session-gated JSON management API for
// categories, coupons, referrals, bot settings and analytics.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/httpx"
	"edu_coupon_bot/internal/logging"
	"edu_coupon_bot/internal/store"
)

const (
	defaultStoreTimeout = 5 * time.Second
	recentInteractions  = 50
	topActions          = 10
)

// CategoryStore manages the category tree.
type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (domain.Category, error)
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	Update(ctx context.Context, id string, category domain.Category) (domain.Category, error)
	Delete(ctx context.Context, id string) error
	CountChildren(ctx context.Context, id string) (int64, error)
}

// CouponStore manages coupons.
type CouponStore interface {
	List(ctx context.Context) ([]domain.Coupon, error)
	Create(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	Update(ctx context.Context, id string, coupon domain.Coupon) (domain.Coupon, error)
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

// ReferralStore manages referral offers.
type ReferralStore interface {
	List(ctx context.Context) ([]domain.Referral, error)
	Get(ctx context.Context, id string) (domain.Referral, error)
	Create(ctx context.Context, referral domain.Referral) (domain.Referral, error)
	Update(ctx context.Context, id string, referral domain.Referral) (domain.Referral, error)
	Delete(ctx context.Context, id string) error
}

// SettingsStore reads and writes bot_settings rows.
type SettingsStore interface {
	All(ctx context.Context) ([]domain.Setting, error)
	Upsert(ctx context.Context, key, value string) error
}

// InteractionStore reads the interaction log.
type InteractionStore interface {
	Recent(ctx context.Context, limit int64) ([]domain.Interaction, error)
}

// StatsSource computes dashboard aggregates.
type StatsSource interface {
	Summarize(ctx context.Context, now time.Time) (store.Summary, error)
	TopActions(ctx context.Context, limit int64) ([]domain.ActionCount, error)
}

// AccountStore verifies admin accounts and persists sessions.
type AccountStore interface {
	FindActive(ctx context.Context, username string) (domain.AdminUser, error)
	CreateSession(ctx context.Context, token, username string, ttl time.Duration) (domain.AdminSession, error)
	SessionUsername(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Dependencies are the stores the API reads and writes.
type Dependencies struct {
	Categories   CategoryStore
	Coupons      CouponStore
	Referrals    ReferralStore
	Settings     SettingsStore
	Interactions InteractionStore
	Stats        StatsSource
	Accounts     AccountStore
}

// Option customizes the API.
type Option func(*API)

// WithLogger overrides the API logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStoreTimeout bounds every store call made while serving a request.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(a *API) {
		if timeout > 0 {
			a.storeTimeout = timeout
		}
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(a *API) {
		a.secureCookies = secure
	}
}

// WithClock replaces time.Now, used for "today" in stats.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// API serves /admin/api.
type API struct {
	categories   CategoryStore
	coupons      CouponStore
	referrals    ReferralStore
	settings     SettingsStore
	interactions InteractionStore
	stats        StatsSource
	accounts     AccountStore

	storeTimeout  time.Duration
	secureCookies bool
	now           func() time.Time
	logger        *logrus.Entry
}

// NewAPI validates deps and applies opts.
func NewAPI(deps Dependencies, opts ...Option) (*API, error) {
	switch {
	case deps.Categories == nil:
		return nil, errors.New("category store is required")
	case deps.Coupons == nil:
		return nil, errors.New("coupon store is required")
	case deps.Referrals == nil:
		return nil, errors.New("referral store is required")
	case deps.Settings == nil:
		return nil, errors.New("settings store is required")
	case deps.Interactions == nil:
		return nil, errors.New("interaction store is required")
	case deps.Stats == nil:
		return nil, errors.New("stats source is required")
	case deps.Accounts == nil:
		return nil, errors.New("account store is required")
	}

	a := &API{
		categories:   deps.Categories,
		coupons:      deps.Coupons,
		referrals:    deps.Referrals,
		settings:     deps.Settings,
		interactions: deps.Interactions,
		stats:        deps.Stats,
		accounts:     deps.Accounts,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
		logger:       logging.Logger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a, nil
}

// Routes returns the API router. Everything except login and logout needs a
// valid session cookie.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", a.login)
	r.Post("/logout", a.logout)

	r.Group(func(r chi.Router) {
		r.Use(a.requireSession)

		r.Get("/check", a.check)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", a.listCategories)
			r.Post("/", a.createCategory)
			r.Put("/{id}", a.updateCategory)
			r.Delete("/{id}", a.deleteCategory)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", a.listCoupons)
			r.Post("/", a.createCoupon)
			r.Put("/{id}", a.updateCoupon)
			r.Delete("/{id}", a.deleteCoupon)
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Get("/", a.listReferrals)
			r.Post("/", a.createReferral)
			r.Put("/{id}", a.updateReferral)
			r.Delete("/{id}", a.deleteReferral)
			r.Get("/{id}/qr.png", a.referralQR)
		})

		r.Get("/settings", a.getSettings)
		r.Put("/settings", a.putSettings)
		r.Get("/stats", a.getStats)
		r.Get("/analytics", a.getAnalytics)
	})

	return r
}

func (a *API) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.storeTimeout)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	httpx.WriteJSON(w, status, v, a.logger)
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	httpx.WriteError(w, status, message, a.logger)
}

func (a *API) badRequest(w http.ResponseWriter) {
	a.writeError(w, http.StatusBadRequest, "Invalid request body")
}

// fail maps a store error to a response: missing rows are 404, validation
// failures 400 and everything else 500.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, domain.ErrInvalid):
		a.writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.WithFields(logging.Fields{
			"event":  "admin_store_error",
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("admin request failed")
		a.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (a *API) audit(r *http.Request, action, id string) {
	a.logger.WithFields(logging.Fields{
		"event":  "admin_change",
		"action": action,
		"id":     id,
		"admin":  usernameFrom(r.Context()),
	}).Info("admin change applied")
}
