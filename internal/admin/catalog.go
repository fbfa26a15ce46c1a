package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/httpx"
)

const (
	qrSize = 256

	// maxCategoryDepth bounds the walk up the parent chain.
	maxCategoryDepth = 32
)

type categoryRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Emoji     string  `json:"emoji"`
	ParentID  *string `json:"parent_id"`
	SortOrder int     `json:"sort_order"`
	IsActive  *bool   `json:"is_active"`
}

func (req categoryRequest) category() domain.Category {
	c := domain.Category{
		ID:        strings.TrimSpace(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Emoji:     strings.TrimSpace(req.Emoji),
		SortOrder: req.SortOrder,
		IsActive:  active(req.IsActive),
	}
	if req.ParentID != nil {
		if parent := strings.TrimSpace(*req.ParentID); parent != "" {
			c.ParentID = &parent
		}
	}
	return c
}

type couponRequest struct {
	CategoryID  string `json:"category_id"`
	Code        string `json:"code"`
	Discount    string `json:"discount"`
	Description string `json:"description"`
	Validity    string `json:"validity"`
	IsActive    *bool  `json:"is_active"`
}

func (req couponRequest) coupon() domain.Coupon {
	return domain.Coupon{
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Code:        strings.TrimSpace(req.Code),
		Discount:    strings.TrimSpace(req.Discount),
		Description: strings.TrimSpace(req.Description),
		Validity:    strings.TrimSpace(req.Validity),
		IsActive:    active(req.IsActive),
	}
}

type referralRequest struct {
	Name         string `json:"name"`
	Emoji        string `json:"emoji"`
	AppName      string `json:"app_name"`
	ReferralCode string `json:"referral_code"`
	Instructions string `json:"instructions"`
	Link         string `json:"link"`
	IsActive     *bool  `json:"is_active"`
}

func (req referralRequest) referral() domain.Referral {
	return domain.Referral{
		Name:         strings.TrimSpace(req.Name),
		Emoji:        strings.TrimSpace(req.Emoji),
		AppName:      strings.TrimSpace(req.AppName),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		Instructions: strings.TrimSpace(req.Instructions),
		Link:         strings.TrimSpace(req.Link),
		IsActive:     active(req.IsActive),
	}
}

// active defaults omitted flags to true.
func active(flag *bool) bool {
	return flag == nil || *flag
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	categories, err := a.categories.List(ctx)
	if err != nil {
		a.fail(w, r, err, "category")
		return
	}

	a.writeJSON(w, http.StatusOK, categories)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}
	category := req.category()

	if !a.parentAllowed(w, r, category.ID, category.ParentID) {
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	created, err := a.categories.Create(ctx, category)
	if err != nil {
		a.fail(w, r, err, "category")
		return
	}

	a.audit(r, "category_created", created.ID)
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}
	category := req.category()

	if !a.parentAllowed(w, r, id, category.ParentID) {
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	updated, err := a.categories.Update(ctx, id, category)
	if err != nil {
		a.fail(w, r, err, "category")
		return
	}

	a.audit(r, "category_updated", id)
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if a.categoryInUse(w, r, id) {
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.categories.Delete(ctx, id); err != nil {
		a.fail(w, r, err, "category")
		return
	}

	a.audit(r, "category_deleted", id)
	a.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// parentAllowed writes a 400 when parentID names a missing category, or when
// filing id under it would close a loop in the tree.
func (a *API) parentAllowed(w http.ResponseWriter, r *http.Request, id string, parentID *string) bool {
	if parentID == nil {
		return true
	}
	if *parentID == id {
		a.writeError(w, http.StatusBadRequest, "category cannot be its own parent")
		return false
	}
	if !a.categoryExists(w, r, *parentID, "parent category not found") {
		return false
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	current := *parentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		ancestor, err := a.categories.Get(ctx, current)
		if errors.Is(err, domain.ErrNotFound) {
			return true
		}
		if err != nil {
			a.fail(w, r, err, "category")
			return false
		}
		if ancestor.ParentID == nil {
			return true
		}
		if *ancestor.ParentID == id {
			a.writeError(w, http.StatusBadRequest, "category cannot be nested under its own subcategory")
			return false
		}
		current = *ancestor.ParentID
	}

	a.writeError(w, http.StatusBadRequest, "category tree is too deep")
	return false
}

// categoryInUse writes a 400 while coupons or subcategories still reference id.
func (a *API) categoryInUse(w http.ResponseWriter, r *http.Request, id string) bool {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	coupons, err := a.coupons.CountByCategory(ctx, id)
	if err != nil {
		a.fail(w, r, err, "category")
		return true
	}
	if coupons > 0 {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("category still has %d coupon(s)", coupons))
		return true
	}

	children, err := a.categories.CountChildren(ctx, id)
	if err != nil {
		a.fail(w, r, err, "category")
		return true
	}
	if children > 0 {
		a.writeError(w, http.StatusBadRequest, fmt.Sprintf("category still has %d subcategories", children))
		return true
	}

	return false
}

func (a *API) categoryExists(w http.ResponseWriter, r *http.Request, id, missing string) bool {
	if id == "" {
		a.writeError(w, http.StatusBadRequest, "category_id is required")
		return false
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	_, err := a.categories.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		a.writeError(w, http.StatusBadRequest, missing)
		return false
	}
	if err != nil {
		a.fail(w, r, err, "category")
		return false
	}

	return true
}

func (a *API) listCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	coupons, err := a.coupons.List(ctx)
	if err != nil {
		a.fail(w, r, err, "coupon")
		return
	}

	a.writeJSON(w, http.StatusOK, coupons)
}

func (a *API) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}
	coupon := req.coupon()

	if !a.categoryExists(w, r, coupon.CategoryID, "category not found") {
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	created, err := a.coupons.Create(ctx, coupon)
	if err != nil {
		a.fail(w, r, err, "coupon")
		return
	}

	a.audit(r, "coupon_created", created.ID)
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req couponRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}
	coupon := req.coupon()

	if !a.categoryExists(w, r, coupon.CategoryID, "category not found") {
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	updated, err := a.coupons.Update(ctx, id, coupon)
	if err != nil {
		a.fail(w, r, err, "coupon")
		return
	}

	a.audit(r, "coupon_updated", id)
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.coupons.Delete(ctx, id); err != nil {
		a.fail(w, r, err, "coupon")
		return
	}

	a.audit(r, "coupon_deleted", id)
	a.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) listReferrals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	referrals, err := a.referrals.List(ctx)
	if err != nil {
		a.fail(w, r, err, "referral")
		return
	}

	a.writeJSON(w, http.StatusOK, referrals)
}

func (a *API) createReferral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	created, err := a.referrals.Create(ctx, req.referral())
	if err != nil {
		a.fail(w, r, err, "referral")
		return
	}

	a.audit(r, "referral_created", created.ID)
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) updateReferral(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req referralRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.badRequest(w)
		return
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	updated, err := a.referrals.Update(ctx, id, req.referral())
	if err != nil {
		a.fail(w, r, err, "referral")
		return
	}

	a.audit(r, "referral_updated", id)
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteReferral(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := a.storeContext(r)
	defer cancel()

	if err := a.referrals.Delete(ctx, id); err != nil {
		a.fail(w, r, err, "referral")
		return
	}

	a.audit(r, "referral_deleted", id)
	a.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// referralQR renders the referral link as a PNG QR code.
func (a *API) referralQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := a.storeContext(r)
	defer cancel()

	referral, err := a.referrals.Get(ctx, id)
	if err != nil {
		a.fail(w, r, err, "referral")
		return
	}
	if referral.Link == "" {
		a.writeError(w, http.StatusNotFound, "referral has no link")
		return
	}

	png, err := qrcode.Encode(referral.Link, qrcode.Medium, qrSize)
	if err != nil {
		a.fail(w, r, err, "qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
