package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/keyboard"
)

// render resolves a route to its reply. Lookup misses are replies, not errors;
// only store failures are returned.
func (d *Dispatcher) render(ctx context.Context, route Route) (reply, error) {
	switch route.Action {
	case ActionMenu:
		return d.renderMenu(ctx, route.Param), nil
	case ActionPW:
		return d.renderPW(ctx, route)
	case ActionOther:
		return d.renderOther(ctx, route)
	case ActionExtras:
		if route.Param == "" {
			return reply{text: textExtras, keyboard: keyboard.Extras()}, nil
		}
		return d.renderReferrals(ctx, route)
	case ActionSupport:
		if route.Param == "" {
			return d.renderMenu(ctx, "support"), nil
		}
		return reply{text: textSupportPrompt, keyboard: keyboard.Back(keyboard.Parent(route.String()))}, nil
	case ActionCategory:
		return d.renderCategory(ctx, route.Param)
	default:
		return reply{}, fmt.Errorf("unhandled action %q", route.Action)
	}
}

func (d *Dispatcher) renderMenu(ctx context.Context, name string) reply {
	switch name {
	case "pw":
		return reply{text: textPWMenu, keyboard: keyboard.PW()}
	case "other":
		return reply{text: textInstitutes, keyboard: keyboard.OtherInstitutes()}
	case "extras":
		return reply{text: textExtras, keyboard: keyboard.Extras()}
	case "support":
		settings := d.resolveSettings(ctx)
		return reply{text: textSupport, keyboard: keyboard.Support(settings.AdminUsername)}
	default:
		return mainMenu()
	}
}

func (d *Dispatcher) renderPW(ctx context.Context, route Route) (reply, error) {
	back := keyboard.Parent(route.String())

	switch route.Param {
	case "batches":
		if route.Sub == "" {
			return reply{text: textExamSelect, keyboard: keyboard.Exam(keyboard.PWBatches)}, nil
		}
		exam := examLabels[route.Sub]
		return d.latestCoupon(ctx, couponQuery{
			categoryID: "pw_batches",
			contains:   exam,
			title:      fmt.Sprintf("🔥 PW %s Batch Coupon 🎓", exam),
			missing:    exam + " batch coupon",
			back:       back,
		})
	case "testseries":
		if route.Sub == "" {
			return reply{text: textTestSeries, keyboard: keyboard.TestSeries()}, nil
		}
		label := testSeriesLabels[route.Sub]
		return d.latestCoupon(ctx, couponQuery{
			categoryID: "pw_testseries_" + route.Sub,
			title:      fmt.Sprintf("🧪 PW %s Test Series Coupon 🎓", label),
			missing:    label + " test series coupon",
			back:       back,
		})
	case "offline":
		if route.Sub == "" {
			return reply{text: textOffline, keyboard: keyboard.Offline()}, nil
		}
		label := offlineLabels[route.Sub]
		return d.latestCoupon(ctx, couponQuery{
			categoryID: "pw_offline_" + route.Sub,
			title:      fmt.Sprintf("🏫 PW %s Offline Coupon 🎓", label),
			missing:    label + " offline coupon",
			back:       back,
		})
	case "store":
		storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
		defer cancel()

		coupons, err := d.coupons.ActiveByCategory(storeCtx, "pw_store")
		if err != nil {
			return reply{}, fmt.Errorf("list store coupons: %w", err)
		}
		if len(coupons) == 0 {
			return unavailable("store coupons", back), nil
		}
		return reply{text: couponList("🛍 PW Store Coupons", coupons), keyboard: keyboard.Back(back)}, nil
	case "powerbatch":
		return d.latestCoupon(ctx, couponQuery{
			categoryID: "pw_powerbatch",
			title:      "⚡ PW Power Batch Coupon ⚡",
			missing:    "power batch coupon",
			back:       back,
		})
	default:
		return d.renderMenu(ctx, "pw"), nil
	}
}

func (d *Dispatcher) renderOther(ctx context.Context, route Route) (reply, error) {
	if route.Param == "" {
		return d.renderMenu(ctx, "other"), nil
	}
	if route.Sub == "" {
		return reply{
			text:     fmt.Sprintf("Choose exam for %s 📚", route.Param),
			keyboard: keyboard.InstituteExam(route.Param),
		}, nil
	}

	exam := examLabels[route.Sub]
	return d.latestCoupon(ctx, couponQuery{
		categoryID: route.Param + "_" + route.Sub,
		title:      fmt.Sprintf("%s %s %s Coupon 🎓", instituteEmoji[route.Param], strings.ToUpper(route.Param), exam),
		missing:    fmt.Sprintf("%s %s coupon", route.Param, exam),
		back:       keyboard.Parent(route.String()),
	})
}

func (d *Dispatcher) renderReferrals(ctx context.Context, route Route) (reply, error) {
	back := keyboard.Parent(route.String())

	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	referrals, err := d.referrals.Active(storeCtx)
	if err != nil {
		return reply{}, fmt.Errorf("list referrals: %w", err)
	}
	if len(referrals) == 0 {
		return unavailable("referral offers", back), nil
	}

	return reply{text: referralList(referrals), keyboard: keyboard.Back(back)}, nil
}

// renderCategory walks the admin-managed category tree. Categories with
// children render as a submenu, leaves list their active coupons.
func (d *Dispatcher) renderCategory(ctx context.Context, id string) (reply, error) {
	if id == "" {
		children, err := d.activeChildren(ctx, "")
		if err != nil {
			return reply{}, err
		}
		if len(children) == 0 {
			return unavailable("categories", keyboard.MenuMain), nil
		}
		return reply{text: textCategories, keyboard: keyboard.CategoryList(children, keyboard.MenuMain)}, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	category, err := d.categories.Get(storeCtx, id)
	cancel()
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !category.IsActive) {
		return unavailable("category", keyboard.Categories), nil
	}
	if err != nil {
		return reply{}, fmt.Errorf("get category %s: %w", id, err)
	}

	back := keyboard.CategoryParent(category)

	children, err := d.activeChildren(ctx, id)
	if err != nil {
		return reply{}, err
	}
	if len(children) > 0 {
		return reply{text: category.Label() + " 👇", keyboard: keyboard.CategoryList(children, back)}, nil
	}

	storeCtx, cancel = context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	coupons, err := d.coupons.ActiveByCategory(storeCtx, id)
	if err != nil {
		return reply{}, fmt.Errorf("list coupons for %s: %w", id, err)
	}
	if len(coupons) == 0 {
		return unavailable(category.Name+" coupons", back), nil
	}

	return reply{text: couponList(category.Label()+" Coupons", coupons), keyboard: keyboard.Back(back)}, nil
}

func (d *Dispatcher) activeChildren(ctx context.Context, parentID string) ([]domain.Category, error) {
	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	children, err := d.categories.ActiveChildren(storeCtx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list categories under %q: %w", parentID, err)
	}
	return children, nil
}

type couponQuery struct {
	categoryID string
	contains   string
	title      string
	missing    string
	back       string
}

func (d *Dispatcher) latestCoupon(ctx context.Context, q couponQuery) (reply, error) {
	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	coupon, err := d.coupons.LatestActive(storeCtx, q.categoryID, q.contains)
	if errors.Is(err, domain.ErrNotFound) {
		return unavailable(q.missing, q.back), nil
	}
	if err != nil {
		return reply{}, fmt.Errorf("latest coupon in %s: %w", q.categoryID, err)
	}

	return reply{text: couponCard(q.title, coupon), keyboard: keyboard.Back(q.back)}, nil
}
