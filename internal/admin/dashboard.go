package admin

import (
	"net/http"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/httpx"
)

type analyticsResponse struct {
	Recent     []domain.Interaction `json:"recent"`
	TopActions []domain.ActionCount `json:"top_actions"`
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	rows, err := a.settings.All(ctx)
	if err != nil {
		a.fail(w, r, err, "settings")
		return
	}

	settings := domain.DefaultSettings()
	for _, row := range rows {
		settings.Apply(row)
	}

	a.writeJSON(w, http.StatusOK, settings)
}

// putSettings accepts a partial key/value map. Every key is validated before
// anything is written.
func (a *API) putSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req) == 0 {
		a.badRequest(w)
		return
	}

	for key, value := range req {
		if !domain.IsSettingKey(key) {
			a.writeError(w, http.StatusBadRequest, "unknown setting "+key)
			return
		}
		if key == domain.SettingSupportMode && domain.SupportMode(value) != domain.SupportModeForward && domain.SupportMode(value) != domain.SupportModeLink {
			a.writeError(w, http.StatusBadRequest, "support_mode must be forward or link")
			return
		}
	}

	ctx, cancel := a.storeContext(r)
	defer cancel()

	for _, key := range domain.SettingKeys {
		value, ok := req[key]
		if !ok {
			continue
		}
		if err := a.settings.Upsert(ctx, key, value); err != nil {
			a.fail(w, r, err, "settings")
			return
		}
		a.audit(r, "setting_updated", key)
	}

	a.getSettings(w, r)
}

func (a *API) getStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	summary, err := a.stats.Summarize(ctx, a.now())
	if err != nil {
		a.fail(w, r, err, "stats")
		return
	}

	a.writeJSON(w, http.StatusOK, summary)
}

func (a *API) getAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.storeContext(r)
	defer cancel()

	recent, err := a.interactions.Recent(ctx, recentInteractions)
	if err != nil {
		a.fail(w, r, err, "interactions")
		return
	}

	top, err := a.stats.TopActions(ctx, topActions)
	if err != nil {
		a.fail(w, r, err, "interactions")
		return
	}

	if recent == nil {
		recent = []domain.Interaction{}
	}
	if top == nil {
		top = []domain.ActionCount{}
	}

	a.writeJSON(w, http.StatusOK, analyticsResponse{Recent: recent, TopActions: top})
}
