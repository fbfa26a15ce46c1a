package menu

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/keyboard"
)

// Action is the first segment of callback data.
type Action string

const (
	ActionMenu     Action = "menu"
	ActionPW       Action = "pw"
	ActionOther    Action = "other"
	ActionExtras   Action = "extras"
	ActionSupport  Action = "support"
	ActionCategory Action = "cat"
)

// ErrInvalidRoute is returned for callback data outside the menu grammar.
var ErrInvalidRoute = errors.New("invalid callback route")

var (
	menuParams = []string{"main", "pw", "other", "extras", "support"}

	// pwParams maps each PW section to the subparams it accepts.
	pwParams = map[string][]string{
		"batches":    {"jee", "neet", "all"},
		"testseries": {"rts", "online"},
		"store":      nil,
		"offline":    {"vidyapeeth", "pathshala"},
		"powerbatch": nil,
	}

	institutes     = []string{"motion", "unacademy", "careerwill"}
	instituteExams = []string{"jee", "neet"}
)

// Route is validated callback data of the form action[:param[:sub]].
type Route struct {
	Action Action
	Param  string
	Sub    string
}

// ParseRoute validates data against the menu grammar.
func ParseRoute(data string) (Route, error) {
	if data == "" {
		return Route{}, fmt.Errorf("%w: empty", ErrInvalidRoute)
	}
	if len(data) > keyboard.MaxCallbackDataLength {
		return Route{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidRoute, keyboard.MaxCallbackDataLength)
	}

	parts := strings.Split(data, ":")
	if len(parts) > 3 {
		return Route{}, fmt.Errorf("%w: %q has too many segments", ErrInvalidRoute, data)
	}
	for _, part := range parts {
		if part == "" {
			return Route{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidRoute, data)
		}
	}

	route := Route{Action: Action(parts[0])}
	if len(parts) > 1 {
		route.Param = parts[1]
	}
	if len(parts) > 2 {
		route.Sub = parts[2]
	}

	if err := route.validate(); err != nil {
		return Route{}, fmt.Errorf("%w: %q: %s", ErrInvalidRoute, data, err.Error())
	}

	return route, nil
}

func (r Route) validate() error {
	switch r.Action {
	case ActionMenu:
		return r.check(menuParams, nil)
	case ActionPW:
		if r.Param == "" {
			return nil
		}
		subs, ok := pwParams[r.Param]
		if !ok {
			return fmt.Errorf("unknown pw section %q", r.Param)
		}
		return checkSub(r.Sub, subs)
	case ActionOther:
		return r.check(institutes, instituteExams)
	case ActionExtras:
		return r.check([]string{"referrals"}, nil)
	case ActionSupport:
		return r.check([]string{"message"}, nil)
	case ActionCategory:
		if r.Sub != "" {
			return errors.New("categories take no subparam")
		}
		if r.Param == "" {
			return nil
		}
		return domain.ValidateCategoryID(r.Param)
	default:
		return fmt.Errorf("unknown action %q", r.Action)
	}
}

// check accepts an empty or listed param and a sub drawn from subs.
func (r Route) check(params, subs []string) error {
	if r.Param != "" && !slices.Contains(params, r.Param) {
		return fmt.Errorf("unknown %s param %q", r.Action, r.Param)
	}
	if r.Param == "" && r.Sub != "" {
		return errors.New("subparam without param")
	}
	return checkSub(r.Sub, subs)
}

func checkSub(sub string, allowed []string) error {
	if sub == "" || slices.Contains(allowed, sub) {
		return nil
	}
	return fmt.Errorf("unknown subparam %q", sub)
}

// String renders the route back into callback data.
func (r Route) String() string {
	out := string(r.Action)
	if r.Param != "" {
		out += ":" + r.Param
	}
	if r.Sub != "" {
		out += ":" + r.Sub
	}
	return out
}
