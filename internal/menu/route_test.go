package menu

import (
	"errors"
	"strings"
	"testing"

	"edu_coupon_bot/internal/keyboard"
)

func TestParseRouteAcceptsGrammar(t *testing.T) {
	tests := []struct {
		data string
		want Route
	}{
		{data: "menu", want: Route{Action: ActionMenu}},
		{data: "menu:support", want: Route{Action: ActionMenu, Param: "support"}},
		{data: "pw:batches", want: Route{Action: ActionPW, Param: "batches"}},
		{data: "pw:batches:all", want: Route{Action: ActionPW, Param: "batches", Sub: "all"}},
		{data: "pw:offline:pathshala", want: Route{Action: ActionPW, Param: "offline", Sub: "pathshala"}},
		{data: "other", want: Route{Action: ActionOther}},
		{data: "other:careerwill:neet", want: Route{Action: ActionOther, Param: "careerwill", Sub: "neet"}},
		{data: "extras:referrals", want: Route{Action: ActionExtras, Param: "referrals"}},
		{data: "support:message", want: Route{Action: ActionSupport, Param: "message"}},
		{data: "cat", want: Route{Action: ActionCategory}},
		{data: "cat:3f2b9c1e-uuid", want: Route{Action: ActionCategory, Param: "3f2b9c1e-uuid"}},
	}

	for _, tt := range tests {
		got, err := ParseRoute(tt.data)
		if err != nil {
			t.Fatalf("ParseRoute(%q) returned error: %v", tt.data, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRoute(%q) = %+v, want %+v", tt.data, got, tt.want)
		}
		if got.String() != tt.data {
			t.Fatalf("String() = %q, want %q", got.String(), tt.data)
		}
	}
}

func TestParseRouteRejectsUnknownData(t *testing.T) {
	invalid := []string{
		"",
		"unknown",
		"menu:settings",
		"menu:main:jee",
		"pw:vault",
		"pw:store:extra",
		"pw:powerbatch:jee",
		"pw:testseries:jee",
		"pw:batches:gate",
		"other:allen",
		"other:motion:all",
		"extras:coins",
		"support:call",
		"cat:a:b",
		"pw::jee",
		"menu:",
		":main",
		"a:b:c:d",
		strings.Repeat("x", keyboard.MaxCallbackDataLength+1),
	}

	for _, data := range invalid {
		if _, err := ParseRoute(data); !errors.Is(err, ErrInvalidRoute) {
			t.Fatalf("ParseRoute(%q) error = %v, want ErrInvalidRoute", data, err)
		}
	}
}

func TestKeyboardCallbacksAreRoutable(t *testing.T) {
	keyboards := []keyboard.Keyboard{
		keyboard.Main(),
		keyboard.PW(),
		keyboard.Exam(keyboard.PWBatches),
		keyboard.TestSeries(),
		keyboard.Offline(),
		keyboard.OtherInstitutes(),
		keyboard.InstituteExam("motion"),
		keyboard.InstituteExam("unacademy"),
		keyboard.InstituteExam("careerwill"),
		keyboard.Extras(),
		keyboard.Support("helpdesk"),
	}

	for _, kb := range keyboards {
		for _, data := range kb.Callbacks() {
			if _, err := ParseRoute(data); err != nil {
				t.Fatalf("keyboard callback %q is not routable: %v", data, err)
			}
		}
	}
}
