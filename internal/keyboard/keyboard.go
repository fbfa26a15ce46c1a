// Package keyboard builds the inline keyboards shown by the coupon bot. Every
// builder is pure: the same input always produces the same structure.
package keyboard

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"edu_coupon_bot/internal/domain"
)

// MaxCallbackDataLength is Telegram's limit for callback_data in bytes.
const MaxCallbackDataLength = 64

// Menu locations addressed by callback data.
const (
	MenuMain    = "menu:main"
	MenuPW      = "menu:pw"
	MenuOther   = "menu:other"
	MenuExtras  = "menu:extras"
	MenuSupport = "menu:support"

	PWBatches    = "pw:batches"
	PWTestSeries = "pw:testseries"
	PWStore      = "pw:store"
	PWOffline    = "pw:offline"
	PWPowerBatch = "pw:powerbatch"

	ExtrasReferrals = "extras:referrals"
	SupportMessage  = "support:message"

	Categories = "cat"
)

const backText = "🔙 Back"

// Button is one inline button. Exactly one of CallbackData and URL is set.
type Button struct {
	Text         string
	CallbackData string
	URL          string
}

// Keyboard is an ordered list of button rows.
type Keyboard struct {
	Rows [][]Button
}

// Validate checks every button carries text and exactly one target.
func (k Keyboard) Validate() error {
	for i, row := range k.Rows {
		if len(row) == 0 {
			return fmt.Errorf("row %d is empty", i)
		}
		for j, b := range row {
			if strings.TrimSpace(b.Text) == "" {
				return fmt.Errorf("button %d/%d has no text", i, j)
			}
			hasCallback := b.CallbackData != ""
			hasURL := b.URL != ""
			if hasCallback == hasURL {
				return fmt.Errorf("button %q must have exactly one of callback data or url", b.Text)
			}
			if len(b.CallbackData) > MaxCallbackDataLength {
				return fmt.Errorf("button %q callback data exceeds %d bytes", b.Text, MaxCallbackDataLength)
			}
		}
	}
	return nil
}

// Markup converts the keyboard into the go-telegram reply markup. A nil
// keyboard yields nil so callers can pass it straight through.
func (k *Keyboard) Markup() *models.InlineKeyboardMarkup {
	if k == nil {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(k.Rows))
	for _, row := range k.Rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         b.Text,
				CallbackData: b.CallbackData,
				URL:          b.URL,
			})
		}
		rows = append(rows, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Callbacks returns every callback token in the keyboard, row by row.
func (k Keyboard) Callbacks() []string {
	var out []string
	for _, row := range k.Rows {
		for _, b := range row {
			if b.CallbackData != "" {
				out = append(out, b.CallbackData)
			}
		}
	}
	return out
}

func callback(text, data string) []Button {
	return []Button{{Text: text, CallbackData: data}}
}

func backRow(target string) []Button {
	return callback(backText, target)
}

// Main is the root menu.
func Main() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("🎓 Physics Wallah (PW)", MenuPW),
		callback("🏫 Other Institutes", MenuOther),
		callback("🎁 Extras", MenuExtras),
		callback("🛠 Support", MenuSupport),
		callback("🗂 All Categories", Categories),
	}}
}

// PW lists the Physics Wallah sections.
func PW() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("📘 Batches", PWBatches),
		callback("🧪 Test Series", PWTestSeries),
		callback("🛍 Store", PWStore),
		callback("🏫 Offline", PWOffline),
		callback("⚡ Power Batch", PWPowerBatch),
		backRow(MenuMain),
	}}
}

// Exam offers the exam choices below scope, e.g. "pw:batches".
func Exam(scope string) Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("🧠 JEE", scope+":jee"),
		callback("🩺 NEET", scope+":neet"),
		callback("📖 All Exams", scope+":all"),
		backRow(Parent(scope)),
	}}
}

// TestSeries lists the PW test series.
func TestSeries() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("🧪 PW RTS (Real Test Series)", PWTestSeries+":rts"),
		callback("📊 Mathongo / Quizzr (Online)", PWTestSeries+":online"),
		backRow(MenuPW),
	}}
}

// Offline lists the PW offline centres.
func Offline() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("🏫 Vidyapeeth", PWOffline+":vidyapeeth"),
		callback("🏫 Pathshala", PWOffline+":pathshala"),
		backRow(MenuPW),
	}}
}

// OtherInstitutes lists the non-PW institutes.
func OtherInstitutes() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("🚀 Motion", "other:motion"),
		callback("🔵 Unacademy", "other:unacademy"),
		callback("🟢 Careerwill", "other:careerwill"),
		backRow(MenuMain),
	}}
}

// InstituteExam offers the exams available for institute.
func InstituteExam(institute string) Keyboard {
	scope := "other:" + institute
	return Keyboard{Rows: [][]Button{
		callback("🧠 JEE", scope+":jee"),
		callback("🩺 NEET", scope+":neet"),
		backRow(Parent(scope)),
	}}
}

// Extras lists reward offers.
func Extras() Keyboard {
	return Keyboard{Rows: [][]Button{
		callback("📲 Referral Offers", ExtrasReferrals),
		backRow(MenuMain),
	}}
}

// Support shows the support options. The contact button only appears when an
// admin username is configured.
func Support(adminUsername string) Keyboard {
	rows := make([][]Button, 0, 3)

	username := strings.TrimPrefix(strings.TrimSpace(adminUsername), "@")
	if username != "" {
		rows = append(rows, []Button{{Text: "💬 Contact Admin", URL: "https://t.me/" + username}})
	}

	rows = append(rows,
		callback("📝 Send Message to Admin", SupportMessage),
		backRow(MenuMain),
	)

	return Keyboard{Rows: rows}
}

// Back is a single back button routing to target.
func Back(target string) Keyboard {
	return Keyboard{Rows: [][]Button{backRow(target)}}
}

// CategoryFor returns the callback token that opens category id.
func CategoryFor(id string) string {
	return Categories + ":" + id
}

// CategoryList renders one button per category followed by a back button.
func CategoryList(categories []domain.Category, back string) Keyboard {
	rows := make([][]Button, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, callback(c.Label(), CategoryFor(c.ID)))
	}
	rows = append(rows, backRow(back))

	return Keyboard{Rows: rows}
}

// CategoryParent returns the back target for a dynamic category: its parent
// category when it has one, otherwise the category root list.
func CategoryParent(c domain.Category) string {
	if c.ParentID != nil && *c.ParentID != "" {
		return CategoryFor(*c.ParentID)
	}
	return Categories
}

// Parent maps a menu location to the location its back button returns to.
func Parent(location string) string {
	parts := strings.Split(location, ":")

	switch parts[0] {
	case "menu":
		return MenuMain
	case "pw":
		if len(parts) >= 3 {
			return parts[0] + ":" + parts[1]
		}
		return MenuPW
	case "other":
		switch len(parts) {
		case 1:
			return MenuMain
		case 2:
			return MenuOther
		default:
			return parts[0] + ":" + parts[1]
		}
	case "extras":
		if len(parts) == 1 {
			return MenuMain
		}
		return MenuExtras
	case "support":
		if len(parts) == 1 {
			return MenuMain
		}
		return MenuSupport
	default:
		return MenuMain
	}
}
