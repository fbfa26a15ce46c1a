package menu

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/keyboard"
)

const (
	textMainMenu      = "Choose what you're looking for today 👇"
	textPWMenu        = "Choose a PW category 📚🔥"
	textInstitutes    = "Choose an institute 🎓"
	textExtras        = "Earn rewards & offers 💰🎁"
	textSupport       = "Need help? 🤝💬"
	textExamSelect    = "Select your exam category 🎯📖"
	textTestSeries    = "Choose a test series 🧪"
	textOffline       = "Choose offline center 🏫"
	textCategories    = "Browse all categories 🗂"
	textSupportPrompt = "Please type your message and we'll forward it to admin 💬"
	textSupportLink   = "Our admin answers support questions directly 🤝\nUse the options below to get in touch 💬"
	textSentToAdmin   = "✅ Message sent to admin! We'll get back to you soon. 📞"
	textApology       = "Sorry, something went wrong. Please try again 😔"

	defaultGreeting     = "Hello %s 👋✨\nWelcome to your discounted education journey 🎓💸\nChoose what you're looking for today 👇"
	greetingPlaceholder = "{first_name}"
	fallbackFirstName   = "there"
	unknownUsername     = "unknown"

	actionLabelLimit = 50

	// maxMessageRunes is Telegram's sendMessage text limit.
	maxMessageRunes = 4096
	truncatedMarker = "…"
)

var (
	examLabels = map[string]string{"jee": "JEE", "neet": "NEET", "all": "All"}

	testSeriesLabels = map[string]string{"rts": "RTS", "online": "Online"}

	offlineLabels = map[string]string{"vidyapeeth": "Vidyapeeth", "pathshala": "Pathshala"}

	instituteEmoji = map[string]string{"motion": "🚀", "unacademy": "🔵", "careerwill": "🟢"}
)

type reply struct {
	text     string
	keyboard keyboard.Keyboard
}

func mainMenu() reply {
	return reply{text: textMainMenu, keyboard: keyboard.Main()}
}

func apology() reply {
	return reply{text: textApology, keyboard: keyboard.Main()}
}

func unavailable(what, back string) reply {
	return reply{
		text:     fmt.Sprintf("No %s available right now ⏳", what),
		keyboard: keyboard.Back(back),
	}
}

func couponCard(title string, c domain.Coupon) string {
	return fmt.Sprintf("%s\n\n🏷 Code: %s\n💸 Discount: %s\n⏳ Validity: %s\n\nEnroll smart 🚀",
		title, c.Code, c.Discount, c.Validity)
}

func couponList(header string, coupons []domain.Coupon) string {
	blocks := make([]string, 0, len(coupons))
	for _, c := range coupons {
		blocks = append(blocks, fmt.Sprintf("🏷 %s\n💸 %s\n⏳ %s", c.Code, c.Discount, c.Validity))
	}
	return header + "\n\n" + strings.Join(blocks, "\n\n")
}

func referralList(referrals []domain.Referral) string {
	blocks := make([]string, 0, len(referrals))
	for _, r := range referrals {
		emoji := r.Emoji
		if emoji == "" {
			emoji = "💸"
		}

		lines := []string{emoji + " " + referralTitle(r), "📱 Code: " + r.ReferralCode}
		if r.Instructions != "" {
			lines = append(lines, r.Instructions)
		}
		if r.Link != "" {
			lines = append(lines, "🔗 "+r.Link)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return "💰 Referral Offers 💰\n\n" + strings.Join(blocks, "\n\n") + "\n\nInstall, refer & earn 🔥"
}

func referralTitle(r domain.Referral) string {
	if r.AppName != "" && r.AppName != r.Name {
		return r.Name + " (" + r.AppName + ")"
	}
	return r.Name
}

func greeting(settings domain.Settings, firstName string) string {
	if template := strings.TrimSpace(settings.GreetingMessage); template != "" {
		return strings.ReplaceAll(template, greetingPlaceholder, firstName)
	}
	return fmt.Sprintf(defaultGreeting, firstName)
}

// relayText prefixes the user's message for the admin chat, cutting the
// message so the whole text fits in one Telegram message.
func relayText(username, text string) string {
	if username == "" {
		username = unknownUsername
	}

	prefix := fmt.Sprintf("📨 New message from @%s:\n\n", username)
	room := maxMessageRunes - utf8.RuneCountInString(prefix)
	if utf8.RuneCountInString(text) > room {
		text = truncateRunes(text, room-len([]rune(truncatedMarker))) + truncatedMarker
	}
	return prefix + text
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
