package content

import (
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppDigits keeps only the digits of a phone number, the format wa.me
// expects (international, no plus sign or separators).
func WhatsAppDigits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink returns a wa.me link with a prefilled message, or "" when the
// number has no digits.
func WhatsAppLink(number, message string) string {
	digits := WhatsAppDigits(number)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if msg := strings.TrimSpace(message); msg != "" {
		link += "?text=" + url.QueryEscape(msg)
	}
	return link
}

// InstagramHandle normalizes "@shop", "shop" and profile URLs to "shop".
func InstagramHandle(handle string) string {
	h := strings.TrimSpace(handle)
	for _, prefix := range []string{"https://", "http://", "www.", "instagram.com/", "ig.me/m/"} {
		h = strings.TrimPrefix(h, prefix)
	}
	h = strings.TrimPrefix(h, "@")
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	return h
}

// InstagramLink opens a direct message thread with the business.
func InstagramLink(handle string) string {
	h := InstagramHandle(handle)
	if h == "" {
		return ""
	}
	return "https://ig.me/m/" + url.PathEscape(h)
}

// OrderMessage is the prefilled text for ordering one product.
func OrderMessage(businessName, productName string, price int64) string {
	if productName == "" {
		return fmt.Sprintf("Hello %s, I found you on Marktplatz and would like to place an order.", businessName)
	}
	return fmt.Sprintf("Hello %s, I would like to order %s (%d). Is it available?", businessName, productName, price)
}
