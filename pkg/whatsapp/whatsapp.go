// Package whatsapp builds the click-to-chat links used to relay orders to
// restaurant owners.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

const linkBase = "https://wa.me/"

// OrderSummary carries everything needed to render the relay message.
type OrderSummary struct {
	Number         string
	CustomerName   string
	CustomerPhone  string
	Address        string
	DeliveryOption enums.DeliveryOption
	Items          []ItemSummary
	Note           string
	Total          decimal.Decimal
	RestaurantName string
}

// ItemSummary is one line of the relayed order.
type ItemSummary struct {
	Name      string
	Quantity  int
	LineTotal decimal.Decimal
}

// Link builds a wa.me click-to-chat URL for the given phone and message.
// Phone numbers are normalized to digits only, as wa.me requires.
func Link(phone, message string) string {
	return linkBase + NormalizePhone(phone) + "?text=" + url.QueryEscape(message)
}

// NormalizePhone strips everything but digits from a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatOrderMessage renders the order relay text. The copy is French to
// match the storefront audience.
func FormatOrderMessage(order OrderSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🛒 *NOUVELLE COMMANDE #%s*\n", strings.ToUpper(order.Number))
	fmt.Fprintf(&b, "👤 Nom : %s\n", order.CustomerName)
	fmt.Fprintf(&b, "📞 Tel : %s\n", order.CustomerPhone)

	if order.DeliveryOption == enums.DeliveryOptionDelivery {
		fmt.Fprintf(&b, "🏠 *LIVRAISON* : %s\n", order.Address)
	} else {
		b.WriteString("🚶 *À EMPORTER*\n")
	}

	b.WriteString("\n📋 *Détail de la commande :*\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "▫️ %dx %s (%s€)\n", item.Quantity, item.Name, item.LineTotal.StringFixed(2))
	}

	if order.Note != "" {
		fmt.Fprintf(&b, "\n📝 Note : %s", order.Note)
	}
	fmt.Fprintf(&b, "\n💰 *TOTAL : %s €*", order.Total.StringFixed(2))
	fmt.Fprintf(&b, "\n📍 Restaurant : %s", order.RestaurantName)

	return b.String()
}
