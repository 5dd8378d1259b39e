package notifier

import (
	"fmt"
	"net/url"
	"strings"

	"storefront-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

const storeName = "Mercado Iramar"

var divider = strings.Repeat("─", 25)

// OrderPlacedMessage is the confirmation sent to the client who placed o.
func OrderPlacedMessage(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 *ORDER CONFIRMED - %s*\n\n", storeName)
	fmt.Fprintf(&b, "📋 *Order:* %s\n", shortID(o.ID))
	fmt.Fprintf(&b, "💳 *Payment:* %s\n\n", o.PaymentMethod.Label())

	b.WriteString("📦 *YOUR ITEMS:*\n")
	b.WriteString(divider + "\n")
	for i, l := range o.Lines {
		fmt.Fprintf(&b, "%d. %s - %dx - %s\n", i+1, l.ProductName, l.Quantity, FormatMoney(l.Subtotal()))
	}
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "💰 *TOTAL: %s*\n", FormatMoney(o.Total))

	if o.Notes != "" {
		fmt.Fprintf(&b, "\n📝 *Notes:* %s\n", o.Notes)
	}
	b.WriteString("\n✅ Your order was received and will be processed shortly.")
	b.WriteString("\n🚚 Follow its status on our website.")
	return b.String()
}

// DeliveryMessage is the dispatch note sent to delivery agents.
func DeliveryMessage(o domain.Order, customer domain.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚚 *NEW DELIVERY - %s*\n\n", storeName)
	fmt.Fprintf(&b, "📋 *Order:* %s\n", o.ID)
	fmt.Fprintf(&b, "👤 *Client:* %s\n", orDash(customer.Name))
	fmt.Fprintf(&b, "📱 *Phone:* %s\n", orDash(customer.Phone))
	fmt.Fprintf(&b, "💳 *Payment:* %s\n", o.PaymentMethod.Label())
	fmt.Fprintf(&b, "💰 *Total:* %s\n\n", FormatMoney(o.Total))

	b.WriteString("📦 *ITEMS:*\n")
	b.WriteString(divider + "\n")
	for i, l := range o.Lines {
		fmt.Fprintf(&b, "%d. %s - %dx\n", i+1, l.ProductName, l.Quantity)
	}
	b.WriteString(divider + "\n")
	b.WriteString("📍 *ADDRESS:*\n")
	b.WriteString(formatAddress(o.Address))

	if o.Notes != "" {
		fmt.Fprintf(&b, "\n\n📝 *Notes:* %s", o.Notes)
	}
	if o.PaymentMethod == domain.PaymentMethodCash {
		fmt.Fprintf(&b, "\n\n💵 *ATTENTION: collect %s in cash*", FormatMoney(o.Total))
	}
	b.WriteString("\n\n✅ Safe delivery!")
	return b.String()
}

// WelcomeMessage greets a client who messaged the store. The storefront link
// carries the phone so the site can log the client in.
func WelcomeMessage(storefrontURL, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello! Welcome to *%s*! 🛒\n\n", storeName)
	b.WriteString("*What you will find here:*\n")
	b.WriteString("• Fresh, quality products\n")
	b.WriteString("• Special offers every day\n")
	b.WriteString("• Fast delivery\n")
	if storefrontURL != "" {
		b.WriteString("\n*Visit our store:*\n")
		b.WriteString(storefrontLink(storefrontURL, phone))
	}
	return b.String()
}

// FormatMoney renders an amount in Brazilian reais, e.g. "R$ 25,97".
func FormatMoney(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func formatAddress(a domain.AddressSnapshot) string {
	if a.Street == "" {
		return "-"
	}
	line := a.Street
	if a.Number != "" {
		line += ", " + a.Number
	}
	if a.Complement != "" {
		line += ", " + a.Complement
	}
	if a.Neighborhood != "" {
		line += "\n" + a.Neighborhood
	}
	if a.City != "" {
		line += "\n" + a.City
		if a.State != "" {
			line += "/" + a.State
		}
	}
	if a.ZipCode != "" {
		line += " " + a.ZipCode
	}
	return line
}

func storefrontLink(base, phone string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("phone", phone)
	u.RawQuery = q.Encode()
	return u.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
