package mail

import (
	"fmt"

	"github.com/juridiskporten/portal/app/models"
	"github.com/juridiskporten/portal/internal/pkg/env"
)

// ActivationMail builds the account activation mail for a new user.
func ActivationMail(user *models.User) (subject, body string) {
	baseURL := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	link := fmt.Sprintf("%s/aktiver?token=%s", baseURL, user.ActivationToken)

	subject = "Aktiver kontoen din hos JuridiskPorten"
	body = fmt.Sprintf(
		"<h2>Hei %s,</h2>"+
			"<p>Takk for at du registrerte deg hos JuridiskPorten.</p>"+
			"<p>Klikk på lenken under for å aktivere kontoen din:</p>"+
			`<p><a href="%s">Aktiver konto</a></p>`+
			"<p>Lenken er gyldig i 48 timer.</p>",
		user.Name, link,
	)
	return subject, body
}

// OrderConfirmationMail builds the confirmation mail sent when an order is paid.
func OrderConfirmationMail(user *models.User, order *models.Order) (subject, body string) {
	subject = fmt.Sprintf("Ordrebekreftelse %s", order.OrderNumber)

	items := ""
	for _, item := range order.Items {
		items += fmt.Sprintf("<li>%s &ndash; %s</li>", item.PackageName, FormatOre(item.PriceOre))
	}

	body = fmt.Sprintf(
		"<h2>Hei %s,</h2>"+
			"<p>Vi har mottatt betalingen for ordre <strong>%s</strong>.</p>"+
			"<ul>%s</ul>"+
			"<p>Totalt: <strong>%s</strong></p>"+
			"<p>Fagpakkene er nå tilgjengelige på din side.</p>",
		user.Name, order.OrderNumber, items, FormatOre(order.FinalOre),
	)
	return subject, body
}

// FormatOre renders an øre amount as a kroner string, e.g. 249900 -> "2 499,00 kr".
func FormatOre(ore int64) string {
	negative := ore < 0
	if negative {
		ore = -ore
	}
	kroner := ore / 100
	rest := ore % 100

	digits := fmt.Sprintf("%d", kroner)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ' ')
		}
		grouped = append(grouped, d)
	}

	out := fmt.Sprintf("%s,%02d kr", grouped, rest)
	if negative {
		return "-" + out
	}
	return out
}
