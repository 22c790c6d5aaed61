package mail

import (
	"strings"
	"testing"

	"github.com/juridiskporten/portal/app/models"
)

func TestFormatOre(t *testing.T) {
	cases := []struct {
		ore  int64
		want string
	}{
		{0, "0,00 kr"},
		{50, "0,50 kr"},
		{249900, "2 499,00 kr"},
		{123456789, "1 234 567,89 kr"},
		{-9900, "-99,00 kr"},
	}
	for _, tc := range cases {
		if got := FormatOre(tc.ore); got != tc.want {
			t.Errorf("FormatOre(%d) = %q, want %q", tc.ore, got, tc.want)
		}
	}
}

func TestActivationMailContainsToken(t *testing.T) {
	user := &models.User{Name: "Kari Nordmann", ActivationToken: "abc123def456"}

	subject, body := ActivationMail(user)
	if subject == "" {
		t.Fatal("empty subject")
	}
	if !strings.Contains(body, "abc123def456") {
		t.Errorf("activation body missing token: %s", body)
	}
	if !strings.Contains(body, "Kari Nordmann") {
		t.Errorf("activation body missing user name")
	}
}

func TestOrderConfirmationMailListsItems(t *testing.T) {
	user := &models.User{Name: "Ola"}
	order := &models.Order{
		OrderNumber: "JP-2025-000042",
		FinalOre:    499800,
		Items: []models.OrderItem{
			{PackageName: "Bevillingsforvaltning", PriceOre: 249900},
			{PackageName: "Arbeidsrett", PriceOre: 249900},
		},
	}

	subject, body := OrderConfirmationMail(user, order)
	if !strings.Contains(subject, "JP-2025-000042") {
		t.Errorf("subject missing order number: %s", subject)
	}
	for _, want := range []string{"Bevillingsforvaltning", "Arbeidsrett", "4 998,00 kr"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
