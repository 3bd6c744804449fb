package validator

import (
	"context"
	"strings"
	"testing"
	"time"
)

type statoPayload struct {
	Stato string `validate:"required,stato"`
}

func TestStatoTag(t *testing.T) {
	ctx := context.Background()

	for _, stato := range []string{"PENDENTE", "CONFERMATA", "MODIFICATA", "RIFIUTATA"} {
		if err := Validate(ctx, statoPayload{Stato: stato}); err != nil {
			t.Fatalf("Validate(%q): %v", stato, err)
		}
	}

	err := Validate(ctx, statoPayload{Stato: "confermata"})
	if err == nil {
		t.Fatal("lowercase stato accepted")
	}
	if !strings.Contains(err.Error(), "Unknown registration state") {
		t.Fatalf("unexpected message: %v", err)
	}

	if err := Validate(ctx, statoPayload{}); err == nil {
		t.Fatal("empty stato accepted")
	}
}

func TestFutureTag(t *testing.T) {
	type payload struct {
		StartTime time.Time `validate:"future"`
	}
	ctx := context.Background()

	if err := Validate(ctx, payload{StartTime: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("future date rejected: %v", err)
	}
	if err := Validate(ctx, payload{StartTime: time.Now().Add(-time.Hour)}); err == nil {
		t.Fatal("past date accepted")
	}
}

func TestPositiveTag(t *testing.T) {
	type payload struct {
		TotalSeats int `validate:"positive"`
	}
	ctx := context.Background()

	if err := Validate(ctx, payload{TotalSeats: 16}); err != nil {
		t.Fatalf("positive value rejected: %v", err)
	}
	if err := Validate(ctx, payload{TotalSeats: 0}); err == nil {
		t.Fatal("zero accepted")
	}
	if err := Validate(ctx, payload{TotalSeats: -3}); err == nil {
		t.Fatal("negative accepted")
	}
}
