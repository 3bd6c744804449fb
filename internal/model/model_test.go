package model

import "testing"

func TestSignedAmount(t *testing.T) {
	credit := LedgerEntry{Kind: KindRicarica, AmountCents: 1500}
	if got := credit.SignedAmount(); got != 1500 {
		t.Fatalf("RICARICA signed amount = %d, want 1500", got)
	}

	debit := LedgerEntry{Kind: KindAddebito, AmountCents: 1500}
	if got := debit.SignedAmount(); got != -1500 {
		t.Fatalf("ADDEBITO signed amount = %d, want -1500", got)
	}
}

func TestValidStato(t *testing.T) {
	for _, s := range []string{StatoPendente, StatoConfermata, StatoModificata, StatoRifiutata} {
		if !ValidStato(s) {
			t.Fatalf("ValidStato(%q) = false", s)
		}
	}
	for _, s := range []string{"", "pendente", "ANNULLATA"} {
		if ValidStato(s) {
			t.Fatalf("ValidStato(%q) = true", s)
		}
	}
}
