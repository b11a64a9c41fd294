package shared

import "testing"

func TestCardNames(t *testing.T) {
	if got := NumberedCard(Red, 7).Name(); got != "Red-7" {
		t.Fatalf("expected Red-7, got %s", got)
	}
	if got := SpecialCard(SkullKing).Name(); got != "SkullKing" {
		t.Fatalf("expected SkullKing, got %s", got)
	}
}

func TestParseCardName(t *testing.T) {
	valid := []Card{
		NumberedCard(Red, 1),
		NumberedCard(Yellow, 13),
		NumberedCard(Black, 8),
		SpecialCard(Escape),
		SpecialCard(Mermaid),
	}
	for _, want := range valid {
		got, err := ParseCardName(want.Name())
		if err != nil {
			t.Fatalf("parsing %s: %v", want.Name(), err)
		}
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	}

	invalid := []CardName{"", "Red", "Red-0", "Red-14", "Green-3", "Red-x"}
	for _, name := range invalid {
		if _, err := ParseCardName(name); err == nil {
			t.Errorf("expected an error for card name %q", name)
		}
	}
}

func TestNumberedCardPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range number")
		}
	}()
	NumberedCard(Red, 14)
}
