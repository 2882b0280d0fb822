package card

import (
	"strings"
	"testing"

	"github.com/ayumi-hirano/schedcal/internal/model"
)

func TestRenderHTMLCounseling(t *testing.T) {
	html, err := RenderHTML(model.Appointment{
		ID:              "a1",
		Date:            "2024-06-10",
		Time:            "13:00",
		DurationMinutes: 60,
		Category:        model.CategoryCounseling,
		DisplayName:     "田中 花子",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := string(html)
	for _, want := range []string{
		"田中 花子",
		"(カウンセリング) のご予定、承りました。",
		"2024年6月10日 13:00",
		"ご確認ありがとうございます。",
		`data-ready="true"`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected card to contain %q", want)
		}
	}
}

func TestRenderHTMLUnknownCategoryFallsBack(t *testing.T) {
	html, err := RenderHTML(model.Appointment{
		Date:        "2024-06-10",
		Time:        "09:00",
		Category:    "mystery",
		DisplayName: "何か",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := string(html)
	if !strings.Contains(doc, "(mystery)") {
		t.Fatal("expected raw category in label position")
	}
	if !strings.Contains(doc, "#374151") {
		t.Fatal("expected gray accent for unknown category")
	}
}

func TestRenderHTMLEscapesMarkup(t *testing.T) {
	html, err := RenderHTML(model.Appointment{
		Date:        "2024-06-10",
		Time:        "09:00",
		Category:    model.CategoryWork,
		DisplayName: `<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(html), "<script>alert") {
		t.Fatal("expected display name to be escaped")
	}
}

func TestRenderHTMLBadDateUsesTimeOnly(t *testing.T) {
	html, err := RenderHTML(model.Appointment{
		Date:        "not-a-date",
		Time:        "09:00",
		Category:    model.CategoryPrivate,
		DisplayName: "通院",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := string(html)
	if !strings.Contains(doc, `class="value">09:00<`) {
		t.Fatal("expected bare time when the date does not parse")
	}
}
