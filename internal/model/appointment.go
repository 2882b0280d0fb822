package model

// Category tags an appointment. The set is open: values outside the known
// three are tolerated and rendered with neutral styling.
type Category string

const (
	CategoryCounseling Category = "counseling"
	CategoryWork       Category = "work"
	CategoryPrivate    Category = "private"
)

type CategoryInfo struct {
	Label string
	Color string
}

var categories = map[Category]CategoryInfo{
	CategoryCounseling: {Label: "カウンセリング", Color: "pink"},
	CategoryWork:       {Label: "仕事", Color: "purple"},
	CategoryPrivate:    {Label: "プライベート", Color: "red"},
}

func (c Category) Info() (CategoryInfo, bool) {
	info, ok := categories[c]
	return info, ok
}

// NameLabel is the form label for DisplayName; counseling appointments store
// a client name in that field, everything else a title.
func (c Category) NameLabel() string {
	if c == CategoryCounseling {
		return "クライアント名"
	}
	return "タイトル/件名"
}

type Appointment struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"` // 2006-01-02
	Time            string   `json:"time"` // 15:04
	DurationMinutes int      `json:"duration_minutes"`
	Category        Category `json:"category"`
	DisplayName     string   `json:"display_name"`
	Notes           string   `json:"notes,omitempty"`
}

// SortKey orders appointments by (date, time) via plain string comparison.
func (a Appointment) SortKey() string {
	return a.Date + "T" + a.Time
}
