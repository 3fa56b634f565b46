package model

import "time"

// RawFragment is one match container as found on the page, before any parsing.
type RawFragment struct {
	Teams     []string `json:"teams"`
	TimeLabel string   `json:"time_label"`
	DayLabel  string   `json:"day_label,omitempty"`
	Format    string   `json:"format,omitempty"`
	Event     string   `json:"event,omitempty"`
	Link      string   `json:"link,omitempty"`
	Text      string   `json:"text"` // whitespace-collapsed text of the whole container
}

// RawPage is the extractor's output. Empty means the page itself said there are no matches.
type RawPage struct {
	ReferenceDate string        `json:"reference_date,omitempty"`
	Fragments     []RawFragment `json:"fragments"`
	Empty         bool          `json:"empty"`
	FromCache     bool          `json:"from_cache"`
	FetchedAt     time.Time     `json:"fetched_at"`
}

// Clone returns a copy that callers may modify without touching the cached page.
func (p *RawPage) Clone() *RawPage {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Fragments = make([]RawFragment, len(p.Fragments))
	for i, f := range p.Fragments {
		f.Teams = append([]string(nil), f.Teams...)
		cp.Fragments[i] = f
	}
	return &cp
}
