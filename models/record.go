package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is the aggregated output of one successful pipeline run.
type Record struct {
	NewsTitle        string       `json:"news_title"`
	NewsSummary      string       `json:"news_summary"`
	FeaturedImageURL string       `json:"featured_image_url"`
	Facts            Facts        `json:"facts"`
	Hemispheres      []Hemisphere `json:"hemispheres"`
	ScrapedAt        time.Time    `json:"scraped_at"`
}

// Hemisphere is one entry of the hemisphere listing.
type Hemisphere struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// Validate reports the first empty field. A Record that fails validation is
// never handed to consumers.
func (r *Record) Validate() error {
	switch {
	case strings.TrimSpace(r.NewsTitle) == "":
		return incomplete("news_title")
	case strings.TrimSpace(r.NewsSummary) == "":
		return incomplete("news_summary")
	case r.FeaturedImageURL == "":
		return incomplete("featured_image_url")
	case len(r.Facts) == 0:
		return incomplete("facts")
	case len(r.Hemispheres) == 0:
		return incomplete("hemispheres")
	}
	for i, f := range r.Facts {
		if strings.TrimSpace(f.Label) == "" || strings.TrimSpace(f.Value) == "" {
			return incomplete(fmt.Sprintf("facts[%d]", i))
		}
	}
	for i, h := range r.Hemispheres {
		if h.Title == "" || h.ImageURL == "" {
			return incomplete(fmt.Sprintf("hemispheres[%d]", i))
		}
	}
	return nil
}

func incomplete(field string) *ScrapeError {
	return NewScrapeError(ErrCodeIncomplete, field+" is empty", nil)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Facts = append(Facts(nil), r.Facts...)
	c.Hemispheres = append([]Hemisphere(nil), r.Hemispheres...)
	return &c
}

// Fact is one label/value pair of the facts table.
type Fact struct {
	Label string
	Value string
}

// Facts is an ordered label to value mapping. It marshals to a JSON object
// whose keys keep the slice order.
type Facts []Fact

// Get returns the value stored under label.
func (f Facts) Get(label string) (string, bool) {
	for _, fact := range f {
		if fact.Label == label {
			return fact.Value, true
		}
	}
	return "", false
}

// Labels returns the labels in order.
func (f Facts) Labels() []string {
	labels := make([]string, len(f))
	for i, fact := range f {
		labels[i] = fact.Label
	}
	return labels
}

func (f Facts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fact := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(fact.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(fact.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Facts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("facts: expected object, got %v", tok)
	}

	out := Facts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("facts: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("facts: value for %q: %w", key, err)
		}
		out = append(out, Fact{Label: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}
