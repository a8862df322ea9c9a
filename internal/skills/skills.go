package skills

import (
	"errors"
	"fmt"
	"strings"
)

// Area is the canonical identifier for a recognized skill area. Task records,
// scoring configuration keys, and API labels all use the same slug so a task
// can never reference a skill the scoring engine does not know about.
type Area string

const (
	WebDevelopment   Area = "web_development"
	DataScience      Area = "data_science"
	UIUXDesign       Area = "ui_ux_design"
	DigitalMarketing Area = "digital_marketing"
)

// ErrUnknownArea indicates a slug outside the canonical skill taxonomy.
var ErrUnknownArea = errors.New("unknown skill area")

var labels = map[Area]string{
	WebDevelopment:   "Web Development",
	DataScience:      "Data Science",
	UIUXDesign:       "UI/UX Design",
	DigitalMarketing: "Digital Marketing",
}

// All returns the recognized skill areas in a stable order.
func All() []Area {
	return []Area{WebDevelopment, DataScience, UIUXDesign, DigitalMarketing}
}

// Parse normalises a slug and rejects anything outside the taxonomy.
func Parse(slug string) (Area, error) {
	normalized := Area(strings.ToLower(strings.TrimSpace(slug)))
	if _, ok := labels[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownArea, slug)
	}
	return normalized, nil
}

// IsValid reports whether the slug names a recognized skill area.
func IsValid(slug string) bool {
	_, err := Parse(slug)
	return err == nil
}

// String returns the canonical slug.
func (a Area) String() string {
	return string(a)
}

// Label returns the human-readable name for the area, or the slug itself when
// the area is unknown.
func (a Area) Label() string {
	if label, ok := labels[a]; ok {
		return label
	}
	return string(a)
}
