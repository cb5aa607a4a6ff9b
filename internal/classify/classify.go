// Package classify maps a target descriptor's textual signature to the
// listing-form field taxonomy. Classification is best effort: an
// ambiguous or empty signature yields FieldNone rather than a guess,
// leaving the slot for manual marking.
package classify

import (
	"regexp"
	"strings"

	"github.com/novahq/scribe/internal/locator"
)

// FieldType is a semantic label for a logical form field.
type FieldType string

// FieldNone means the classifier found no signal.
const FieldNone FieldType = ""

const (
	FieldVehicleType   FieldType = "vehicleType"
	FieldYear          FieldType = "year"
	FieldMake          FieldType = "make"
	FieldModel         FieldType = "model"
	FieldMileage       FieldType = "mileage"
	FieldVIN           FieldType = "vin"
	FieldBodyStyle     FieldType = "bodyStyle"
	FieldFuelType      FieldType = "fuelType"
	FieldTransmission  FieldType = "transmission"
	FieldExteriorColor FieldType = "exteriorColor"
	FieldInteriorColor FieldType = "interiorColor"
	FieldCondition     FieldType = "condition"
	FieldCategory      FieldType = "category"
	FieldPrice         FieldType = "price"
	FieldTitle         FieldType = "title"
	FieldDescription   FieldType = "description"
	FieldLocation      FieldType = "location"
	FieldPhotos        FieldType = "photos"
	FieldMessage       FieldType = "message"
	FieldSearch        FieldType = "search"
	FieldNext          FieldType = "next"
	FieldPublish       FieldType = "publish"
)

// Rule pairs a field type with the pattern that claims it. Rules are
// evaluated in table order; first match wins.
type Rule struct {
	Field   FieldType
	Pattern *regexp.Regexp
}

// defaultRules is ordered most-specific first so compound labels
// ("Vehicle type", "Exterior color") win over their generic substrings.
var defaultRules = []Rule{
	{FieldVehicleType, regexp.MustCompile(`vehicle\s*type|type\s+of\s+vehicle`)},
	{FieldBodyStyle, regexp.MustCompile(`body\s*style`)},
	{FieldFuelType, regexp.MustCompile(`fuel\s*type|\bfuel\b`)},
	{FieldExteriorColor, regexp.MustCompile(`exterior\s*colou?r`)},
	{FieldInteriorColor, regexp.MustCompile(`interior\s*colou?r`)},
	{FieldTransmission, regexp.MustCompile(`transmission`)},
	{FieldMileage, regexp.MustCompile(`mileage|odometer`)},
	{FieldVIN, regexp.MustCompile(`\bvin\b`)},
	{FieldYear, regexp.MustCompile(`\byear\b`)},
	{FieldMake, regexp.MustCompile(`\bmake\b`)},
	{FieldModel, regexp.MustCompile(`\bmodel\b`)},
	{FieldCondition, regexp.MustCompile(`\bcondition\b`)},
	{FieldCategory, regexp.MustCompile(`categor(y|ies)`)},
	{FieldPrice, regexp.MustCompile(`\bprice\b|asking`)},
	{FieldDescription, regexp.MustCompile(`description|describe\s+your`)},
	{FieldLocation, regexp.MustCompile(`location|\bcity\b|zip\s*code|postal`)},
	{FieldPhotos, regexp.MustCompile(`photo|picture|image|add\s+media`)},
	{FieldMessage, regexp.MustCompile(`message|write\s+something|send\s+seller`)},
	{FieldSearch, regexp.MustCompile(`search`)},
	{FieldTitle, regexp.MustCompile(`\btitle\b`)},
	{FieldPublish, regexp.MustCompile(`\bpublish\b|post\s+listing`)},
	{FieldNext, regexp.MustCompile(`\bnext\b|continue`)},
}

// Classifier evaluates an ordered rule table against descriptor
// signatures. The zero value is unusable; use NewClassifier.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules}
}

// NewClassifierWithRules returns a classifier over a custom table.
// Extra rules for new field types slot in without touching control flow.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify maps a descriptor to a field type, or FieldNone when the
// textual signal is absent or matches no rule.
func (c *Classifier) Classify(d *locator.Descriptor) FieldType {
	if d == nil {
		return FieldNone
	}
	sig := signature(d)
	if sig == "" {
		return FieldNone
	}
	for _, r := range c.rules {
		if r.Pattern.MatchString(sig) {
			return r.Field
		}
	}
	return FieldNone
}

// signature concatenates the descriptor's own text signal with a bounded
// slice of ancestor labels, lowercased for matching.
func signature(d *locator.Descriptor) string {
	parts := []string{d.Text, d.AriaLabel, d.Placeholder}
	for _, a := range d.Ancestors {
		parts = append(parts, a.Label)
	}
	joined := strings.Join(parts, " ")
	return strings.ToLower(strings.Join(strings.Fields(joined), " "))
}

// Known reports whether ft is part of the default taxonomy. Used by the
// control surface to validate manual-mark requests.
func Known(ft FieldType) bool {
	for _, r := range defaultRules {
		if r.Field == ft {
			return true
		}
	}
	return false
}
