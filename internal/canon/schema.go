package canon

import "fmt"

// --------------------------------------------------------------------------
// Stream schemas — static configuration, one per response tab
// --------------------------------------------------------------------------

// Alias maps one recognized source header (in canonical form) to a target
// field. Order matters: the mapper resolves aliases first-match-wins in
// declaration order, so specific spellings belong before generic ones.
type Alias struct {
	Source string `json:"source"`
	Target Field  `json:"target"`
}

// Fallback pins a target field to a fixed 0-based column position. It
// overrides whatever the alias table matched for that field: header text in
// the response tabs has drifted repeatedly while physical column positions
// stayed put, so position is the more reliable signal for money columns.
type Fallback struct {
	Column int   `json:"column"`
	Target Field `json:"target"`
}

// StreamSchema is the static per-stream configuration consumed uniformly by
// the mapper. Loaded once per process; only tab names are env-overridable.
type StreamSchema struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Tab        string     `json:"tab"`
	Aliases    []Alias    `json:"-"`
	Fallbacks  []Fallback `json:"-"`
	Commission float64    `json:"commission,omitempty"` // optional payout rate, 0 = none
}

// Validate checks a schema for configuration mistakes. Called once at
// startup; a failure here is a deployment error, not a data error.
func (s StreamSchema) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("stream schema: empty id")
	}
	if s.Tab == "" {
		return fmt.Errorf("stream %q: empty tab name", s.ID)
	}
	for _, a := range s.Aliases {
		if a.Source == "" {
			return fmt.Errorf("stream %q: alias with empty source", s.ID)
		}
		if !validTarget(a.Target) {
			return fmt.Errorf("stream %q: alias %q targets unknown field %q", s.ID, a.Source, a.Target)
		}
	}
	for _, f := range s.Fallbacks {
		if f.Column < 0 {
			return fmt.Errorf("stream %q: fallback column %d for %q is negative", s.ID, f.Column, f.Target)
		}
		if !validTarget(f.Target) {
			return fmt.Errorf("stream %q: fallback targets unknown field %q", s.ID, f.Target)
		}
	}
	if s.Commission < 0 || s.Commission > 1 {
		return fmt.Errorf("stream %q: commission %v outside [0, 1]", s.ID, s.Commission)
	}
	return nil
}

func validTarget(f Field) bool {
	for _, d := range DataFields {
		if d == f {
			return true
		}
	}
	return false
}

// FindStream returns the schema with the given ID.
func FindStream(streams []StreamSchema, id string) (StreamSchema, bool) {
	for _, s := range streams {
		if s.ID == id {
			return s, true
		}
	}
	return StreamSchema{}, false
}

// sharedAliases covers the header spellings observed across all three
// response tabs. Sources are canonical forms (lowercased, whitespace
// collapsed, apostrophes unified).
func sharedAliases() []Alias {
	return []Alias{
		{Source: "timestamp", Target: FieldTimestamp},
		{Source: "time stamp", Target: FieldTimestamp},
		{Source: "date", Target: FieldTimestamp},

		{Source: "service provider", Target: FieldProvider},
		{Source: "service provider's name", Target: FieldProvider},
		{Source: "service providers name", Target: FieldProvider},
		{Source: "technician", Target: FieldProvider},
		{Source: "tech", Target: FieldProvider},
		{Source: "staff", Target: FieldProvider},

		{Source: "service", Target: FieldService},
		{Source: "service provided", Target: FieldService},
		{Source: "services", Target: FieldService},

		{Source: "mode of payment", Target: FieldPayment},
		{Source: "payment mode", Target: FieldPayment},
		{Source: "payment", Target: FieldPayment},

		{Source: "price", Target: FieldPrice},
		{Source: "amount", Target: FieldPrice},
		{Source: "service cost", Target: FieldPrice},

		{Source: "payout", Target: FieldPayout},
		{Source: "technician payout", Target: FieldPayout},
		{Source: "commission", Target: FieldPayout},
		{Source: "salary", Target: FieldPayout},
	}
}

// DefaultStreams returns the three production streams in load order.
// Fallback positions are 0-based and match the physical layout of each tab.
func DefaultStreams() []StreamSchema {
	return []StreamSchema{
		{
			ID:      "recep",
			Label:   "Recep",
			Tab:     "Form Responses 1",
			Aliases: sharedAliases(),
			Fallbacks: []Fallback{
				{Column: 11, Target: FieldPrice},
				{Column: 12, Target: FieldPayout},
			},
		},
		{
			ID:      "tech",
			Label:   "Tech",
			Tab:     "Form responses 2",
			Aliases: sharedAliases(),
			Fallbacks: []Fallback{
				{Column: 13, Target: FieldPrice},
				{Column: 14, Target: FieldPayout},
			},
		},
		{
			ID:    "waxhub",
			Label: "Wax-Hub",
			Tab:   "Form responses 3",
			Aliases: append(sharedAliases(),
				Alias{Source: "payout (0.35)", Target: FieldPayout},
			),
			Fallbacks: []Fallback{
				{Column: 7, Target: FieldPrice},
				{Column: 8, Target: FieldPayout},
			},
			Commission: 0.35,
		},
	}
}
