package normalize

import (
	"reflect"
	"testing"

	"github.com/ellastudio/ella-data/internal/canon"
)

func testSchema() canon.StreamSchema {
	s, _ := canon.FindStream(canon.DefaultStreams(), "recep")
	return s
}

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		schema  canon.StreamSchema
		want    map[string]string
	}{
		{
			name:    "synonyms_rename",
			headers: []string{"Time Stamp", "Technician", "Service Provided", "Payment Mode", "Amount"},
			schema:  testSchema(),
			want: map[string]string{
				"Time Stamp":       "Timestamp",
				"Technician":       "Service Provider",
				"Service Provided": "Service",
				"Payment Mode":     "Mode of Payment",
				"Amount":           "Price",
			},
		},
		{
			name:    "unmapped_headers_pass_through",
			headers: []string{"Timestamp", "Random Notes", "Price"},
			schema:  testSchema(),
			want: map[string]string{
				"Timestamp": "Timestamp",
				"Price":     "Price",
			},
		},
		{
			name:    "duplicate_header_binds_first_only",
			headers: []string{"Timestamp", "Timestamp"},
			schema:  testSchema(),
			want: map[string]string{
				"Timestamp": "Timestamp",
			},
		},
		{
			name:    "apostrophe_variant_matches",
			headers: []string{"Service Provider’s Name"},
			schema:  testSchema(),
			want: map[string]string{
				"Service Provider’s Name": "Service Provider",
			},
		},
		{
			name:    "declaration_order_wins_over_position",
			headers: []string{"Payout", "Payout (0.35)"},
			schema: canon.StreamSchema{
				ID:  "t",
				Tab: "T",
				Aliases: []canon.Alias{
					{Source: "payout (0.35)", Target: canon.FieldPayout},
					{Source: "payout", Target: canon.FieldPayout},
				},
			},
			want: map[string]string{
				"Payout (0.35)": "Payout",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapColumns(tc.headers, tc.schema)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("MapColumns(%v) = %v, want %v", tc.headers, got, tc.want)
			}
		})
	}
}

func TestBuildPlanAliasResolution(t *testing.T) {
	// "price" is declared before "amount", so the Amount column loses even
	// though it sits further left.
	plan := BuildPlan([]string{"Amount", "Price"}, testSchema())
	b, ok := plan.Bindings[canon.FieldPrice]
	if !ok {
		t.Fatal("Price not bound")
	}
	if b.Column != 1 || b.Via != ViaAlias || b.Alias != "price" {
		t.Errorf("Price bound to column %d via %s (alias %q), want column 1 via alias %q", b.Column, b.Via, b.Alias, "price")
	}
}

func TestBuildPlanFallbackOverridesHeaderText(t *testing.T) {
	headers := []string{
		"Timestamp", "Client", "Phone", "Service", "Staff", "Mode of Payment",
		"Discount", "Notes", "Branch", "Visit", "Referral", "Random Notes", "Tip",
	}
	plan := BuildPlan(headers, testSchema())

	price, ok := plan.Bindings[canon.FieldPrice]
	if !ok {
		t.Fatal("Price not bound")
	}
	if price.Via != ViaPosition || price.Column != 11 {
		t.Errorf("Price bound via %s at column %d, want via %s at column 11", price.Via, price.Column, ViaPosition)
	}
	if price.Header != "Random Notes" {
		t.Errorf("Price fallback header = %q, want %q", price.Header, "Random Notes")
	}

	payout, ok := plan.Bindings[canon.FieldPayout]
	if !ok {
		t.Fatal("Payout not bound")
	}
	if payout.Via != ViaPosition || payout.Column != 12 {
		t.Errorf("Payout bound via %s at column %d, want via %s at column 12", payout.Via, payout.Column, ViaPosition)
	}
}

func TestBuildPlanFallbackBeyondWidth(t *testing.T) {
	// Fallback columns 11/12 do not exist in a three-column sheet, so money
	// fields bind by alias where possible and gap otherwise.
	plan := BuildPlan([]string{"Timestamp", "Service", "Price"}, testSchema())

	price, ok := plan.Bindings[canon.FieldPrice]
	if !ok {
		t.Fatal("Price not bound")
	}
	if price.Via != ViaAlias || price.Column != 2 {
		t.Errorf("Price bound via %s at column %d, want via %s at column 2", price.Via, price.Column, ViaAlias)
	}

	wantGaps := []canon.Field{canon.FieldProvider, canon.FieldPayment, canon.FieldPayout}
	if !reflect.DeepEqual(plan.Gaps, wantGaps) {
		t.Errorf("Gaps = %v, want %v", plan.Gaps, wantGaps)
	}
}

func TestBuildPlanEmptyHeaders(t *testing.T) {
	plan := BuildPlan(nil, testSchema())
	if len(plan.Bindings) != 0 {
		t.Errorf("expected no bindings, got %v", plan.Bindings)
	}
	if !reflect.DeepEqual(plan.Gaps, canon.DataFields) {
		t.Errorf("Gaps = %v, want all data fields", plan.Gaps)
	}
}

func TestBuildPlanDeduplicatesBeforeMatching(t *testing.T) {
	// The second "Timestamp" deduplicates to "Timestamp__2", whose canonical
	// form no longer matches any alias.
	plan := BuildPlan([]string{"Timestamp", "Timestamp"}, testSchema())
	b, ok := plan.Bindings[canon.FieldTimestamp]
	if !ok {
		t.Fatal("Timestamp not bound")
	}
	if b.Column != 0 {
		t.Errorf("Timestamp bound to column %d, want 0", b.Column)
	}
	if plan.Headers[1] != "Timestamp__2" {
		t.Errorf("deduplicated second header = %q, want %q", plan.Headers[1], "Timestamp__2")
	}
}
