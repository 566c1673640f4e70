package normalize

import (
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestMoney(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{name: "currency_symbol_and_separator", in: "KSh 1,500.00", want: f64(1500)},
		{name: "plain_integer", in: "250", want: f64(250)},
		{name: "surrounding_whitespace", in: "  250 ", want: f64(250)},
		{name: "thousands_separators", in: "1,234,567.89", want: f64(1234567.89)},
		{name: "negative", in: "-500", want: f64(-500)},
		{name: "negative_with_symbol", in: "KSh -500", want: f64(-500)},
		{name: "em_dash_placeholder", in: "—", want: nil},
		{name: "empty", in: "", want: nil},
		{name: "text_only", in: "pending", want: nil},
		{name: "hyphen_range_rejected", in: "1-2", want: nil},
		{name: "double_decimal_rejected", in: "1.2.3", want: nil},
		{name: "lone_minus", in: "-", want: nil},
		{name: "decimal_only_cents", in: ".50", want: f64(0.5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Money(tc.in)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("Money(%q) = %v, want %v", tc.in, fmtPtr(got), fmtPtr(tc.want))
			}
			if got != nil && *got != *tc.want {
				t.Errorf("Money(%q) = %v, want %v", tc.in, *got, *tc.want)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *time.Time
	}{
		{
			name: "day_first_with_time",
			in:   "13/01/2024 14:22:01",
			want: tptr(time.Date(2024, 1, 13, 14, 22, 1, 0, time.UTC)),
		},
		{
			name: "ambiguous_resolves_day_first",
			in:   "02/01/2024",
			want: tptr(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "month_first_when_day_impossible",
			in:   "01/13/2024",
			want: tptr(time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "iso_date",
			in:   "2024-01-15",
			want: tptr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "iso_datetime",
			in:   "2024-01-15 09:30:00",
			want: tptr(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)),
		},
		{
			name: "twelve_hour_clock",
			in:   "13/01/2024 2:35:12 PM",
			want: tptr(time.Date(2024, 1, 13, 14, 35, 12, 0, time.UTC)),
		},
		{name: "empty", in: "", want: nil},
		{name: "whitespace_only", in: "  ", want: nil},
		{name: "garbage", in: "not a date", want: nil},
		{name: "month_out_of_range", in: "13/13/2024", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Timestamp(tc.in)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("Timestamp(%q) = %v, want %v", tc.in, got, tc.want)
			}
			if got != nil && !got.Equal(*tc.want) {
				t.Errorf("Timestamp(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Jane W.  ", want: "Jane W."},
		{in: "Gel  Manicure", want: "Gel  Manicure"}, // internal spacing preserved
		{in: "CASH", want: "CASH"},                   // case preserved
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func fmtPtr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func tptr(t time.Time) *time.Time { return &t }
