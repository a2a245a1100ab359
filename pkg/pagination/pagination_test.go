package pagination

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	p := Params{}.Normalize(0, 0)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

func TestNormalizeClampsLimit(t *testing.T) {
	p := Params{Page: 2, Limit: 5000}.Normalize(20, 100)
	if p.Limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", p.Limit)
	}
	if p.Page != 2 {
		t.Fatalf("page must survive normalization, got %d", p.Page)
	}
}

func TestNormalizeNegativePage(t *testing.T) {
	p := Params{Page: -3, Limit: 10}.Normalize(20, 100)
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
}

func TestOffset(t *testing.T) {
	cases := []struct {
		page, limit, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{5, 10, 40},
		{0, 20, 0},
	}
	for _, tc := range cases {
		got := (Params{Page: tc.page, Limit: tc.limit}).Offset()
		if got != tc.want {
			t.Fatalf("page %d limit %d: expected offset %d, got %d", tc.page, tc.limit, tc.want, got)
		}
	}
}

func TestEnvelopeRoundsPagesUp(t *testing.T) {
	envelope := Params{Page: 1, Limit: 20}.Envelope(41)
	if envelope.Pages != 3 {
		t.Fatalf("expected 3 pages for 41 rows, got %d", envelope.Pages)
	}
	if envelope.Total != 41 {
		t.Fatalf("unexpected total %d", envelope.Total)
	}
}

func TestEnvelopeEmpty(t *testing.T) {
	envelope := Params{Page: 1, Limit: 20}.Envelope(0)
	if envelope.Pages != 0 || envelope.Total != 0 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}
