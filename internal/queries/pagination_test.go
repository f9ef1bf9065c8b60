package queries

import "testing"

func TestPaginationClamped(t *testing.T) {
	cases := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"defaults", Pagination{}, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", Pagination{Page: -3, PageSize: 10}, Pagination{Page: 1, PageSize: 10}},
		{"oversized", Pagination{Page: 2, PageSize: 500}, Pagination{Page: 2, PageSize: MaxPageSize}},
		{"in range", Pagination{Page: 4, PageSize: 25}, Pagination{Page: 4, PageSize: 25}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Clamped(); got != tc.want {
				t.Errorf("Clamped() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	p := Pagination{Page: 3, PageSize: 20}
	if p.Offset() != 40 {
		t.Errorf("Offset() = %d, want 40", p.Offset())
	}
	if p.Limit() != 20 {
		t.Errorf("Limit() = %d, want 20", p.Limit())
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{101, 100, 2},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.pageSize); got != tc.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}
