package pagination

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		in   PaginationParams
		want PaginationParams
	}{
		{PaginationParams{}, PaginationParams{Page: 1, Limit: DefaultLimit}},
		{PaginationParams{Page: 3, Limit: 500}, PaginationParams{Page: 3, Limit: MaxLimit}},
		{PaginationParams{Page: -1, Limit: 10}, PaginationParams{Page: 1, Limit: 10}},
	}
	for _, tc := range cases {
		p := tc.in
		p.Validate()
		if p != tc.want {
			t.Fatalf("Validate(%+v) = %+v, want %+v", tc.in, p, tc.want)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	if p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Fatalf("unexpected pagination %+v", p)
	}
	last := NewPagination(3, 20, 45)
	if last.HasNext {
		t.Fatal("last page should not have next")
	}
	if r := NewPaginatedResult[int](nil, p); r.Items == nil {
		t.Fatal("items should serialize as an empty list")
	}
}
