package shopify

import "testing"

func TestNextPageInfo(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{name: "empty", link: "", want: ""},
		{
			name: "next only",
			link: `<https://shop.example/admin/api/2024-10/products.json?limit=50&page_info=abc123>; rel="next"`,
			want: "abc123",
		},
		{
			name: "previous and next",
			link: `<https://shop.example/admin/api/2024-10/products.json?limit=50&page_info=prev1>; rel="previous", <https://shop.example/admin/api/2024-10/products.json?limit=50&page_info=next2>; rel="next"`,
			want: "next2",
		},
		{
			name: "previous only is terminal",
			link: `<https://shop.example/admin/api/2024-10/products.json?limit=50&page_info=prev1>; rel="previous"`,
			want: "",
		},
		{name: "garbage", link: `not a link header`, want: ""},
		{
			name: "spaced params and extra attributes",
			link: `<https://shop.example/admin/api/2024-10/products.json?page_info=p0>;rel="previous" , <https://shop.example/admin/api/2024-10/products.json?limit=2&page_info=n9> ; title="more"; rel="next"`,
			want: "n9",
		},
		{
			name: "next without cursor",
			link: `<https://shop.example/admin/api/2024-10/products.json?limit=50>; rel="next"`,
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextPageInfo(tc.link); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestEndpointLabel(t *testing.T) {
	if got := endpointLabel("/variants/4455.json"); got != "/variants/:id.json" {
		t.Fatalf("unexpected label %s", got)
	}
	if got := endpointLabel("/inventory_levels/set.json"); got != "/inventory_levels/set.json" {
		t.Fatalf("unexpected label %s", got)
	}
}
