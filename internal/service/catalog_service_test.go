package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func TestMatches_EmptyFilterMatchesAll(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Name: "Sweater", Category: "Women", Price: dec(t, "89.99")},
		{ID: "2", Name: "Blazer", Category: "Men", Price: dec(t, "149.99"), Discount: 15},
		{ID: "3", Name: "Belt", Category: "Accessories", Price: dec(t, "34")},
	}
	for _, p := range products {
		if !Matches(p, FilterSet{}, "") {
			t.Fatalf("empty filter must match %s", p.ID)
		}
	}
}

func TestMatches_CategoryExactCaseSensitive(t *testing.T) {
	p := domain.Product{ID: "1", Category: "Women", Price: dec(t, "10")}
	if !Matches(p, FilterSet{Categories: []string{"Women"}}, "") {
		t.Fatalf("exact category must match")
	}
	// категория сравнивается точно, в отличие от поискового запроса
	if Matches(p, FilterSet{Categories: []string{"women"}}, "") {
		t.Fatalf("category match must be case-sensitive")
	}
	if Matches(p, FilterSet{Categories: []string{"Men"}}, "") {
		t.Fatalf("wrong category must not match")
	}
}

func TestMatches_QueryCaseInsensitiveAcrossFields(t *testing.T) {
	p := domain.Product{
		ID:          "1",
		Name:        "Silk Blend V-Neck Sweater",
		Description: "Luxurious silk blend sweater",
		Category:    "Women",
		Tags:        []string{"luxury", "silk"},
		Price:       dec(t, "89.99"),
	}
	for _, q := range []string{"SILK", "sweater", "women", "LUXUR"} {
		if !Matches(p, FilterSet{}, q) {
			t.Fatalf("query %q must match", q)
		}
	}
	if Matches(p, FilterSet{}, "denim") {
		t.Fatalf("unrelated query must not match")
	}
}

func TestMatches_PriceFilterUsesListPrice(t *testing.T) {
	// цена 100 со скидкой 50: эффективная цена 50 попала бы в [0,60],
	// но фильтр работает по прайсовой цене
	p := domain.Product{ID: "1", Category: "Women", Price: dec(t, "100"), Discount: 50}
	f := FilterSet{MinPrice: decPtr(t, "0"), MaxPrice: decPtr(t, "60")}
	if Matches(p, f, "") {
		t.Fatalf("discount must not affect price filtering")
	}
	f = FilterSet{MinPrice: decPtr(t, "0"), MaxPrice: decPtr(t, "100")}
	if !Matches(p, f, "") {
		t.Fatalf("list price within range must match")
	}
}

func TestMatches_ColorSizeIntersection(t *testing.T) {
	p := domain.Product{ID: "1", Price: dec(t, "10"), Colors: []string{"Navy", "Cream"}, Sizes: []string{"S", "M"}}
	if !Matches(p, FilterSet{Colors: []string{"Cream", "Black"}}, "") {
		t.Fatalf("color intersection must match")
	}
	if Matches(p, FilterSet{Colors: []string{"Black"}}, "") {
		t.Fatalf("no color intersection must not match")
	}
	if !Matches(p, FilterSet{Sizes: []string{"M"}}, "") {
		t.Fatalf("size intersection must match")
	}
	// товар без вариантов исключается непустым фильтром вариантов
	bare := domain.Product{ID: "2", Price: dec(t, "10")}
	if Matches(bare, FilterSet{Colors: []string{"Navy"}}, "") {
		t.Fatalf("empty product colors with color filter must not match")
	}
	if !Matches(bare, FilterSet{}, "") {
		t.Fatalf("bare product with empty filter must match")
	}
}

func TestSort_PriceAsc(t *testing.T) {
	list := []domain.Product{
		{ID: "a", Price: dec(t, "30")},
		{ID: "b", Price: dec(t, "10")},
		{ID: "c", Price: dec(t, "20")},
	}
	sortProducts(list, SortPriceAsc)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("pos %d: want %s got %s", i, id, list[i].ID)
		}
	}
}

func TestSort_FeaturedStable(t *testing.T) {
	list := []domain.Product{
		{ID: "1", Price: dec(t, "1")},
		{ID: "2", Price: dec(t, "1"), Featured: true},
		{ID: "3", Price: dec(t, "1")},
		{ID: "4", Price: dec(t, "1"), Featured: true},
	}
	sortProducts(list, SortFeatured)
	want := []string{"2", "4", "1", "3"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("pos %d: want %s got %s", i, id, list[i].ID)
		}
	}
}

func TestSort_NewestAndBestSellingBuckets(t *testing.T) {
	list := []domain.Product{
		{ID: "1", Price: dec(t, "1")},
		{ID: "2", Price: dec(t, "1"), New: true},
		{ID: "3", Price: dec(t, "1"), BestSeller: true},
	}
	sortProducts(list, SortNewest)
	if list[0].ID != "2" {
		t.Fatalf("newest first, got %s", list[0].ID)
	}
	sortProducts(list, SortBestSelling)
	if list[0].ID != "3" {
		t.Fatalf("best seller first, got %s", list[0].ID)
	}
}

func TestSearch_FilterThenSort(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]domain.Product{
		{ID: "1", Name: "Tee", Category: "Men", Price: dec(t, "10")},
		{ID: "2", Name: "Shirt", Category: "Men", Price: dec(t, "20"), Discount: 10},
		{ID: "3", Name: "Blazer", Category: "Men", Price: dec(t, "30"), Featured: true},
	}, nil)
	svc := NewCatalogService(store)

	f := FilterSet{MinPrice: decPtr(t, "0"), MaxPrice: decPtr(t, "25")}
	got, err := svc.Search(ctx, "", f, SortPriceDesc)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 products, got %d", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("want [2 1], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestCatalogService_PriceBounds(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]domain.Product{
		{ID: "1", Price: dec(t, "34")},
		{ID: "2", Price: dec(t, "149.99")},
		{ID: "3", Price: dec(t, "64.5")},
	}, nil)
	svc := NewCatalogService(store)
	min, max, err := svc.PriceBounds(ctx)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if !min.Equal(dec(t, "34")) || !max.Equal(dec(t, "149.99")) {
		t.Fatalf("bounds: got [%s %s]", min, max)
	}
}
