package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"boutique/internal/domain"
	"boutique/internal/repository"
)

var ErrInvalidInput = errors.New("invalid input")

// FilterSet параметры фильтрации каталога. Пустой срез означает
// отсутствие ограничения, nil-граница цены — неограниченный диапазон.
type FilterSet struct {
	Categories []string
	Colors     []string
	Sizes      []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// SortKey именованный порядок сортировки каталога
type SortKey string

const (
	SortFeatured    SortKey = "featured"
	SortPriceAsc    SortKey = "price-asc"
	SortPriceDesc   SortKey = "price-desc"
	SortNewest      SortKey = "newest"
	SortBestSelling SortKey = "best-selling"
)

// CatalogService поиск, фильтрация и сортировка по каталогу
type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// Matches решает, попадает ли товар в выборку: конъюнкция пяти предикатов.
// Категории сравниваются точно (с учётом регистра), поисковый запрос —
// подстрокой без учёта регистра по имени, описанию, категории и тегам.
// Цена фильтруется по прайсовой цене; скидка здесь не учитывается.
func Matches(p domain.Product, f FilterSet, query string) bool {
	if !matchesQuery(p, query) {
		return false
	}
	if len(f.Categories) > 0 && !containsString(f.Categories, p.Category) {
		return false
	}
	// пустой атрибут товара при непустом фильтре исключает товар
	if len(f.Colors) > 0 && !intersects(p.Colors, f.Colors) {
		return false
	}
	if len(f.Sizes) > 0 && !intersects(p.Sizes, f.Sizes) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func matchesQuery(p domain.Product, query string) bool {
	if query == "" {
		return true
	}
	if containsIgnoreCase(p.Name, query) ||
		containsIgnoreCase(p.Description, query) ||
		containsIgnoreCase(p.Category, query) {
		return true
	}
	for _, tag := range p.Tags {
		if containsIgnoreCase(tag, query) {
			return true
		}
	}
	return false
}

// sortProducts сортирует на месте. Все компараторы двухкорзинные; стабильная
// сортировка сохраняет исходный порядок каталога при равенстве.
func sortProducts(list []domain.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price.LessThan(list[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price.GreaterThan(list[j].Price) })
	case SortNewest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].New && !list[j].New })
	case SortBestSelling:
		sort.SliceStable(list, func(i, j int) bool { return list[i].BestSeller && !list[j].BestSeller })
	default:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Featured && !list[j].Featured })
	}
}

// Search возвращает отфильтрованный и отсортированный список товаров
func (s *CatalogService) Search(ctx context.Context, query string, f FilterSet, key SortKey) ([]domain.Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if Matches(p, f, query) {
			out = append(out, p)
		}
	}
	sortProducts(out, key)
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *CatalogService) PriceBounds(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return s.repo.PriceBounds(ctx)
}

// helpers
func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if containsString(b, x) {
			return true
		}
	}
	return false
}

// case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
