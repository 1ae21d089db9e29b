package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"itinera/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("product not found")

// Filter narrows a library listing.
type Filter struct {
	Type   models.ProductType
	Search string
	Skip   int64
	Limit  int64
}

// Catalog is the product library the timeline is filled from.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, f Filter) ([]models.Product, error)
}

type MongoCatalog struct {
	coll *mongo.Collection
}

func NewMongoCatalog(coll *mongo.Collection) *MongoCatalog {
	return &MongoCatalog{coll: coll}
}

func (c *MongoCatalog) Get(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := c.coll.FindOne(ctx, bson.M{"productid": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return product, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return product, fmt.Errorf("find product %s: %w", id, err)
	}
	return product, nil
}

func (c *MongoCatalog) List(ctx context.Context, f Filter) ([]models.Product, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["product_type"] = f.Type
	}
	if f.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	list := []models.Product{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return list, nil
}

// MemoryCatalog serves a fixed product set.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewMemoryCatalog(list ...models.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]models.Product)}
	for _, p := range list {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryCatalog) Get(_ context.Context, id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (c *MemoryCatalog) List(_ context.Context, f Filter) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := []models.Product{}
	for _, p := range c.products {
		if f.Type != "" && p.ProductType != f.Type {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Title < list[j].Title })
	if f.Skip >= int64(len(list)) {
		return []models.Product{}, nil
	}
	list = list[f.Skip:]
	if f.Limit > 0 && int64(len(list)) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}
