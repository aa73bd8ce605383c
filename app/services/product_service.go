package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/repositories"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/cache"
	"github.com/cremaze/cremaze/pkg/metrics"
	"github.com/cremaze/cremaze/pkg/storage"
)

const (
	catalogCacheKey = "products:all"
	catalogCacheTTL = 5 * time.Minute
)

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// ProductStore is the persistence surface ProductService needs.
type ProductStore interface {
	All(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ImageSaver stores an uploaded product image and returns errors only; the
// caller chooses the destination path.
type ImageSaver func(path string, r io.Reader) error

// ProductService implements the public catalog and the admin product CRUD.
type ProductService struct {
	products  ProductStore
	saveImage ImageSaver
}

func NewProductService() *ProductService {
	return &ProductService{
		products:  repositories.NewProductRepository(),
		saveImage: storage.PutStream,
	}
}

func NewProductServiceWith(products ProductStore, saveImage ImageSaver) *ProductService {
	return &ProductService{products: products, saveImage: saveImage}
}

// List returns the catalog, served from cache when warm.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	if cache.Get(catalogCacheKey, &cached) {
		metrics.CacheHits.WithLabelValues("products").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("products").Inc()

	products, err := s.products.All(ctx)
	if err != nil {
		return nil, apperr.Persistence("could not load products", err)
	}
	_ = cache.Set(catalogCacheKey, products, catalogCacheTTL)
	return products, nil
}

// Get returns one product by id.
func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, apperr.Validation("invalid product id")
	}
	product, err := s.products.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, apperr.NotFound("Product not found")
		}
		return models.Product{}, apperr.Persistence("could not load product", err)
	}
	return product, nil
}

// ProductInput carries product fields for create and update. Price is paise.
type ProductInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"nullable,max=2000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
}

// Create adds a catalog item, optionally with an uploaded image.
func (s *ProductService) Create(ctx context.Context, in ProductInput, image *multipart.FileHeader) (models.Product, error) {
	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}

	if image != nil {
		filename, err := s.storeImage(image)
		if err != nil {
			return models.Product{}, err
		}
		product.Image = filename
	}

	if err := s.products.Create(ctx, &product); err != nil {
		return models.Product{}, apperr.Persistence("could not create product", err)
	}
	_ = cache.Forget(catalogCacheKey)
	return product, nil
}

// Update edits a catalog item. A new image replaces the stored filename.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, image *multipart.FileHeader) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, apperr.Validation("invalid product id")
	}

	set := bson.M{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
	}
	if image != nil {
		filename, err := s.storeImage(image)
		if err != nil {
			return models.Product{}, err
		}
		set["image"] = filename
	}

	if err := s.products.Update(ctx, oid, set); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, apperr.NotFound("Product not found")
		}
		return models.Product{}, apperr.Persistence("could not update product", err)
	}
	_ = cache.Forget(catalogCacheKey)

	product, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return models.Product{}, apperr.Persistence("could not reload product", err)
	}
	return product, nil
}

// Delete removes a catalog item.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Validation("invalid product id")
	}
	if err := s.products.Delete(ctx, oid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("Product not found")
		}
		return apperr.Persistence("could not delete product", err)
	}
	_ = cache.Forget(catalogCacheKey)
	return nil
}

// storeImage validates the extension and writes the upload to the default
// storage disk under uploads/.
func (s *ProductService) storeImage(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", apperr.Validation("Images only (jpeg, jpg, png, gif)")
	}

	src, err := header.Open()
	if err != nil {
		return "", apperr.Validation("could not read uploaded file")
	}
	defer src.Close()

	filename := fmt.Sprintf("image-%d%s", time.Now().UnixNano(), ext)
	if err := s.saveImage("uploads/"+filename, src); err != nil {
		return "", apperr.Persistence("could not store image", err)
	}
	return filename, nil
}
