package services

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/validate"
)

type fakeProductStore struct {
	products map[primitive.ObjectID]models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[primitive.ObjectID]models.Product{}}
}

func (f *fakeProductStore) All(_ context.Context) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, mongo.ErrNoDocuments
	}
	return p, nil
}

func (f *fakeProductStore) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) error {
	p, ok := f.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if v, ok := set["name"].(string); ok {
		p.Name = v
	}
	if v, ok := set["price"].(int64); ok {
		p.Price = v
	}
	if v, ok := set["image"].(string); ok {
		p.Image = v
	}
	f.products[id] = p
	return nil
}

func (f *fakeProductStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.products[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.products, id)
	return nil
}

// uploadHeader builds a real multipart.FileHeader via httptest, the same way
// the controller receives one.
func uploadHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-really-an-image"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func productFixture() (*ProductService, *fakeProductStore, *[]string) {
	store := newFakeProductStore()
	saved := &[]string{}
	svc := NewProductServiceWith(store, func(path string, _ io.Reader) error {
		*saved = append(*saved, path)
		return nil
	})
	return svc, store, saved
}

func TestProductCRUD(t *testing.T) {
	svc, store, _ := productFixture()

	created, err := svc.Create(context.Background(), ProductInput{
		Name: "Pista Kulfi", Description: "Classic", Price: 12000,
	}, nil)
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())

	got, err := svc.Get(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Pista Kulfi", got.Name)

	updated, err := svc.Update(context.Background(), created.ID.Hex(), ProductInput{
		Name: "Pista Kulfi Large", Price: 15000,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pista Kulfi Large", updated.Name)
	assert.Equal(t, int64(15000), updated.Price)

	require.NoError(t, svc.Delete(context.Background(), created.ID.Hex()))
	assert.Empty(t, store.products)

	_, err = svc.Get(context.Background(), created.ID.Hex())
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	_, err = svc.Get(context.Background(), "bad-id")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestProductImageUpload(t *testing.T) {
	svc, _, saved := productFixture()

	created, err := svc.Create(context.Background(), ProductInput{
		Name: "Mango Tub", Price: 20000,
	}, uploadHeader(t, "mango.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.Image)
	require.Len(t, *saved, 1)
	assert.Contains(t, (*saved)[0], "uploads/")

	// Disallowed extension never reaches storage.
	_, err = svc.Create(context.Background(), ProductInput{
		Name: "Sneaky", Price: 100,
	}, uploadHeader(t, "payload.svg"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	assert.Len(t, *saved, 1)
}

func TestProductInputTags(t *testing.T) {
	errs := validate.Struct(ProductInput{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "price")

	errs = validate.Struct(ProductInput{Name: "Free Scoop", Price: -100})
	assert.Contains(t, errs, "price", "negative price must be rejected")

	errs = validate.Struct(ProductInput{Name: strings.Repeat("x", 201), Price: 100})
	assert.Contains(t, errs, "name", "over-long name must be rejected")

	errs = validate.Struct(ProductInput{Name: "Mango Tub", Price: 20000})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}
