package controllers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/validate"
)

const maxImageUploadBytes = 5 << 20

// ProductAPI is the service surface ProductController depends on.
type ProductAPI interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, in services.ProductInput, image *multipart.FileHeader) (models.Product, error)
	Update(ctx context.Context, id string, in services.ProductInput, image *multipart.FileHeader) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductController struct {
	service ProductAPI
}

func NewProductController() *ProductController {
	return &ProductController{service: services.NewProductService()}
}

func NewProductControllerWith(service ProductAPI) *ProductController {
	return &ProductController{service: service}
}

// List handles GET /api/products.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	products, err := c.service.List(r.Context())
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, products)
}

// Get handles GET /api/products/{id}.
func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	product, err := c.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, product)
}

// Create handles POST /api/products (admin, multipart).
func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	in, image, errs := c.parseForm(r)
	if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.service.Create(r.Context(), in, image)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Created(w, product)
}

// Update handles PUT /api/products/{id} (admin, multipart).
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	in, image, errs := c.parseForm(r)
	if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.service.Update(r.Context(), chi.URLParam(r, "id"), in, image)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, product)
}

// Delete handles DELETE /api/products/{id} (admin).
func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Message(w, "Product removed")
}

// parseForm reads the multipart product form: name, description, price (in
// paise) and an optional image file.
func (c *ProductController) parseForm(r *http.Request) (services.ProductInput, *multipart.FileHeader, map[string]string) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return services.ProductInput{}, nil, map[string]string{"form": "invalid multipart form"}
	}

	in := services.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, nil, map[string]string{"price": "price must be an integer amount in paise"}
		}
		in.Price = price
	}

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return in, nil, errs
	}

	var image *multipart.FileHeader
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		image = files[0]
	}
	return in, image, nil
}
