package controllers

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/storage"
)

func HandleProductList(c *fiber.Ctx) error {
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Products] load: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load your business")
	}
	products, err := repos().Product.ListByBusiness(biz.ID, false)
	if err != nil {
		log.Errorf("[Products] list %s: %v", biz.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load products")
	}

	var active int64
	for _, p := range products {
		if p.IsActive {
			active++
		}
	}
	plan := entitlements.Of(biz)
	return render(c, "products", "Your products", fiber.Map{
		"Business":      biz,
		"Products":      products,
		"ActiveCount":   active,
		"ProductLimit":  entitlements.ProductLimit(plan),
		"CanAddProduct": entitlements.CanAddProduct(plan, active),
		"IsPro":         plan == entitlements.PlanPro,
	})
}

func HandleProductCreate(c *fiber.Ctx) error {
	r := repos()
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Products] load: %v", err)
		return flashError(c, "Could not load your business", constants.ProductsRoute)
	}
	if !biz.HasProfile() {
		return flashError(c, "Please complete your business profile first", constants.ProfileRoute)
	}

	active, err := r.Product.CountActiveByBusiness(biz.ID)
	if err != nil {
		log.Errorf("[Products] count %s: %v", biz.ID, err)
		return flashError(c, "Could not save the product", constants.ProductsRoute)
	}
	if !entitlements.CanAddProduct(entitlements.Of(biz), active) {
		return flashError(c, "Free businesses can list up to 3 products. Upgrade to pro for unlimited products.", constants.ProductsRoute)
	}

	p := &models.Product{BusinessID: biz.ID, IsActive: true}
	if msg := bindProductForm(c, p); msg != "" {
		return flashError(c, msg, constants.ProductsRoute)
	}
	if err := attachProductImage(c, biz, p); err != nil {
		return flashError(c, "Image: "+err.Error(), constants.ProductsRoute)
	}

	if err := r.Product.Create(p); err != nil {
		log.Errorf("[Products] create for %s: %v", biz.ID, err)
		return flashError(c, "Could not save the product", constants.ProductsRoute)
	}
	return flashSuccess(c, "Product added", constants.ProductsRoute)
}

func HandleProductUpdate(c *fiber.Ctx) error {
	r := repos()
	biz, p, ok, err := ownedProduct(c)
	if !ok {
		return err
	}

	wasActive := p.IsActive
	if msg := bindProductForm(c, p); msg != "" {
		return flashError(c, msg, constants.ProductsRoute)
	}
	p.IsActive = c.FormValue("is_active") == "on" || c.FormValue("is_active") == "true"

	if p.IsActive && !wasActive {
		active, err := r.Product.CountActiveByBusiness(biz.ID)
		if err != nil {
			log.Errorf("[Products] count %s: %v", biz.ID, err)
			return flashError(c, "Could not save the product", constants.ProductsRoute)
		}
		if !entitlements.CanAddProduct(entitlements.Of(biz), active) {
			return flashError(c, "Free businesses can list up to 3 active products", constants.ProductsRoute)
		}
	}

	oldJPEG, oldWebP := p.ImageURL, p.ImageWebPURL
	replaced, err := attachProductImageReplaced(c, biz, p)
	if err != nil {
		return flashError(c, "Image: "+err.Error(), constants.ProductsRoute)
	}

	if err := r.Product.Update(p); err != nil {
		log.Errorf("[Products] update %d: %v", p.ID, err)
		return flashError(c, "Could not save the product", constants.ProductsRoute)
	}
	if replaced {
		deleteImagesAsync(oldJPEG, oldWebP)
	}
	return flashSuccess(c, "Product updated", constants.ProductsRoute)
}

func HandleProductDelete(c *fiber.Ctx) error {
	_, p, ok, err := ownedProduct(c)
	if !ok {
		return err
	}
	if err := repos().Product.Delete(p.ID); err != nil {
		log.Errorf("[Products] delete %d: %v", p.ID, err)
		return flashError(c, "Could not delete the product", constants.ProductsRoute)
	}
	deleteImagesAsync(p.ImageURL, p.ImageWebPURL)
	return flashSuccess(c, "Product deleted", constants.ProductsRoute)
}

// ownedProduct loads the product named in the route and makes sure it
// belongs to the signed-in business. Products of other businesses look
// like missing ones. When ok is false the response has been written and
// err is the result to return.
func ownedProduct(c *fiber.Ctx) (biz *models.Business, p *models.Product, ok bool, err error) {
	biz, err = currentBusiness(c)
	if err != nil {
		log.Errorf("[Products] load: %v", err)
		return nil, nil, false, flashError(c, "Could not load your business", constants.ProductsRoute)
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, nil, false, flashError(c, "Product not found", constants.ProductsRoute)
	}
	p, err = repos().Product.GetByID(uint(id))
	if err != nil || p.BusinessID != biz.ID {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Products] get %d: %v", id, err)
		}
		return nil, nil, false, flashError(c, "Product not found", constants.ProductsRoute)
	}
	return biz, p, true, nil
}

// bindProductForm copies the editable fields and returns a user message
// when they are invalid.
func bindProductForm(c *fiber.Ctx, p *models.Product) string {
	p.Name = content.PlainText(c.FormValue("name"))
	p.Description = strings.TrimSpace(c.FormValue("description"))

	price := strings.TrimSpace(c.FormValue("price"))
	if price == "" {
		p.Price = 0
	} else {
		v, err := strconv.ParseInt(price, 10, 64)
		if err != nil || v < 0 {
			return "Price must be a whole number of 0 or more"
		}
		p.Price = v
	}

	if err := p.Validate(); err != nil {
		return "Products need a name of 2 to 120 characters"
	}
	return ""
}

func attachProductImage(c *fiber.Ctx, biz *models.Business, p *models.Product) error {
	_, err := attachProductImageReplaced(c, biz, p)
	return err
}

func attachProductImageReplaced(c *fiber.Ctx, biz *models.Business, p *models.Product) (bool, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return false, nil
	}
	stored, err := saveUploadedImage(c.UserContext(), biz, fh.Filename, fh.Size, func() (io.ReadCloser, error) { return fh.Open() })
	if err != nil {
		return false, err
	}
	p.ImageURL = stored.JPEGURL
	p.ImageWebPURL = stored.WebPURL
	return true, nil
}

func deleteImagesAsync(urls ...string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		imageprocessor.DeleteProductImage(ctx, storage.Default(), urls...)
	}()
}
