package constants

// Static route constants
const (
	UploadsRoute = "/uploads"
	PublicRoute  = "/"
	// Upload path without leading slash for URL construction
	UploadsPath = "uploads"

	DashboardRoute = "/dashboard"
	ProfileRoute   = "/dashboard/profile"
	ProductsRoute  = "/dashboard/products"
	LoginRoute     = "/login"
	StoreRoute     = "/b/"
)

// StorefrontURL is the public path of a business page.
func StorefrontURL(slug string) string {
	return StoreRoute + slug
}
