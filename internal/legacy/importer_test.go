package legacy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/legacy"
	"conmart/internal/repos"
)

const categoriesBody = `{"results": [
  {"id": "cat-cement", "slug": "legacy-cement", "name": "Cement & Concrete", "order": 1, "is_active": true,
   "category_images": ["categories/cement1.jpg", "categories/cement2.jpg"]},
  {"id": "cat-opc", "slug": "legacy-opc", "name": "OPC", "parent": {"id": "cat-cement"}, "order": 1, "is_active": true}
]}`

// Products arrive as a bare array with stringly-typed numbers and nested
// owner/category serializers, the way the old backend writes them.
const productsBody = `[
  {"id": "prod-1", "owner": {"id": "owner-1", "business_name": "Mulu Building Supplies",
   "business_city": "Addis Ababa", "business_phone": "+251911000000", "delivery_available": true},
   "category": {"id": "cat-cement"}, "subcategory": {"id": "cat-opc"},
   "name": "Dangote OPC 42.5", "description": "50kg bags", "price": "850.00",
   "min_order_quantity": 10, "unit": "bag", "location": "Addis Ababa", "status": "active"},
  {"id": "prod-2", "owner_id": "owner-1", "category_id": "cat-unknown",
   "name": "Mystery", "description": "orphan", "price": 10}
]`

func legacyServer(t *testing.T, auth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/categories/":
			_, _ = w.Write([]byte(categoriesBody))
		case "/api/products/":
			_, _ = w.Write([]byte(productsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runImport(t *testing.T) (*sqlx.DB, *legacy.Importer, *legacy.Summary) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var gotAuth string
	srv := legacyServer(t, &gotAuth)

	im := legacy.NewImporter(legacy.NewClient(srv.URL, "legacy-key"),
		repos.NewCategoryRepo(db), repos.NewProductRepo(db),
		repos.NewUserRepo(db), repos.NewOwnerRepo(db))

	sum, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Token legacy-key", gotAuth)
	return db, im, sum
}

func TestImporterRun(t *testing.T) {
	db, im, sum := runImport(t)

	assert.Equal(t, 2, sum.Categories)
	assert.Equal(t, 1, sum.Owners)
	assert.Equal(t, 1, sum.Products)
	assert.Equal(t, 1, sum.Skipped, "orphan product is skipped, not fatal")

	p, err := im.Prods.Get("prod-1")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, "cat-cement", p.CategoryID)
	assert.Equal(t, "cat-opc", p.SubcategoryID)
	assert.Equal(t, 850.0, p.Price)
	assert.True(t, p.DeliveryAvailable, "delivery flag lifted from the nested owner")
	assert.True(t, p.QuotationAvailable, "quotation defaults on when absent")

	child, err := im.Cats.BySlug("legacy-opc")
	require.NoError(t, err)
	assert.Equal(t, "cat-cement", child.ParentID)

	// The nested owner blob becomes a real supplier backed by a login-less
	// account, so the product's FK has a row to land on.
	o, err := im.Owners.ByID("owner-1")
	require.NoError(t, err)
	assert.Equal(t, "Mulu Building Supplies", o.BusinessName)
	assert.Equal(t, "Addis Ababa", o.BusinessCity)
	assert.True(t, o.DeliveryAvailable)
	assert.Equal(t, 1, o.ProductsCount)

	u, err := im.Users.ByID(o.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProductOwner, u.Role)
	assert.Empty(t, u.Hash, "imported accounts have no password")

	// Re-running is idempotent.
	sum2, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum2.Categories)
	assert.Equal(t, 1, sum2.Owners)
	assert.Equal(t, 1, sum2.Products)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM products WHERE id='prod-1'`))
	assert.Equal(t, 1, n)
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM product_owners WHERE id='owner-1'`))
	assert.Equal(t, 1, n)
}

// Quotations raised against imported products must show up in both the
// buyer's and the supplier's listings with the business name attached.
func TestImportedProductQuotationsListed(t *testing.T) {
	db, _, _ := runImport(t)

	users := repos.NewUserRepo(db)
	quots := repos.NewQuotationRepo(db)

	buyer := &domain.User{ID: uuid.NewString(), Email: "buyer@test.local", Name: "Buyer", Hash: "x", Role: domain.RoleUser}
	require.NoError(t, users.Create(buyer))

	q := &domain.Quotation{
		ID:        uuid.NewString(),
		ProductID: "prod-1",
		UserID:    buyer.ID,
		Quantity:  25,
		Message:   "need delivery to Bole",
	}
	require.NoError(t, quots.Create(q))

	mine, err := quots.ListByUser(buyer.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Dangote OPC 42.5", mine[0].ProductName)
	assert.Equal(t, "Mulu Building Supplies", mine[0].BusinessName)

	theirs, err := quots.ListByOwner("owner-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, q.ID, theirs[0].ID)
}
