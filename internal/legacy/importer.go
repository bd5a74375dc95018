package legacy

import (
	"context"
	"encoding/json"
	"fmt"

	"conmart/internal/domain"
	applog "conmart/internal/log"
	"conmart/internal/normalize"
	"conmart/internal/repos"
)

// Importer pulls the legacy catalog and upserts it locally. Runs are
// idempotent: categories key on slug, owners and products on their legacy id.
type Importer struct {
	Client *Client
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
}

func NewImporter(client *Client, cats *repos.CategoryRepo, prods *repos.ProductRepo, users *repos.UserRepo, owners *repos.OwnerRepo) *Importer {
	return &Importer{Client: client, Cats: cats, Prods: prods, Users: users, Owners: owners}
}

// Summary reports what an import run touched.
type Summary struct {
	Categories int `json:"categories"`
	Owners     int `json:"owners"`
	Products   int `json:"products"`
	Skipped    int `json:"skipped"`
}

// Run imports categories first so product rows can resolve their parents,
// then suppliers, then products. Products referencing unknown categories or
// carrying no owner are skipped and counted, not fatal.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	cats, err := im.Client.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("import categories: %w", err)
	}
	// Parents before children, so parent_id lookups land on existing rows.
	for pass := 0; pass < 2; pass++ {
		for _, lc := range cats {
			isChild := lc.ParentID != ""
			if (pass == 0) == isChild {
				continue
			}
			if err := im.Cats.Upsert(toCategory(lc)); err != nil {
				return nil, fmt.Errorf("import category %s: %w", lc.Slug, err)
			}
			sum.Categories++
		}
	}

	known := map[string]bool{}
	for _, lc := range cats {
		known[lc.ID] = true
	}

	prods, err := im.Client.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("import products: %w", err)
	}

	// Owners come nested inside product payloads; materialize each one once
	// before the product rows that reference it.
	owners := map[string]bool{}
	for _, lp := range prods {
		lo := ownerOf(lp)
		if lo == nil || owners[lo.ID] {
			continue
		}
		if err := im.importOwner(lo); err != nil {
			return nil, fmt.Errorf("import owner %s: %w", lo.ID, err)
		}
		owners[lo.ID] = true
		sum.Owners++
	}

	for _, lp := range prods {
		if lp.CategoryID == "" || !known[lp.CategoryID] {
			applog.Info(nil, "import.skip", map[string]any{
				"product_id": lp.ID,
				"reason":     "unknown category",
				"category":   lp.CategoryID,
			})
			sum.Skipped++
			continue
		}
		if lp.OwnerID == "" {
			applog.Info(nil, "import.skip", map[string]any{
				"product_id": lp.ID,
				"reason":     "no owner",
			})
			sum.Skipped++
			continue
		}
		if err := im.Prods.Upsert(toProduct(lp)); err != nil {
			return nil, fmt.Errorf("import product %s: %w", lp.ID, err)
		}
		sum.Products++
	}

	if err := im.Cats.SyncProductCounts(); err != nil {
		return nil, err
	}
	for id := range owners {
		if err := im.Owners.SyncProductCount(id); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// importOwner backs the supplier row with a login-less account and upserts
// the business record.
func (im *Importer) importOwner(lo *normalize.LegacyOwner) error {
	userID := lo.UserID
	if userID == "" {
		userID = lo.ID
	}
	// Placeholder address keyed on the legacy id, so shared contact emails
	// across suppliers never collide.
	email := fmt.Sprintf("legacy-%s@import.invalid", lo.ID)
	name := lo.BusinessName
	if name == "" {
		name = "Imported supplier"
	}
	if err := im.Users.EnsureExists(userID, email, name, domain.RoleProductOwner); err != nil {
		return err
	}
	return im.Owners.Upsert(&domain.ProductOwner{
		ID:                lo.ID,
		UserID:            userID,
		BusinessName:      lo.BusinessName,
		BusinessCity:      lo.BusinessCity,
		BusinessPhone:     lo.BusinessPhone,
		BusinessEmail:     lo.BusinessEmail,
		Tier:              domain.TierBasic,
		ProductsLimit:     -1, // imported catalogs are never capped
		DeliveryAvailable: lo.DeliveryAvailable,
	})
}

// ownerOf resolves the supplier blob for a product, falling back to a bare
// record when the payload only carries an owner id.
func ownerOf(lp normalize.LegacyProduct) *normalize.LegacyOwner {
	if lp.Owner != nil {
		return lp.Owner
	}
	if lp.OwnerID != "" {
		return &normalize.LegacyOwner{ID: lp.OwnerID}
	}
	return nil
}

func toCategory(lc normalize.LegacyCategory) *domain.Category {
	images, _ := json.Marshal(lc.Images)
	return &domain.Category{
		ID:          lc.ID,
		ParentID:    lc.ParentID,
		Slug:        lc.Slug,
		Name:        lc.Name,
		NameAmharic: lc.NameAmharic,
		Description: lc.Description,
		DescAmharic: lc.DescAmharic,
		Icon:        lc.Icon,
		ImagesJSON:  string(images),
		Order:       lc.Order,
		IsActive:    lc.IsActive,
	}
}

func toProduct(lp normalize.LegacyProduct) *domain.Product {
	images, _ := json.Marshal(lp.Images)
	return &domain.Product{
		ID:                 lp.ID,
		OwnerID:            lp.OwnerID,
		CategoryID:         lp.CategoryID,
		SubcategoryID:      lp.SubcategoryID,
		Name:               lp.Name,
		NameAmharic:        lp.NameAmharic,
		Description:        lp.Description,
		Brand:              lp.Brand,
		Model:              lp.Model,
		PrimaryImage:       lp.PrimaryImage,
		ImagesJSON:         string(images),
		Price:              lp.Price,
		PriceNegotiable:    lp.PriceNegotiable,
		QuotationAvailable: lp.QuotationAvailable,
		MinOrderQuantity:   lp.MinOrderQuantity,
		Unit:               lp.Unit,
		Location:           lp.Location,
		City:               lp.City,
		DeliveryAvailable:  lp.DeliveryAvailable,
		Status:             lp.Status,
	}
}
