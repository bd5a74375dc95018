package normalize

import (
	"encoding/json"
	"fmt"
)

// LegacyCategory is a category row as the old backend serializes it, with
// defaults already applied.
type LegacyCategory struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	NameAmharic string `json:"name_amharic"`
	Description string `json:"description"`
	DescAmharic string `json:"description_amharic"`
	Icon        string `json:"icon"`
	Images      []string
	Order       int
	IsActive    bool
}

// LegacyOwner is the supplier blob the old backend nests inside products.
type LegacyOwner struct {
	ID                string
	UserID            string
	BusinessName      string
	BusinessCity      string
	BusinessPhone     string
	BusinessEmail     string
	DeliveryAvailable bool
}

// LegacyProduct is a product row as the old backend serializes it.
type LegacyProduct struct {
	ID                 string `json:"id"`
	OwnerID            string
	CategoryID         string
	SubcategoryID      string
	Name               string
	NameAmharic        string
	Description        string
	Brand              string
	Model              string
	PrimaryImage       string
	Images             []string
	Price              float64
	PriceNegotiable    bool
	QuotationAvailable bool
	DeliveryAvailable  bool
	MinOrderQuantity   int
	Unit               string
	Location           string
	City               string
	Status             string
	Owner              *LegacyOwner
}

// Category normalizes one raw legacy category object. Feeding an
// already-normalized payload back through yields the same result.
func Category(raw json.RawMessage) (LegacyCategory, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return LegacyCategory{}, fmt.Errorf("category is not an object: %w", err)
	}
	id := Str(m["id"])
	if id == "" {
		return LegacyCategory{}, fmt.Errorf("category missing id")
	}

	c := LegacyCategory{
		ID:          id,
		ParentID:    firstStr(m, "parent_id", "parent"),
		Slug:        Str(m["slug"]),
		Name:        Str(m["name"]),
		NameAmharic: Str(m["name_amharic"]),
		Description: Str(m["description"]),
		DescAmharic: Str(m["description_amharic"]),
		Icon:        Str(m["icon"]),
		Images:      strList(m["category_images"]),
		Order:       Int(m["order"], 0),
		IsActive:    Bool(m["is_active"], true),
	}
	if c.Images == nil {
		c.Images = strList(m["images"])
	}
	return c, nil
}

// Product normalizes one raw legacy product object.
func Product(raw json.RawMessage) (LegacyProduct, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return LegacyProduct{}, fmt.Errorf("product is not an object: %w", err)
	}
	id := Str(m["id"])
	if id == "" {
		return LegacyProduct{}, fmt.Errorf("product missing id")
	}

	p := LegacyProduct{
		ID:                 id,
		OwnerID:            firstStr(m, "owner_id", "owner"),
		CategoryID:         firstStr(m, "category_id", "category"),
		SubcategoryID:      firstStr(m, "subcategory_id", "subcategory"),
		Name:               Str(m["name"]),
		NameAmharic:        Str(m["name_amharic"]),
		Description:        Str(m["description"]),
		Brand:              Str(m["brand"]),
		Model:              Str(m["model"]),
		PrimaryImage:       Str(m["primary_image"]),
		Images:             strList(m["images"]),
		Price:              Number(m["price"], 0),
		PriceNegotiable:    Bool(m["price_negotiable"], true),
		QuotationAvailable: Bool(m["quotation_available"], true),
		MinOrderQuantity:   Int(m["min_order_quantity"], 1),
		Unit:               Str(m["unit"]),
		Location:           Str(m["location"]),
		City:               Str(m["city"]),
		Status:             Str(m["status"]),
	}

	if owner, ok := m["owner"].(map[string]any); ok {
		if id := Str(owner["id"]); id != "" {
			p.Owner = &LegacyOwner{
				ID:                id,
				UserID:            firstStr(owner, "user_id", "user"),
				BusinessName:      Str(owner["business_name"]),
				BusinessCity:      Str(owner["business_city"]),
				BusinessPhone:     Str(owner["business_phone"]),
				BusinessEmail:     Str(owner["business_email"]),
				DeliveryAvailable: Bool(owner["delivery_available"], false),
			}
		}
	}

	// delivery_available sometimes only exists on the nested owner blob.
	if v, ok := m["delivery_available"]; ok {
		p.DeliveryAvailable = Bool(v, false)
	} else if p.Owner != nil {
		p.DeliveryAvailable = p.Owner.DeliveryAvailable
	}

	if p.Status == "" {
		p.Status = "under_review"
	}
	return p, nil
}

// firstStr returns the first non-empty string among the named keys. Keys
// that hold objects (nested serializers) contribute their "id" field.
func firstStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if id := Str(v["id"]); id != "" {
				return id
			}
		}
	}
	return ""
}

func strList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := Str(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
