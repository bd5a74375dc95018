package normalize_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/normalize"
)

func TestDecodeListShapes(t *testing.T) {
	want := []string{"a", "b"}

	for name, raw := range map[string]string{
		"bare array":       `[{"id":"a"},{"id":"b"}]`,
		"results envelope": `{"results":[{"id":"a"},{"id":"b"}]}`,
		"entity envelope":  `{"success":true,"categories":[{"id":"a"},{"id":"b"}]}`,
	} {
		items, err := normalize.DecodeList([]byte(raw), "categories")
		require.NoError(t, err, name)
		require.Len(t, items, 2, name)
		var ids []string
		for _, it := range items {
			var m map[string]string
			require.NoError(t, json.Unmarshal(it, &m))
			ids = append(ids, m["id"])
		}
		assert.Equal(t, want, ids, name)
	}
}

func TestDecodeListUnknownShapeFails(t *testing.T) {
	for name, raw := range map[string]string{
		"wrong key":    `{"things":[1,2]}`,
		"scalar":       `42`,
		"non-array":    `{"results":{"id":"a"}}`,
		"broken":       `{"results":`,
		"empty object": `{}`,
	} {
		_, err := normalize.DecodeList([]byte(raw), "categories")
		assert.Error(t, err, name)
	}
}

func TestNumberCoercion(t *testing.T) {
	assert.Equal(t, 12.5, normalize.Number(12.5, 0))
	assert.Equal(t, 12.5, normalize.Number("12.5", 0))
	assert.Equal(t, 3.0, normalize.Number(nil, 3))
	assert.Equal(t, 3.0, normalize.Number("n/a", 3))
	assert.Equal(t, 7, normalize.Int("7", 0))
	assert.True(t, normalize.Bool("true", false))
	assert.False(t, normalize.Bool("0", true))
	assert.True(t, normalize.Bool(nil, true))
}

func TestProductNormalization(t *testing.T) {
	raw := []byte(`{
		"id": "p-1",
		"owner": {"id": "o-1", "delivery_available": true},
		"category": "c-1",
		"name": "Rebar 12mm",
		"description": "Reinforcement bar",
		"price": "1250.50",
		"min_order_quantity": "5",
		"unit": "quintal",
		"location": "Addis Ababa"
	}`)

	p, err := normalize.Product(raw)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "o-1", p.OwnerID)
	assert.Equal(t, "c-1", p.CategoryID)
	assert.Equal(t, 1250.50, p.Price)
	assert.Equal(t, 5, p.MinOrderQuantity)
	assert.True(t, p.DeliveryAvailable, "delivery defaulted from nested owner")
	assert.True(t, p.QuotationAvailable, "missing quotation_available defaults true")
	assert.Equal(t, "under_review", p.Status, "missing status defaults to moderation queue")
}

// Round-trip stability: feeding a normalized product back through the
// normalizer yields the same value.
func TestProductNormalizationIdempotent(t *testing.T) {
	raw := []byte(`{"id":"p-2","owner_id":"o-2","category_id":"c-2","name":"Cement",
		"description":"OPC 42.5","price":"980","unit":"bag","location":"Adama",
		"delivery_available":false,"quotation_available":true,"status":"active"}`)

	first, err := normalize.Product(raw)
	require.NoError(t, err)

	again, err := json.Marshal(map[string]any{
		"id": first.ID, "owner_id": first.OwnerID, "category_id": first.CategoryID,
		"name": first.Name, "description": first.Description, "price": first.Price,
		"unit": first.Unit, "location": first.Location,
		"delivery_available":  first.DeliveryAvailable,
		"quotation_available": first.QuotationAvailable,
		"min_order_quantity":  first.MinOrderQuantity, "status": first.Status,
	})
	require.NoError(t, err)

	second, err := normalize.Product(again)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCategoryNormalization(t *testing.T) {
	raw := []byte(`{"id":"c-1","name":"Timber","slug":"timber","parent":null,
		"category_images":["a.jpg","b.jpg"],"order":"2"}`)

	c, err := normalize.Category(raw)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "", c.ParentID)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, c.Images)
	assert.Equal(t, 2, c.Order)
	assert.True(t, c.IsActive)

	_, err = normalize.Category([]byte(`{"name":"no id"}`))
	assert.Error(t, err)
}
