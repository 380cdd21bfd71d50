// Package document defines the flat record produced by the merge and its
// mapping onto bulk index actions.
package document

import "math"

// Fields lists the document fields in output order.
var Fields = []string{
	"dish_id",
	"menu_sponsor",
	"menu_location",
	"menu_date",
	"menu_page_count",
	"menu_dish_count",
	"item_id",
	"menu_page_id",
	"item_xpos",
	"item_ypos",
	"item_created_at",
	"item_updated_at",
	"menu_id",
	"menu_page_number",
	"image_id",
	"page_image_full_height",
	"page_image_full_width",
	"page_image_uuid",
	"dish_name",
	"dish_menus_appeared",
	"dish_times_appeared",
	"dish_normalized_name",
	"dish_name_fingerprint",
	"dish_uri",
	"item_uri",
	"menu_page_uri",
	"menu_uri",
}

// MenuDocument is one (dish, item, page, menu) join tuple.
//
// The three join keys are always valid integers. Every other field holds
// nil for a missing value, a string, or the result of a lenient numeric
// cast (int64, float64, or the original text when it did not parse).
type MenuDocument struct {
	DishID     int64
	MenuPageID int64
	MenuID     int64

	ItemID any

	MenuSponsor   any
	MenuLocation  any
	MenuDate      any
	MenuPageCount any
	MenuDishCount any

	ItemXPos      any
	ItemYPos      any
	ItemCreatedAt any
	ItemUpdatedAt any

	MenuPageNumber      any
	ImageID             any
	PageImageFullHeight any
	PageImageFullWidth  any
	PageImageUUID       any

	DishName           any
	DishMenusAppeared  any
	DishTimesAppeared  any
	DishNormalizedName any
	DishFingerprint    any

	DishURI     any
	ItemURI     any
	MenuPageURI any
	MenuURI     any
}

// Values returns the field values in Fields order with non-finite numbers
// replaced by nil.
func (d *MenuDocument) Values() []any {
	vals := []any{
		d.DishID,
		d.MenuSponsor,
		d.MenuLocation,
		d.MenuDate,
		d.MenuPageCount,
		d.MenuDishCount,
		d.ItemID,
		d.MenuPageID,
		d.ItemXPos,
		d.ItemYPos,
		d.ItemCreatedAt,
		d.ItemUpdatedAt,
		d.MenuID,
		d.MenuPageNumber,
		d.ImageID,
		d.PageImageFullHeight,
		d.PageImageFullWidth,
		d.PageImageUUID,
		d.DishName,
		d.DishMenusAppeared,
		d.DishTimesAppeared,
		d.DishNormalizedName,
		d.DishFingerprint,
		d.DishURI,
		d.ItemURI,
		d.MenuPageURI,
		d.MenuURI,
	}
	for i, v := range vals {
		vals[i] = finite(v)
	}
	return vals
}

// Source returns the document as a field → value mapping, safe to encode
// as JSON.
func (d *MenuDocument) Source() map[string]any {
	vals := d.Values()
	m := make(map[string]any, len(Fields))
	for i, f := range Fields {
		m[f] = vals[i]
	}
	return m
}

func finite(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil
		}
	}
	return v
}
