package search

// Field types used by the item mapping.
var (
	keyword   = map[string]any{"type": "keyword"}
	long      = map[string]any{"type": "long"}
	analyzed  = map[string]any{"type": "text"}
	double    = map[string]any{"type": "double"}
	timestamp = map[string]any{"type": "date", "format": "basic_date_time_no_millis"}
	calendar  = map[string]any{"type": "date", "format": "date"}
)

// ItemMapping returns the strict mapping applied to a freshly created index.
// Row identifiers are longs and URIs are exact-match keywords; only the
// normalized dish name is analyzed.
func ItemMapping() map[string]any {
	return map[string]any{
		"dynamic":        "strict",
		"date_detection": false,
		"properties": map[string]any{
			"dish_id":                long,
			"menu_sponsor":           keyword,
			"menu_location":          keyword,
			"menu_date":              calendar,
			"menu_page_count":        double,
			"menu_dish_count":        double,
			"item_id":                long,
			"menu_page_id":           long,
			"item_xpos":              double,
			"item_ypos":              double,
			"item_created_at":        timestamp,
			"item_updated_at":        timestamp,
			"menu_id":                long,
			"menu_page_number":       double,
			"image_id":               keyword,
			"page_image_full_height": double,
			"page_image_full_width":  double,
			"page_image_uuid":        keyword,
			"dish_name":              keyword,
			"dish_menus_appeared":    double,
			"dish_times_appeared":    double,
			"dish_normalized_name":   analyzed,
			"dish_name_fingerprint":  keyword,
			"dish_uri":               keyword,
			"item_uri":               keyword,
			"menu_page_uri":          keyword,
			"menu_uri":               keyword,
		},
	}
}

// Settings toggled around the bulk load.
func bulkSettings() map[string]any {
	return map[string]any{"index": map[string]any{
		"refresh_interval":   "-1",
		"number_of_replicas": 0,
	}}
}

func servingSettings(replicas int) map[string]any {
	return map[string]any{"index": map[string]any{
		"refresh_interval":   "1s",
		"number_of_replicas": replicas,
	}}
}
