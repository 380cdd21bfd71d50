package merge

import (
	"errors"
	"strings"
	"testing"

	"github.com/trevormunoz/dumbwaiter/internal/datefmt"
	"github.com/trevormunoz/dumbwaiter/internal/source"
	"github.com/trevormunoz/dumbwaiter/internal/table"
)

func tables(dish, item, page, menu [][]string) *source.Tables {
	return &source.Tables{
		Dish:     table.New("Dish.csv", []string{"id", "name", "description", "menus_appeared", "times_appeared"}, dish),
		MenuItem: table.New("MenuItem.csv", []string{"id", "menu_page_id", "price", "dish_id", "created_at", "updated_at", "xpos", "ypos"}, item),
		MenuPage: table.New("MenuPage.csv", source.MenuPageColumns, page),
		Menu:     table.New("Menu.csv", []string{"id", "name", "sponsor", "location", "date", "page_count", "dish_count"}, menu),
	}
}

const ts = "2011-03-28 15:00:44 UTC"

func TestMerge_ChickenGumbo(t *testing.T) {
	t.Parallel()

	in := tables(
		[][]string{{"1", "Chicken Gumbo", "", "3", "5"}},
		[][]string{{"10", "20", "0.4", "1", ts, ts, "0.11", "0.22"}},
		[][]string{{"20", "30", "1", "1603595", "7230", "5428", "510d47e4"}},
		[][]string{{"30", "", "HOTEL EASTMAN", "Hot Springs, AR", "1900-04-15", "2", "67"}},
	)

	docs, st, err := (&Merger{}).Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(docs) != 1 || st.Documents != 1 {
		t.Fatalf("got=%d docs, want 1", len(docs))
	}
	d := docs[0]
	if d.DishFingerprint != "chicken gumbo" {
		t.Fatalf("fingerprint=%v, want chicken gumbo", d.DishFingerprint)
	}
	if d.DishNormalizedName != "chicken gumbo" {
		t.Fatalf("normalized=%v", d.DishNormalizedName)
	}
	if d.DishName != "Chicken Gumbo" {
		t.Fatalf("name=%v", d.DishName)
	}
	if s, _ := d.DishURI.(string); !strings.HasSuffix(s, "/dishes/1") {
		t.Fatalf("dish_uri=%v", d.DishURI)
	}
	if d.ItemURI != "http://menus.nypl.org/menu_items/10/edit" {
		t.Fatalf("item_uri=%v", d.ItemURI)
	}
	if d.MenuPageURI != "http://menus.nypl.org/menu_pages/20" || d.MenuURI != "http://menus.nypl.org/menus/30" {
		t.Fatalf("uris=%v %v", d.MenuPageURI, d.MenuURI)
	}
	if d.ItemID != int64(10) || d.DishID != 1 || d.MenuPageID != 20 || d.MenuID != 30 {
		t.Fatalf("ids=%v %d %d %d", d.ItemID, d.DishID, d.MenuPageID, d.MenuID)
	}
	if d.ItemCreatedAt != "20110328T150044+0000" {
		t.Fatalf("created=%v", d.ItemCreatedAt)
	}
	if d.MenuSponsor != "HOTEL EASTMAN" || d.MenuDate != "1900-04-15" {
		t.Fatalf("menu fields=%v %v", d.MenuSponsor, d.MenuDate)
	}
	if d.PageImageFullHeight != 7230.0 || d.ItemXPos != 0.11 {
		t.Fatalf("measures=%v %v", d.PageImageFullHeight, d.ItemXPos)
	}
	if d.MenuPageNumber != int64(1) || d.DishTimesAppeared != int64(5) {
		t.Fatalf("ints=%v %v", d.MenuPageNumber, d.DishTimesAppeared)
	}
}

func TestMerge_JoinSemantics(t *testing.T) {
	t.Parallel()

	in := tables(
		[][]string{
			{"1", "Consomme", "", "2", "4"},
			{"2", "Never Served", "", "0", "0"},
			{"3", "Oysters", "", "1", "1"},
		},
		[][]string{
			{"100", "20", "", "1", ts, ts, "", ""},     // ok
			{"101", "20", "", "3", ts, ts, "", ""},     // ok
			{"102", "20", "", "2", ts, ts, "", ""},     // zero-appearance dish
			{"103", "99", "", "1", ts, ts, "", ""},     // no page
			{"104", "21", "", "1", ts, ts, "", ""},     // page without menu
			{"105", "22", "", "1", ts, ts, "", ""},     // page 22 twice
			{"106", "", "", "1", ts, ts, "", ""},       // missing page key
			{"107", "20.0", "", "1.0", ts, ts, "", ""}, // float-spelled keys
		},
		[][]string{
			{"20", "30", "1", "", "", "", ""},
			{"21", "31", "1", "", "", "", ""},
			{"22", "30", "2", "", "", "", ""},
			{"22", "30", "3", "", "", "", ""},
		},
		[][]string{{"30", "", "A", "B", "1900-01-01", "1", "1"}},
	)

	docs, st, err := (&Merger{}).Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	var got []string
	for _, d := range docs {
		if d.DishID == 2 {
			t.Fatalf("zero-appearance dish joined: %+v", d)
		}
		got = append(got, d.ItemURI.(string)[len(DefaultBaseURL):])
	}
	want := []string{
		"/menu_items/100/edit",
		"/menu_items/101/edit",
		"/menu_items/105/edit",
		"/menu_items/105/edit",
		"/menu_items/107/edit",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got=%v, want %v", got, want)
	}
	if st.ZeroAppearanceDishes != 1 {
		t.Fatalf("zero=%d, want 1", st.ZeroAppearanceDishes)
	}
	if st.UnmatchedPage != 2 || st.UnmatchedMenu != 1 || st.UnmatchedDish != 1 {
		t.Fatalf("unmatched page=%d menu=%d dish=%d, want 2/1/1", st.UnmatchedPage, st.UnmatchedMenu, st.UnmatchedDish)
	}
	if st.DuplicateItemIDs != 1 {
		t.Fatalf("duplicate item ids=%d, want 1", st.DuplicateItemIDs)
	}
	if docs[2].MenuPageNumber != int64(2) || docs[3].MenuPageNumber != int64(3) {
		t.Fatalf("fan-out order=%v %v", docs[2].MenuPageNumber, docs[3].MenuPageNumber)
	}
}

func TestMerge_Stats(t *testing.T) {
	t.Parallel()

	in := tables(
		[][]string{
			{"1", "Beef Stew", "", "1", "1"},
			{"2", "beef  stew", "", "1", "1"},
			{"3", "Stew, Beef", "", "1", "1"},
		},
		nil, nil, nil,
	)

	_, st, err := (&Merger{}).Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if st.DistinctNames != 3 || st.DistinctNormalized != 2 || st.DistinctFingerprints != 1 {
		t.Fatalf("got=%d/%d/%d, want 3/2/1", st.DistinctNames, st.DistinctNormalized, st.DistinctFingerprints)
	}
	if st.DishRows != 3 || st.Documents != 0 {
		t.Fatalf("rows=%d docs=%d", st.DishRows, st.Documents)
	}
}

func TestMerge_BadDateAborts(t *testing.T) {
	t.Parallel()

	in := tables(
		[][]string{{"1", "Tea", "", "1", "1"}},
		[][]string{{"10", "20", "", "1", "28/03/2011", ts, "", ""}},
		nil, nil,
	)

	_, _, err := (&Merger{}).Merge(in)
	var pe *datefmt.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err=%v, want ParseError", err)
	}
	if pe.Value != "28/03/2011" {
		t.Fatalf("value=%q", pe.Value)
	}
}

func TestMerge_LenientMeasuresAndBaseURL(t *testing.T) {
	t.Parallel()

	in := tables(
		[][]string{{"1", "Tea", "", "1", "1"}},
		[][]string{{"x10", "20", "", "1", ts, ts, "", ""}},
		[][]string{{"20", "30", "", "psnypl_rbk_1041", "n/a", "", ""}},
		[][]string{{"30", "", "", "", "", "", ""}},
	)

	docs, _, err := (&Merger{BaseURL: "https://example.org/"}).Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got=%d docs, want 1", len(docs))
	}
	d := docs[0]
	if d.PageImageFullHeight != "n/a" || d.PageImageFullWidth != nil {
		t.Fatalf("measures=%v %v", d.PageImageFullHeight, d.PageImageFullWidth)
	}
	if d.ImageID != "psnypl_rbk_1041" {
		t.Fatalf("image_id=%v", d.ImageID)
	}
	if d.ItemID != "x10" || d.ItemURI != nil {
		t.Fatalf("item id=%v uri=%v", d.ItemID, d.ItemURI)
	}
	if d.DishURI != "https://example.org/dishes/1" {
		t.Fatalf("dish_uri=%v", d.DishURI)
	}
	if d.MenuSponsor != nil || d.MenuDate != nil || d.MenuPageCount != nil {
		t.Fatalf("missing menu fields not nil: %+v", d)
	}
}
