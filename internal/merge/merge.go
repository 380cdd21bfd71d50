// Package merge turns the four source tables into MenuDocuments.
//
// The steps run in a fixed order and each one logs what it dropped:
//
//	dish filter and projection → name normalization and fingerprint →
//	item dates and projection → page projection → menu projection →
//	item⋈page⋈menu⋈dish → output names, URIs and lenient id casts.
package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/trevormunoz/dumbwaiter/internal/datefmt"
	"github.com/trevormunoz/dumbwaiter/internal/document"
	"github.com/trevormunoz/dumbwaiter/internal/source"
	"github.com/trevormunoz/dumbwaiter/internal/table"
	"github.com/trevormunoz/dumbwaiter/internal/textnorm"
)

// DefaultBaseURL is the host the synthesized URIs point at.
const DefaultBaseURL = "http://menus.nypl.org"

// Stats summarizes one merge.
type Stats struct {
	DishRows             int
	ZeroAppearanceDishes int
	DistinctNames        int
	DistinctNormalized   int
	DistinctFingerprints int

	MenuItemRows int
	MenuPageRows int
	MenuRows     int

	// Rows of the running join result that found no partner at each step.
	UnmatchedPage int
	UnmatchedMenu int
	UnmatchedDish int

	Documents int
	// Documents repeating an item id already emitted; the index keeps one.
	DuplicateItemIDs int
}

// Merger holds the merge settings.
type Merger struct {
	BaseURL string
	Log     *slog.Logger
}

type dish struct {
	id         int64
	name       any
	menus      any
	times      any
	normalized string
	fp         string
}

type item struct {
	id        any
	pageKey   string
	dishKey   string
	xpos      any
	ypos      any
	createdAt string
	updatedAt string
}

type page struct {
	id      int64
	menuKey string
	number  any
	imageID any
	height  any
	width   any
	uuid    any
}

type menu struct {
	id        int64
	sponsor   any
	location  any
	date      any
	pageCount any
	dishCount any
}

// Merge runs every step over tables. A malformed item timestamp aborts the
// merge with a wrapped *datefmt.ParseError.
func (m *Merger) Merge(tables *source.Tables) ([]document.MenuDocument, Stats, error) {
	log := m.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	base := strings.TrimRight(m.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	var st Stats

	dishes := m.dishes(log, tables.Dish, &st)
	items, err := m.items(log, tables.MenuItem, &st)
	if err != nil {
		return nil, st, err
	}
	pages := m.pages(log, tables.MenuPage, &st)
	menus := m.menus(log, tables.Menu, &st)

	pageIx := make(map[int64][]int, len(pages))
	for i, p := range pages {
		pageIx[p.id] = append(pageIx[p.id], i)
	}
	menuIx := make(map[int64][]int, len(menus))
	for i, mn := range menus {
		menuIx[mn.id] = append(menuIx[mn.id], i)
	}
	dishIx := make(map[int64][]int, len(dishes))
	for i, d := range dishes {
		dishIx[d.id] = append(dishIx[d.id], i)
	}

	var docs []document.MenuDocument
	for _, it := range items {
		pk, ok := table.ParseKey(it.pageKey)
		pageRows := pageIx[pk]
		if !ok || len(pageRows) == 0 {
			st.UnmatchedPage++
			continue
		}
		for _, pi := range pageRows {
			p := pages[pi]
			mk, ok := table.ParseKey(p.menuKey)
			menuRows := menuIx[mk]
			if !ok || len(menuRows) == 0 {
				st.UnmatchedMenu++
				continue
			}
			for _, mi := range menuRows {
				dk, ok := table.ParseKey(it.dishKey)
				dishRows := dishIx[dk]
				if !ok || len(dishRows) == 0 {
					st.UnmatchedDish++
					continue
				}
				for _, di := range dishRows {
					docs = append(docs, build(base, &dishes[di], &it, &p, &menus[mi]))
				}
			}
		}
	}
	st.Documents = len(docs)

	seen := make(map[any]struct{}, len(docs))
	for i := range docs {
		if _, dup := seen[docs[i].ItemID]; dup {
			st.DuplicateItemIDs++
			continue
		}
		seen[docs[i].ItemID] = struct{}{}
	}
	if st.DuplicateItemIDs > 0 {
		log.Warn("documents share an item id; the index keeps one per id",
			"duplicates", st.DuplicateItemIDs,
			"unique", len(seen),
		)
	}

	log.Info("join complete",
		"documents", st.Documents,
		"unmatched_page", st.UnmatchedPage,
		"unmatched_menu", st.UnmatchedMenu,
		"unmatched_dish", st.UnmatchedDish,
	)
	return docs, st, nil
}

func build(base string, d *dish, it *item, p *page, mn *menu) document.MenuDocument {
	return document.MenuDocument{
		DishID:     d.id,
		MenuPageID: p.id,
		MenuID:     mn.id,
		ItemID:     it.id,

		MenuSponsor:   mn.sponsor,
		MenuLocation:  mn.location,
		MenuDate:      mn.date,
		MenuPageCount: mn.pageCount,
		MenuDishCount: mn.dishCount,

		ItemXPos:      it.xpos,
		ItemYPos:      it.ypos,
		ItemCreatedAt: table.String(it.createdAt),
		ItemUpdatedAt: table.String(it.updatedAt),

		MenuPageNumber:      p.number,
		ImageID:             p.imageID,
		PageImageFullHeight: p.height,
		PageImageFullWidth:  p.width,
		PageImageUUID:       p.uuid,

		DishName:           d.name,
		DishMenusAppeared:  d.menus,
		DishTimesAppeared:  d.times,
		DishNormalizedName: table.String(d.normalized),
		DishFingerprint:    table.String(d.fp),

		DishURI:     fmt.Sprintf("%s/dishes/%d", base, d.id),
		ItemURI:     itemURI(base, it.id),
		MenuPageURI: fmt.Sprintf("%s/menu_pages/%d", base, p.id),
		MenuURI:     fmt.Sprintf("%s/menus/%d", base, mn.id),
	}
}

// itemURI is nil when the item id is not an integer.
func itemURI(base string, id any) any {
	n, ok := id.(int64)
	if !ok {
		return nil
	}
	return fmt.Sprintf("%s/menu_items/%d/edit", base, n)
}

func logDiscarded(log *slog.Logger, t *table.Table, allow []string, keep ...string) {
	for _, c := range t.Discarded(allow, keep...) {
		log.Info("discarding column", "table", t.Name, "column", c)
	}
}

func (m *Merger) dishes(log *slog.Logger, t *table.Table, st *Stats) []dish {
	st.DishRows = t.Len()
	idC, _ := t.Col("id")
	nameC, _ := t.Col("name")
	menusC, _ := t.Col("menus_appeared")
	timesC, _ := t.Col("times_appeared")

	kept := make([]dish, 0, t.Len())
	var names, normalized, fps []string
	badKeys := 0
	for i := range t.Rows {
		if table.IsZero(t.Get(i, timesC)) {
			st.ZeroAppearanceDishes++
			continue
		}
		id, ok := table.ParseKey(t.Get(i, idC))
		if !ok {
			badKeys++
			continue
		}
		name := t.Get(i, nameC)
		norm := textnorm.Normalize(name)
		d := dish{
			id:         id,
			name:       table.String(name),
			menus:      table.LenientInt(t.Get(i, menusC)),
			times:      table.LenientInt(t.Get(i, timesC)),
			normalized: norm,
			fp:         textnorm.Fingerprint(norm),
		}
		kept = append(kept, d)
		names = append(names, name)
		normalized = append(normalized, d.normalized)
		fps = append(fps, d.fp)
	}

	log.Info("dishes loaded", "rows", st.DishRows)
	log.Info("dishes that do not appear on any menu", "count", st.ZeroAppearanceDishes)
	if badKeys > 0 {
		log.Warn("dishes without a usable id", "count", badKeys)
	}
	logDiscarded(log, t, []string{"name", "menus_appeared", "times_appeared"}, "id")

	st.DistinctNames = textnorm.Distinct(names)
	log.Info("potentially-unique dish names", "count", st.DistinctNames)
	st.DistinctNormalized = textnorm.Distinct(normalized)
	log.Info("potentially-unique normalized names", "count", st.DistinctNormalized)
	st.DistinctFingerprints = textnorm.Distinct(fps)
	log.Info("potentially-unique fingerprints", "count", st.DistinctFingerprints)
	return kept
}

func (m *Merger) items(log *slog.Logger, t *table.Table, st *Stats) ([]item, error) {
	st.MenuItemRows = t.Len()
	idC, _ := t.Col("id")
	pageC, _ := t.Col("menu_page_id")
	dishC, _ := t.Col("dish_id")
	xC, _ := t.Col("xpos")
	yC, _ := t.Col("ypos")
	createdC, _ := t.Col("created_at")
	updatedC, _ := t.Col("updated_at")

	out := make([]item, 0, t.Len())
	for i := range t.Rows {
		created, err := datefmt.Canonicalize(t.Get(i, createdC))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: created_at: %w", t.Name, i+1, err)
		}
		updated, err := datefmt.Canonicalize(t.Get(i, updatedC))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: updated_at: %w", t.Name, i+1, err)
		}
		out = append(out, item{
			id:        table.LenientInt(t.Get(i, idC)),
			pageKey:   t.Get(i, pageC),
			dishKey:   t.Get(i, dishC),
			xpos:      table.LenientFloat(t.Get(i, xC)),
			ypos:      table.LenientFloat(t.Get(i, yC)),
			createdAt: created,
			updatedAt: updated,
		})
	}

	log.Info("menu items loaded", "rows", st.MenuItemRows)
	logDiscarded(log, t, []string{"id", "menu_page_id", "xpos", "ypos", "created_at", "updated_at"}, "dish_id")
	return out, nil
}

func (m *Merger) pages(log *slog.Logger, t *table.Table, st *Stats) []page {
	st.MenuPageRows = t.Len()
	idC, _ := t.Col("id")
	menuC, _ := t.Col("menu_id")
	numC, _ := t.Col("page_number")
	imgC, _ := t.Col("image_id")
	hC, _ := t.Col("full_height")
	wC, _ := t.Col("full_width")
	uuidC, _ := t.Col("uuid")

	out := make([]page, 0, t.Len())
	for i := range t.Rows {
		id, ok := table.ParseKey(t.Get(i, idC))
		if !ok {
			continue
		}
		out = append(out, page{
			id:      id,
			menuKey: t.Get(i, menuC),
			number:  table.LenientInt(t.Get(i, numC)),
			imageID: table.LenientInt(t.Get(i, imgC)),
			height:  table.LenientFloat(t.Get(i, hC)),
			width:   table.LenientFloat(t.Get(i, wC)),
			uuid:    table.String(t.Get(i, uuidC)),
		})
	}

	log.Info("menu pages loaded", "rows", st.MenuPageRows)
	if n := st.MenuPageRows - len(out); n > 0 {
		log.Warn("menu pages without a usable id", "count", n)
	}
	logDiscarded(log, t, source.MenuPageColumns)
	return out
}

func (m *Merger) menus(log *slog.Logger, t *table.Table, st *Stats) []menu {
	st.MenuRows = t.Len()
	idC, _ := t.Col("id")
	sponsorC, _ := t.Col("sponsor")
	locC, _ := t.Col("location")
	dateC, _ := t.Col("date")
	pcC, _ := t.Col("page_count")
	dcC, _ := t.Col("dish_count")

	out := make([]menu, 0, t.Len())
	for i := range t.Rows {
		id, ok := table.ParseKey(t.Get(i, idC))
		if !ok {
			continue
		}
		out = append(out, menu{
			id:        id,
			sponsor:   table.String(t.Get(i, sponsorC)),
			location:  table.String(t.Get(i, locC)),
			date:      table.String(t.Get(i, dateC)),
			pageCount: table.LenientInt(t.Get(i, pcC)),
			dishCount: table.LenientFloat(t.Get(i, dcC)),
		})
	}

	log.Info("menus loaded", "rows", st.MenuRows)
	if n := st.MenuRows - len(out); n > 0 {
		log.Warn("menus without a usable id", "count", n)
	}
	logDiscarded(log, t, source.MenuColumns)
	return out
}
