package reward

// Item is one avatar cosmetic. Slot groups mutually exclusive items; Level
// gates the unlock at Level*10 lifetime logs.
type Item struct {
	ID    string `json:"id"`
	Slot  string `json:"slot"`
	Level int    `json:"level"`
	Name  string `json:"name"`
}

// Catalog is the full cosmetic set, cheapest first.
var Catalog = []Item{
	{ID: "cap", Slot: "head", Level: 1, Name: "Cap"},
	{ID: "shades", Slot: "eyes", Level: 1, Name: "Shades"},
	{ID: "chef-hat", Slot: "head", Level: 2, Name: "Chef Hat"},
	{ID: "monocle", Slot: "eyes", Level: 3, Name: "Monocle"},
	{ID: "scarf", Slot: "neck", Level: 3, Name: "Scarf"},
	{ID: "crown", Slot: "head", Level: 5, Name: "Crown"},
	{ID: "bowtie", Slot: "neck", Level: 6, Name: "Bow Tie"},
	{ID: "halo", Slot: "head", Level: 10, Name: "Halo"},
}

// ItemByID looks up a catalog item.
func ItemByID(id string) (Item, bool) {
	for _, item := range Catalog {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// RequiredLogs is the lifetime log count an item demands.
func (i Item) RequiredLogs() int {
	return i.Level * 10
}

// EligibleItems returns every catalog item reachable at the given lifetime
// log count. Idempotent by construction — the session store's set-union
// unlock makes re-awarding a no-op.
func EligibleItems(lifetimeLogs int) []Item {
	var items []Item
	for _, item := range Catalog {
		if lifetimeLogs >= item.RequiredLogs() {
			items = append(items, item)
		}
	}
	return items
}
