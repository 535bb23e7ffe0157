package lookup

import "slices"

// Selection is the state of the three dependent selectors.
type Selection struct {
	InventoryType string `json:"inventoryType"`
	Department    string `json:"department"`
	ItemsName     string `json:"itemsName"`
}

// Options are the valid choices for a selection.
type Options struct {
	InventoryTypes []string `json:"inventoryTypes"`
	Departments    []string `json:"departments"`
	Items          []string `json:"items"`
	Units          []string `json:"units"`
}

// WithType changes the type. A department no longer offered for the type
// is cleared together with the item.
func (t Table) WithType(sel Selection, inventoryType string) Selection {
	sel.InventoryType = inventoryType
	if sel.Department != "" && !slices.Contains(t.DepartmentsFor(inventoryType), sel.Department) {
		sel.Department = ""
		sel.ItemsName = ""
		return sel
	}
	return t.settleItem(sel)
}

// WithDepartment changes the department and clears an item that does not
// belong to it.
func (t Table) WithDepartment(sel Selection, department string) Selection {
	sel.Department = department
	return t.settleItem(sel)
}

// WithItem sets the item. Free-typed items are kept as entered.
func (t Table) WithItem(sel Selection, item string) Selection {
	if sel.Department == "" {
		sel.ItemsName = ""
		return sel
	}
	sel.ItemsName = item
	return sel
}

// OptionsFor returns the choices available at sel.
func (t Table) OptionsFor(sel Selection) Options {
	return Options{
		InventoryTypes: t.InventoryTypes(),
		Departments:    t.DepartmentsFor(sel.InventoryType),
		Items:          t.ItemsFor(sel.Department),
		Units:          t.Units(),
	}
}

func (t Table) settleItem(sel Selection) Selection {
	if sel.ItemsName == "" {
		return sel
	}
	if sel.Department == "" || !slices.Contains(t.ItemsFor(sel.Department), sel.ItemsName) {
		sel.ItemsName = ""
	}
	return sel
}
