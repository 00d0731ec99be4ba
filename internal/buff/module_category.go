package buff

// CategoryModule tags set names with categories and supports bulk removal
// of every active set in a category through the manager's normal removal
// path.
type CategoryModule struct {
	BaseModule
	categories map[string]string // set name -> category
}

// NewCategoryModule creates an empty category module.
func NewCategoryModule() *CategoryModule {
	return &CategoryModule{categories: make(map[string]string)}
}

// SetCategory tags a set name with a category.
func (c *CategoryModule) SetCategory(name, category string) {
	c.categories[name] = category
}

// Category returns the category of a set name.
func (c *CategoryModule) Category(name string) (string, bool) {
	cat, ok := c.categories[baseStackName(name)]
	return cat, ok
}

// RemoveCategory removes every active set tagged with the category and
// returns how many were removed. Independent stack entries ("name#n")
// match through their base name.
func (c *CategoryModule) RemoveCategory(b *Manager, category string) int {
	var names []string
	for _, name := range b.Names() {
		if cat, ok := c.Category(name); ok && cat == category {
			names = append(names, name)
		}
	}
	for _, name := range names {
		b.Remove(name)
	}
	return len(names)
}
