// internal/accessibility/attributes.go
package accessibility

// Attribute is one name/value pair of an Attributes set.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an insertion-ordered attribute map. Setting an existing name
// replaces its value in place.
type Attributes struct {
	order []string
	vals  map[string]string
}

func newAttributes() *Attributes {
	return &Attributes{vals: make(map[string]string)}
}

func (a *Attributes) Set(name, value string) {
	if _, ok := a.vals[name]; !ok {
		a.order = append(a.order, name)
	}
	a.vals[name] = value
}

func (a *Attributes) Get(name string) (string, bool) {
	v, ok := a.vals[name]
	return v, ok
}

func (a *Attributes) Len() int { return len(a.order) }

// List returns the attributes in insertion order.
func (a *Attributes) List() []Attribute {
	out := make([]Attribute, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, Attribute{Name: name, Value: a.vals[name]})
	}
	return out
}
