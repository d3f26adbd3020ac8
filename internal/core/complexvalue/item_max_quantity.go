package complexvalue

import "arkman.dev/cli/internal/core/document"

// Quantity caps the stack size of an item class.
type Quantity struct {
	MaxItemQuantity  int64
	IgnoreMultiplier bool
}

func (*Quantity) Kind() Kind { return KindQuantity }

func (q *Quantity) Literal() string {
	var b literalBuilder
	b.integer("MaxItemQuantity", &q.MaxItemQuantity)
	b.boolean("bIgnoreMultiplier", &q.IgnoreMultiplier)
	return b.String()
}

func (q *Quantity) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.integer("MaxItemQuantity", &q.MaxItemQuantity)
	b.boolean("bIgnoreMultiplier", &q.IgnoreMultiplier)
	return b.m
}

func QuantityFromMapping(m *document.Map) (*Quantity, error) {
	r := newFieldReader(KindQuantity, m)
	r.require("MaxItemQuantity", "bIgnoreMultiplier")
	limit, ignore := r.integer("MaxItemQuantity"), r.boolean("bIgnoreMultiplier")
	if r.err != nil {
		return nil, r.err
	}
	return &Quantity{MaxItemQuantity: *limit, IgnoreMultiplier: *ignore}, nil
}

// ItemMaxQuantityOverride is the value of ConfigOverrideItemMaxQuantity.
type ItemMaxQuantityOverride struct {
	ItemClassString string
	Quantity        *Quantity
}

func (*ItemMaxQuantityOverride) Kind() Kind { return KindItemMaxQuantityOverride }

func (o *ItemMaxQuantityOverride) Literal() string {
	var b literalBuilder
	b.quoted("ItemClassString", &o.ItemClassString)
	b.nested("Quantity", o.Quantity)
	return b.String()
}

func (o *ItemMaxQuantityOverride) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("ItemClassString", &o.ItemClassString)
	b.nested("Quantity", o.Quantity)
	return b.m
}

func ItemMaxQuantityOverrideFromMapping(m *document.Map) (*ItemMaxQuantityOverride, error) {
	r := newFieldReader(KindItemMaxQuantityOverride, m)
	r.require("ItemClassString", "Quantity")
	class := r.str("ItemClassString")
	quantity := readNested(r, "Quantity", QuantityFromMapping)
	if r.err != nil {
		return nil, r.err
	}
	return &ItemMaxQuantityOverride{ItemClassString: *class, Quantity: quantity}, nil
}
