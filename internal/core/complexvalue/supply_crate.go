package complexvalue

import (
	"fmt"

	"arkman.dev/cli/internal/core/document"
)

// BlueprintTag prefixes blueprint paths in Items lists.
const BlueprintTag = "BlueprintGeneratedClass"

// ItemEntry is one weighted entry of an item set.
type ItemEntry struct {
	ItemEntryName                                     *string
	EntryWeight                                       *float64
	Items                                             []string
	ItemClassStrings                                  []string
	ItemsWeights                                      []float64
	ItemsMinQuantities                                []float64
	ItemsMaxQuantities                                []float64
	GiveRequiresMinimumCharacterLevel                 *int64
	GiveExtraItemQuantityPercentByOwnerCharacterLevel *float64
	MinQuantity                                       *float64
	MaxQuantity                                       *float64
	QuantityPower                                     *float64
	MinQuality                                        *float64
	MaxQuality                                        *float64
	QualityPower                                      *float64
	ForceBlueprint                                    *bool
	ChanceToBeBlueprintOverride                       *float64
	ChanceToActuallyGiveItem                          *float64
	RequiresMinQuality                                *float64
	ActualItemRandomWithoutReplacement                *bool
}

func (*ItemEntry) Kind() Kind { return KindItemEntry }

// Validate checks that exactly one of Items and ItemClassStrings is set and
// that ItemsWeights matches its length.
func (e *ItemEntry) Validate() error {
	hasItems, hasClasses := len(e.Items) > 0, len(e.ItemClassStrings) > 0

	switch {
	case hasItems && hasClasses:
		return &ConstructionError{Variant: KindItemEntry, Reason: "Items and ItemClassStrings are mutually exclusive"}
	case !hasItems && !hasClasses:
		return &ConstructionError{Variant: KindItemEntry, Reason: "one of Items or ItemClassStrings is required"}
	}

	populated, count := "Items", len(e.Items)
	if hasClasses {
		populated, count = "ItemClassStrings", len(e.ItemClassStrings)
	}
	if e.ItemsWeights != nil && len(e.ItemsWeights) != count {
		return &ConstructionError{
			Variant: KindItemEntry,
			Field:   "ItemsWeights",
			Reason:  fmt.Sprintf("has %d weights but %s has %d entries", len(e.ItemsWeights), populated, count),
		}
	}
	return nil
}

func (e *ItemEntry) Literal() string {
	var b literalBuilder
	b.quoted("ItemEntryName", e.ItemEntryName)
	b.fixed("EntryWeight", e.EntryWeight, 6)
	b.list("Items", wrapEach(e.Items, BlueprintTag+"'", "'"))
	b.list("ItemClassStrings", wrapEach(e.ItemClassStrings, "'", "'"))
	b.list("ItemsWeights", fixedEach(e.ItemsWeights, 6))
	b.list("ItemsMinQuantities", fixedEach(e.ItemsMinQuantities, 6))
	b.list("ItemsMaxQuantities", fixedEach(e.ItemsMaxQuantities, 6))
	b.integer("GiveRequiresMinimumCharacterLevel", e.GiveRequiresMinimumCharacterLevel)
	b.fixed("GiveExtraItemQuantityPercentByOwnerCharacterLevel", e.GiveExtraItemQuantityPercentByOwnerCharacterLevel, 6)
	b.fixed("MinQuantity", e.MinQuantity, 6)
	b.fixed("MaxQuantity", e.MaxQuantity, 6)
	b.fixed("QuantityPower", e.QuantityPower, 6)
	b.fixed("MinQuality", e.MinQuality, 6)
	b.fixed("MaxQuality", e.MaxQuality, 6)
	b.fixed("QualityPower", e.QualityPower, 6)
	b.boolean("bForceBlueprint", e.ForceBlueprint)
	b.fixed("ChanceToBeBlueprintOverride", e.ChanceToBeBlueprintOverride, 6)
	b.fixed("ChanceToActuallyGiveItem", e.ChanceToActuallyGiveItem, 6)
	b.fixed("RequiresMinQuality", e.RequiresMinQuality, 6)
	b.boolean("bActualItemRandomWithoutReplacement", e.ActualItemRandomWithoutReplacement)
	return b.String()
}

func (e *ItemEntry) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("ItemEntryName", e.ItemEntryName)
	b.float("EntryWeight", e.EntryWeight)
	b.strList("Items", e.Items)
	b.strList("ItemClassStrings", e.ItemClassStrings)
	b.floatList("ItemsWeights", e.ItemsWeights)
	b.floatList("ItemsMinQuantities", e.ItemsMinQuantities)
	b.floatList("ItemsMaxQuantities", e.ItemsMaxQuantities)
	b.integer("GiveRequiresMinimumCharacterLevel", e.GiveRequiresMinimumCharacterLevel)
	b.float("GiveExtraItemQuantityPercentByOwnerCharacterLevel", e.GiveExtraItemQuantityPercentByOwnerCharacterLevel)
	b.float("MinQuantity", e.MinQuantity)
	b.float("MaxQuantity", e.MaxQuantity)
	b.float("QuantityPower", e.QuantityPower)
	b.float("MinQuality", e.MinQuality)
	b.float("MaxQuality", e.MaxQuality)
	b.float("QualityPower", e.QualityPower)
	b.boolean("bForceBlueprint", e.ForceBlueprint)
	b.float("ChanceToBeBlueprintOverride", e.ChanceToBeBlueprintOverride)
	b.float("ChanceToActuallyGiveItem", e.ChanceToActuallyGiveItem)
	b.float("RequiresMinQuality", e.RequiresMinQuality)
	b.boolean("bActualItemRandomWithoutReplacement", e.ActualItemRandomWithoutReplacement)
	return b.m
}

// ItemEntryFromMapping builds and validates an ItemEntry.
func ItemEntryFromMapping(m *document.Map) (*ItemEntry, error) {
	r := newFieldReader(KindItemEntry, m)
	e := &ItemEntry{
		ItemEntryName:                     r.str("ItemEntryName"),
		EntryWeight:                       r.float("EntryWeight"),
		Items:                             r.strList("Items"),
		ItemClassStrings:                  r.strList("ItemClassStrings"),
		ItemsWeights:                      r.floatList("ItemsWeights"),
		ItemsMinQuantities:                r.floatList("ItemsMinQuantities"),
		ItemsMaxQuantities:                r.floatList("ItemsMaxQuantities"),
		GiveRequiresMinimumCharacterLevel: r.integer("GiveRequiresMinimumCharacterLevel"),
		GiveExtraItemQuantityPercentByOwnerCharacterLevel: r.float("GiveExtraItemQuantityPercentByOwnerCharacterLevel"),
		MinQuantity:                        r.float("MinQuantity"),
		MaxQuantity:                        r.float("MaxQuantity"),
		QuantityPower:                      r.float("QuantityPower"),
		MinQuality:                         r.float("MinQuality"),
		MaxQuality:                         r.float("MaxQuality"),
		QualityPower:                       r.float("QualityPower"),
		ForceBlueprint:                     r.boolean("bForceBlueprint"),
		ChanceToBeBlueprintOverride:        r.float("ChanceToBeBlueprintOverride"),
		ChanceToActuallyGiveItem:           r.float("ChanceToActuallyGiveItem"),
		RequiresMinQuality:                 r.float("RequiresMinQuality"),
		ActualItemRandomWithoutReplacement: r.boolean("bActualItemRandomWithoutReplacement"),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ItemSet is a weighted group of item entries.
type ItemSet struct {
	SetName                       *string
	ItemEntries                   []*ItemEntry
	SetWeight                     *float64
	MinNumItems                   *float64
	MaxNumItems                   *float64
	NumItemsPower                 *float64
	ItemsRandomWithoutReplacement *bool
}

func (*ItemSet) Kind() Kind { return KindItemSet }

func (s *ItemSet) Literal() string {
	var b literalBuilder
	b.quoted("SetName", s.SetName)
	b.list("ItemEntries", literalEach(s.ItemEntries))
	b.fixed("SetWeight", s.SetWeight, 6)
	b.fixed("MinNumItems", s.MinNumItems, 6)
	b.fixed("MaxNumItems", s.MaxNumItems, 6)
	b.fixed("NumItemsPower", s.NumItemsPower, 6)
	b.boolean("bItemsRandomWithoutReplacement", s.ItemsRandomWithoutReplacement)
	return b.String()
}

func (s *ItemSet) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("SetName", s.SetName)
	mapEach(b, "ItemEntries", s.ItemEntries)
	b.float("SetWeight", s.SetWeight)
	b.float("MinNumItems", s.MinNumItems)
	b.float("MaxNumItems", s.MaxNumItems)
	b.float("NumItemsPower", s.NumItemsPower)
	b.boolean("bItemsRandomWithoutReplacement", s.ItemsRandomWithoutReplacement)
	return b.m
}

func ItemSetFromMapping(m *document.Map) (*ItemSet, error) {
	r := newFieldReader(KindItemSet, m)
	s := &ItemSet{
		SetName:                       r.str("SetName"),
		ItemEntries:                   readNestedList(r, "ItemEntries", ItemEntryFromMapping),
		SetWeight:                     r.float("SetWeight"),
		MinNumItems:                   r.float("MinNumItems"),
		MaxNumItems:                   r.float("MaxNumItems"),
		NumItemsPower:                 r.float("NumItemsPower"),
		ItemsRandomWithoutReplacement: r.boolean("bItemsRandomWithoutReplacement"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return s, nil
}

// SupplyCrateItemsOverride is the value of ConfigOverrideSupplyCrateItems.
type SupplyCrateItemsOverride struct {
	SupplyCrateClassString                string
	MinItemSets                           *int64
	MaxItemSets                           *int64
	NumItemSetsPower                      *float64
	SetsRandomWithoutReplacement          *bool
	ItemSets                              []*ItemSet
	AppendItemSets                        *bool
	AppendPreventIncreasingMinMaxItemSets *bool
}

func (*SupplyCrateItemsOverride) Kind() Kind { return KindSupplyCrateItemsOverride }

func (o *SupplyCrateItemsOverride) Literal() string {
	var b literalBuilder
	b.quoted("SupplyCrateClassString", &o.SupplyCrateClassString)
	b.integer("MinItemSets", o.MinItemSets)
	b.integer("MaxItemSets", o.MaxItemSets)
	b.shortest("NumItemSetsPower", o.NumItemSetsPower)
	b.boolean("bSetsRandomWithoutReplacement", o.SetsRandomWithoutReplacement)
	b.list("ItemSets", literalEach(o.ItemSets))
	b.boolean("bAppendItemSets", o.AppendItemSets)
	b.boolean("bAppendPreventIncreasingMinMaxItemSets", o.AppendPreventIncreasingMinMaxItemSets)
	return b.String()
}

func (o *SupplyCrateItemsOverride) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("SupplyCrateClassString", &o.SupplyCrateClassString)
	b.integer("MinItemSets", o.MinItemSets)
	b.integer("MaxItemSets", o.MaxItemSets)
	b.float("NumItemSetsPower", o.NumItemSetsPower)
	b.boolean("bSetsRandomWithoutReplacement", o.SetsRandomWithoutReplacement)
	mapEach(b, "ItemSets", o.ItemSets)
	b.boolean("bAppendItemSets", o.AppendItemSets)
	b.boolean("bAppendPreventIncreasingMinMaxItemSets", o.AppendPreventIncreasingMinMaxItemSets)
	return b.m
}

func SupplyCrateItemsOverrideFromMapping(m *document.Map) (*SupplyCrateItemsOverride, error) {
	r := newFieldReader(KindSupplyCrateItemsOverride, m)
	r.require("SupplyCrateClassString")
	o := &SupplyCrateItemsOverride{
		MinItemSets:                           r.integer("MinItemSets"),
		MaxItemSets:                           r.integer("MaxItemSets"),
		NumItemSetsPower:                      r.float("NumItemSetsPower"),
		SetsRandomWithoutReplacement:          r.boolean("bSetsRandomWithoutReplacement"),
		ItemSets:                              readNestedList(r, "ItemSets", ItemSetFromMapping),
		AppendItemSets:                        r.boolean("bAppendItemSets"),
		AppendPreventIncreasingMinMaxItemSets: r.boolean("bAppendPreventIncreasingMinMaxItemSets"),
	}
	if class := r.str("SupplyCrateClassString"); class != nil {
		o.SupplyCrateClassString = *class
	}
	if r.err != nil {
		return nil, r.err
	}
	return o, nil
}
