// Package complexvalue models the structured option values of the ARK
// configuration dialect: supply crate overrides, item quantity overrides,
// spawn container overrides and dino spawn weights. Every variant renders to
// the dialect's inline parenthesised literal and converts to and from the
// generic document form.
package complexvalue

import (
	"errors"
	"fmt"

	"arkman.dev/cli/internal/core/document"
)

// Kind names a complex value variant.
type Kind string

const (
	KindItemEntry                     Kind = "ItemEntry"
	KindItemSet                       Kind = "ItemSet"
	KindSupplyCrateItemsOverride      Kind = "SupplyCrateItemsOverride"
	KindQuantity                      Kind = "Quantity"
	KindItemMaxQuantityOverride       Kind = "ItemMaxQuantityOverride"
	KindNPCSpawnEntry                 Kind = "NPCSpawnEntry"
	KindSpawnOffset                   Kind = "SpawnOffset"
	KindDifficultyLevelRange          Kind = "DifficultyLevelRange"
	KindNPCSpawnLimit                 Kind = "NPCSpawnLimit"
	KindSpawnEntriesContainerOverride Kind = "SpawnEntriesContainerOverride"
	KindDinoSpawnWeightMultiplier     Kind = "DinoSpawnWeightMultiplier"
)

// Value is implemented by every complex value variant.
type Value interface {
	Kind() Kind
	// Literal renders the value in the dialect's inline syntax.
	Literal() string
	// ToMapping converts the value into a generic mapping. Unset optional
	// fields are left out.
	ToMapping() *document.Map
}

// ErrConstruction matches every ConstructionError.
var ErrConstruction = errors.New("invalid complex value")

// ConstructionError reports why a variant could not be built from a mapping.
type ConstructionError struct {
	Variant Kind
	Field   string
	Reason  string
}

func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Variant, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Variant, e.Field, e.Reason)
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// optionKinds maps option names to the variant their values must hold.
var optionKinds = map[string]Kind{
	"ConfigOverrideSupplyCrateItems":         KindSupplyCrateItemsOverride,
	"ConfigOverrideItemMaxQuantity":          KindItemMaxQuantityOverride,
	"ConfigAddNPCSpawnEntriesContainer":      KindSpawnEntriesContainerOverride,
	"ConfigOverrideNPCSpawnEntriesContainer": KindSpawnEntriesContainerOverride,
	"ConfigSubtractNPCSpawnEntriesContainer": KindSpawnEntriesContainerOverride,
	"DinoSpawnWeightMultipliers":             KindDinoSpawnWeightMultiplier,
	"DinoSpawnWeightMultiplier":              KindDinoSpawnWeightMultiplier,
}

// KindForKey returns the variant registered for an option name.
func KindForKey(option string) (Kind, bool) {
	kind, ok := optionKinds[option]
	return kind, ok
}

// RegisteredKeys lists the option names that carry complex values.
func RegisteredKeys() []string {
	keys := make([]string, 0, len(optionKinds))
	for k := range optionKinds {
		keys = append(keys, k)
	}
	return keys
}

var builders = map[Kind]func(*document.Map) (Value, error){
	KindItemEntry:                     builder(ItemEntryFromMapping),
	KindItemSet:                       builder(ItemSetFromMapping),
	KindSupplyCrateItemsOverride:      builder(SupplyCrateItemsOverrideFromMapping),
	KindQuantity:                      builder(QuantityFromMapping),
	KindItemMaxQuantityOverride:       builder(ItemMaxQuantityOverrideFromMapping),
	KindNPCSpawnEntry:                 builder(NPCSpawnEntryFromMapping),
	KindSpawnOffset:                   builder(SpawnOffsetFromMapping),
	KindDifficultyLevelRange:          builder(DifficultyLevelRangeFromMapping),
	KindNPCSpawnLimit:                 builder(NPCSpawnLimitFromMapping),
	KindSpawnEntriesContainerOverride: builder(SpawnEntriesContainerOverrideFromMapping),
	KindDinoSpawnWeightMultiplier:     builder(DinoSpawnWeightMultiplierFromMapping),
}

func builder[T Value](fn func(*document.Map) (T, error)) func(*document.Map) (Value, error) {
	return func(m *document.Map) (Value, error) {
		v, err := fn(m)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// FromMapping builds the variant named by kind.
func FromMapping(kind Kind, m *document.Map) (Value, error) {
	build, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown complex value kind %q", kind)
	}
	return build(m)
}

// FromLiteral parses an inline literal and builds the variant named by kind.
func FromLiteral(kind Kind, text string) (Value, error) {
	parsed, err := ParseLiteral(text)
	if err != nil {
		return nil, err
	}
	m, ok := parsed.(*document.Map)
	if !ok {
		return nil, &ConstructionError{Variant: kind, Reason: "literal is not a keyed tuple"}
	}
	return FromMapping(kind, m)
}
