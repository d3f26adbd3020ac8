package complexvalue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"arkman.dev/cli/internal/core/document"
)

func ptr[T any](v T) *T { return &v }

func crateMapping() *document.Map {
	return document.MapOf(
		"SupplyCrateClassString", "X",
		"MinItemSets", int64(1),
		"MaxItemSets", int64(2),
		"ItemSets", []any{
			document.MapOf("ItemEntries", []any{
				document.MapOf("ItemClassStrings", []any{"A", "B"}),
			}),
		},
	)
}

func TestSupplyCrateItemsOverride_Literal(t *testing.T) {
	crate, err := SupplyCrateItemsOverrideFromMapping(crateMapping())
	require.NoError(t, err)

	assert.Equal(t,
		`(SupplyCrateClassString="X",MinItemSets=1,MaxItemSets=2,ItemSets=((ItemEntries=((ItemClassStrings=('A','B'))))))`,
		crate.Literal(),
	)
}

func TestSupplyCrateItemsOverride_FullLiteral(t *testing.T) {
	crate := &SupplyCrateItemsOverride{
		SupplyCrateClassString:       "SupplyCrate_Level03_C",
		MinItemSets:                  ptr(int64(1)),
		MaxItemSets:                  ptr(int64(1)),
		NumItemSetsPower:             ptr(1.0),
		SetsRandomWithoutReplacement: ptr(true),
		ItemSets: []*ItemSet{{
			SetName:       ptr("Tools"),
			SetWeight:     ptr(0.5),
			MinNumItems:   ptr(1.0),
			MaxNumItems:   ptr(2.0),
			NumItemsPower: ptr(1.0),
			ItemEntries: []*ItemEntry{{
				EntryWeight:    ptr(1.0),
				Items:          []string{"/Game/PrimalEarth/CoreBlueprints/Items/PrimalItem_WeaponPike.PrimalItem_WeaponPike"},
				MinQuantity:    ptr(1.0),
				MaxQuantity:    ptr(1.0),
				ForceBlueprint: ptr(false),
			}},
		}},
		AppendItemSets: ptr(false),
	}

	want := `(SupplyCrateClassString="SupplyCrate_Level03_C",MinItemSets=1,MaxItemSets=1,NumItemSetsPower=1.0,` +
		`bSetsRandomWithoutReplacement=True,ItemSets=((SetName="Tools",ItemEntries=((EntryWeight=1.000000,` +
		`Items=(BlueprintGeneratedClass'/Game/PrimalEarth/CoreBlueprints/Items/PrimalItem_WeaponPike.PrimalItem_WeaponPike'),` +
		`MinQuantity=1.000000,MaxQuantity=1.000000,bForceBlueprint=False)),SetWeight=0.500000,MinNumItems=1.000000,` +
		`MaxNumItems=2.000000,NumItemsPower=1.000000)),bAppendItemSets=False)`
	assert.Equal(t, want, crate.Literal())
}

func TestItemEntry_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		mapping *document.Map
		wantErr string
	}{
		{
			name:    "both_lists",
			mapping: document.MapOf("Items", []any{"/Game/A"}, "ItemClassStrings", []any{"A"}),
			wantErr: "mutually exclusive",
		},
		{
			name:    "neither_list",
			mapping: document.MapOf("EntryWeight", 1.0),
			wantErr: "one of Items or ItemClassStrings is required",
		},
		{
			name:    "empty_lists_count_as_absent",
			mapping: document.MapOf("Items", []any{}, "ItemClassStrings", []any{}),
			wantErr: "one of Items or ItemClassStrings is required",
		},
		{
			name:    "weights_length_mismatch",
			mapping: document.MapOf("ItemClassStrings", []any{"A", "B"}, "ItemsWeights", []any{1.0}),
			wantErr: "ItemEntry.ItemsWeights: has 1 weights but ItemClassStrings has 2 entries",
		},
		{
			name:    "weights_match_items",
			mapping: document.MapOf("Items", []any{"/Game/A", "/Game/B"}, "ItemsWeights", []any{1.0, int64(2)}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ItemEntryFromMapping(tt.mapping)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, []float64{1, 2}, entry.ItemsWeights)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConstruction))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromMapping_NestedListErrors(t *testing.T) {
	built, err := ItemSetFromMapping(document.MapOf(
		"ItemEntries", []any{document.MapOf("ItemClassStrings", []any{"A"})},
	))
	require.NoError(t, err)

	t.Run("mixed_mappings_and_built_values", func(t *testing.T) {
		m := document.MapOf(
			"SupplyCrateClassString", "X",
			"ItemSets", []any{built, document.MapOf("ItemEntries", []any{})},
		)
		_, err := SupplyCrateItemsOverrideFromMapping(m)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConstruction)
		assert.Contains(t, err.Error(), "ItemSets")
		assert.Contains(t, err.Error(), "mix")
	})

	t.Run("built_values_are_kept", func(t *testing.T) {
		m := document.MapOf("SupplyCrateClassString", "X", "ItemSets", []any{built})
		crate, err := SupplyCrateItemsOverrideFromMapping(m)
		require.NoError(t, err)
		assert.Same(t, built, crate.ItemSets[0])
	})

	t.Run("disallowed_element_type", func(t *testing.T) {
		m := document.MapOf("SupplyCrateClassString", "X", "ItemSets", []any{int64(3)})
		_, err := SupplyCrateItemsOverrideFromMapping(m)
		var ce *ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "ItemSets", ce.Field)
		assert.Contains(t, ce.Reason, "found int")
	})

	t.Run("nested_failure_names_path", func(t *testing.T) {
		m := document.MapOf(
			"SupplyCrateClassString", "X",
			"ItemSets", []any{
				document.MapOf("ItemEntries", []any{document.MapOf("EntryWeight", 1.0)}),
			},
		)
		_, err := SupplyCrateItemsOverrideFromMapping(m)
		var ce *ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, KindSupplyCrateItemsOverride, ce.Variant)
		assert.Equal(t, "ItemSets[0].ItemEntries[0]", ce.Field)
	})

	t.Run("wrong_scalar_type", func(t *testing.T) {
		_, err := NPCSpawnLimitFromMapping(document.MapOf("MaxPercentageOfDesiredNumToAllow", true))
		assert.EqualError(t, err, "NPCSpawnLimit.MaxPercentageOfDesiredNumToAllow: expected float, got bool")
	})
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		kind    Kind
		mapping *document.Map
		field   string
	}{
		{KindQuantity, document.MapOf("MaxItemQuantity", int64(100)), "bIgnoreMultiplier"},
		{KindItemMaxQuantityOverride, document.MapOf("Quantity", document.MapOf()), "ItemClassString"},
		{KindSupplyCrateItemsOverride, document.MapOf("MinItemSets", int64(1)), "SupplyCrateClassString"},
		{KindSpawnOffset, document.MapOf("X", 1.0, "Y", 2.0), "Z"},
		{KindSpawnEntriesContainerOverride, document.MapOf(), "NPCSpawnEntriesContainerClassString"},
		{KindDinoSpawnWeightMultiplier, document.MapOf("SpawnWeightMultiplier", 0.5), "DinoNameTag"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, err := FromMapping(tt.kind, tt.mapping)
			var ce *ConstructionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Equal(t, "required field is missing", ce.Reason)
		})
	}
}

func TestItemMaxQuantityOverride(t *testing.T) {
	v, err := FromMapping(KindItemMaxQuantityOverride, document.MapOf(
		"ItemClassString", "PrimalItemResource_Stone_C",
		"Quantity", document.MapOf("MaxItemQuantity", int64(300), "bIgnoreMultiplier", true),
	))
	require.NoError(t, err)

	assert.Equal(t,
		`(ItemClassString="PrimalItemResource_Stone_C",Quantity=(MaxItemQuantity=300,bIgnoreMultiplier=True))`,
		v.Literal(),
	)

	q := &Quantity{MaxItemQuantity: 5, IgnoreMultiplier: false}
	prebuilt, err := ItemMaxQuantityOverrideFromMapping(document.MapOf("ItemClassString", "A", "Quantity", q))
	require.NoError(t, err)
	assert.Same(t, q, prebuilt.Quantity)
}

func TestSpawnEntriesContainerOverride_Literal(t *testing.T) {
	v, err := FromMapping(KindSpawnEntriesContainerOverride, document.MapOf(
		"NPCSpawnEntriesContainerClassString", "DinoSpawnEntriesBeach_C",
		"NPCSpawnEntries", []any{document.MapOf(
			"AnEntryName", "Rex",
			"EntryWeight", 0.1,
			"NPCsToSpawnStrings", []any{"Rex_Character_BP_C"},
			"NPCsSpawnOffsets", []any{document.MapOf("X", 0.0, "Y", 0.0, "Z", 35.5)},
			"NPCsToSpawnPercentageChance", []any{1.0},
			"NPCDifficultyLevelRanges", []any{document.MapOf(
				"EnemyLevelsMin", []any{1.0},
				"EnemyLevelsMax", []any{int64(30)},
				"GameDifficulties", []any{0.0},
			)},
		)},
		"NPCSpawnLimits", []any{document.MapOf(
			"NPCClassString", "Rex_Character_BP_C",
			"MaxPercentageOfDesiredNumToAllow", 0.25,
		)},
	))
	require.NoError(t, err)

	want := `(NPCSpawnEntriesContainerClassString="DinoSpawnEntriesBeach_C",` +
		`NPCSpawnEntries=((AnEntryName="Rex",EntryWeight=0.100000,NPCsToSpawnStrings=("Rex_Character_BP_C"),` +
		`NPCsSpawnOffsets=((X=0.0,Y=0.0,Z=35.5)),NPCsToSpawnPercentageChance=(1.000),` +
		`NPCDifficultyLevelRanges=((EnemyLevelsMin=(1.0),EnemyLevelsMax=(30.0),GameDifficulties=(0.0))))),` +
		`NPCSpawnLimits=((NPCClassString="Rex_Character_BP_C",MaxPercentageOfDesiredNumToAllow=0.250000)))`
	assert.Equal(t, want, v.Literal())
}

func TestNPCSpawnLimit_Literal(t *testing.T) {
	l := &NPCSpawnLimit{
		NPCClassString:                   ptr("Dodo_Character_BP_C"),
		MaxPercentageOfDesiredNumToAllow: ptr(0.5),
	}
	assert.Equal(t, `(NPCClassString="Dodo_Character_BP_C",MaxPercentageOfDesiredNumToAllow=0.500000)`, l.Literal())
}

func TestDinoSpawnWeightMultiplier_Literal(t *testing.T) {
	d := &DinoSpawnWeightMultiplier{
		DinoNameTag:                  "Rex",
		SpawnWeightMultiplier:        ptr(0.5),
		OverrideSpawnLimitPercentage: ptr(true),
		SpawnLimitPercentage:         ptr(0.1),
	}
	assert.Equal(t,
		`(DinoNameTag=Rex,SpawnWeightMultiplier=0.500000,OverrideSpawnLimitPercentage=True,SpawnLimitPercentage=0.100)`,
		d.Literal(),
	)

	parsed, err := FromLiteral(KindDinoSpawnWeightMultiplier, d.Literal())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestToMapping_OmitsUnsetFields(t *testing.T) {
	entry := &ItemEntry{ItemClassStrings: []string{"A"}, MinQuality: ptr(2.0)}
	m := entry.ToMapping()
	assert.Equal(t, []string{"ItemClassStrings", "MinQuality"}, m.Keys())

	rebuilt, err := ItemEntryFromMapping(m)
	require.NoError(t, err)
	assert.Equal(t, entry, rebuilt)
}

func TestKindForKey(t *testing.T) {
	kind, ok := KindForKey("ConfigOverrideSupplyCrateItems")
	assert.True(t, ok)
	assert.Equal(t, KindSupplyCrateItemsOverride, kind)

	kind, ok = KindForKey("ConfigSubtractNPCSpawnEntriesContainer")
	assert.True(t, ok)
	assert.Equal(t, KindSpawnEntriesContainerOverride, kind)

	_, ok = KindForKey("MaxPersonalTamedDinos")
	assert.False(t, ok)

	_, err := FromMapping(Kind("Nope"), document.NewMap())
	assert.Error(t, err)
}

func TestParseLiteral(t *testing.T) {
	t.Run("keyed_tuple", func(t *testing.T) {
		v, err := ParseLiteral(`(Name="a b",Weight=0.5,Count=3,Flag=True,Path=BlueprintGeneratedClass'/Game/X.X_C',List=('A', 'B'))`)
		require.NoError(t, err)
		want := document.MapOf(
			"Name", "a b",
			"Weight", 0.5,
			"Count", int64(3),
			"Flag", true,
			"Path", "/Game/X.X_C",
			"List", []any{"A", "B"},
		)
		assert.True(t, document.Equal(want, v), "got %v", v)
	})

	t.Run("quoted_numbers_stay_text", func(t *testing.T) {
		v, err := ParseLiteral(`(Name="12")`)
		require.NoError(t, err)
		name, _ := v.(*document.Map).Get("Name")
		assert.Equal(t, "12", name)
	})

	t.Run("empty_tuple", func(t *testing.T) {
		v, err := ParseLiteral(`()`)
		require.NoError(t, err)
		assert.Equal(t, []any{}, v)
	})

	t.Run("mixed_fields", func(t *testing.T) {
		_, err := ParseLiteral(`(A=1,2)`)
		assert.ErrorContains(t, err, "mixes keyed and positional")
	})

	t.Run("unbalanced", func(t *testing.T) {
		_, err := ParseLiteral(`(A=1`)
		assert.Error(t, err)
	})

	t.Run("not_a_tuple", func(t *testing.T) {
		_, err := ParseLiteral(`A=1`)
		assert.Error(t, err)
	})
}

func TestRenderLiteral(t *testing.T) {
	m := document.MapOf("A", "x", "B", []any{int64(1), 2.5}, "C", false, "D", document.MapOf("E", int64(1)))
	assert.Equal(t, `(A="x",B=(1,2.5),C=False,D=(E=1))`, RenderLiteral(m))
}

func TestFromLiteral_CrateRoundTrip(t *testing.T) {
	crate, err := SupplyCrateItemsOverrideFromMapping(crateMapping())
	require.NoError(t, err)

	parsed, err := FromLiteral(KindSupplyCrateItemsOverride, crate.Literal())
	require.NoError(t, err)
	assert.Equal(t, crate, parsed)
}

// TestFromLiteral_PropertyBased_ItemEntryRoundTrip checks that parsing the
// literal of a generated entry reproduces it.
func TestFromLiteral_PropertyBased_ItemEntryRoundTrip(t *testing.T) {
	thousandths := rapid.Map(rapid.IntRange(0, 1_000_000), func(i int) float64 { return float64(i) / 1000 })

	rapid.Check(t, func(t *rapid.T) {
		classes := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z][A-Za-z0-9_]{0,15}`), 1, 4).Draw(t, "classes")

		entry := &ItemEntry{ItemClassStrings: classes}
		if rapid.Bool().Draw(t, "named") {
			entry.ItemEntryName = ptr(rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,10}`).Draw(t, "name"))
		}
		if rapid.Bool().Draw(t, "weighted") {
			entry.ItemsWeights = rapid.SliceOfN(thousandths, len(classes), len(classes)).Draw(t, "weights")
		}
		if rapid.Bool().Draw(t, "quality") {
			entry.MinQuality = ptr(thousandths.Draw(t, "min_quality"))
		}
		if rapid.Bool().Draw(t, "level") {
			entry.GiveRequiresMinimumCharacterLevel = ptr(rapid.Int64Range(0, 200).Draw(t, "level"))
		}
		if rapid.Bool().Draw(t, "blueprint") {
			entry.ForceBlueprint = ptr(rapid.Bool().Draw(t, "force"))
		}

		parsed, err := FromLiteral(KindItemEntry, entry.Literal())
		if err != nil {
			t.Fatalf("FromLiteral(%s): %v", entry.Literal(), err)
		}
		assert.Equal(t, entry, parsed)
	})
}
