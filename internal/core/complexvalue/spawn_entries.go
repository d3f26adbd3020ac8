package complexvalue

import "arkman.dev/cli/internal/core/document"

// SpawnOffset is a relative spawn position.
type SpawnOffset struct {
	X, Y, Z float64
}

func (*SpawnOffset) Kind() Kind { return KindSpawnOffset }

func (o *SpawnOffset) Literal() string {
	var b literalBuilder
	b.fixed("X", &o.X, 1)
	b.fixed("Y", &o.Y, 1)
	b.fixed("Z", &o.Z, 1)
	return b.String()
}

func (o *SpawnOffset) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.float("X", &o.X)
	b.float("Y", &o.Y)
	b.float("Z", &o.Z)
	return b.m
}

func SpawnOffsetFromMapping(m *document.Map) (*SpawnOffset, error) {
	r := newFieldReader(KindSpawnOffset, m)
	r.require("X", "Y", "Z")
	x, y, z := r.float("X"), r.float("Y"), r.float("Z")
	if r.err != nil {
		return nil, r.err
	}
	return &SpawnOffset{X: *x, Y: *y, Z: *z}, nil
}

// DifficultyLevelRange bounds creature levels per game difficulty.
type DifficultyLevelRange struct {
	EnemyLevelsMin   []float64
	EnemyLevelsMax   []float64
	GameDifficulties []float64
}

func (*DifficultyLevelRange) Kind() Kind { return KindDifficultyLevelRange }

func (d *DifficultyLevelRange) Literal() string {
	var b literalBuilder
	b.list("EnemyLevelsMin", fixedEach(d.EnemyLevelsMin, 1))
	b.list("EnemyLevelsMax", fixedEach(d.EnemyLevelsMax, 1))
	b.list("GameDifficulties", fixedEach(d.GameDifficulties, 1))
	return b.String()
}

func (d *DifficultyLevelRange) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.floatList("EnemyLevelsMin", d.EnemyLevelsMin)
	b.floatList("EnemyLevelsMax", d.EnemyLevelsMax)
	b.floatList("GameDifficulties", d.GameDifficulties)
	return b.m
}

func DifficultyLevelRangeFromMapping(m *document.Map) (*DifficultyLevelRange, error) {
	r := newFieldReader(KindDifficultyLevelRange, m)
	d := &DifficultyLevelRange{
		EnemyLevelsMin:   r.floatList("EnemyLevelsMin"),
		EnemyLevelsMax:   r.floatList("EnemyLevelsMax"),
		GameDifficulties: r.floatList("GameDifficulties"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

// NPCSpawnEntry is one weighted creature entry of a spawn container.
type NPCSpawnEntry struct {
	AnEntryName                 *string
	EntryWeight                 *float64
	NPCsToSpawnStrings          []string
	NPCsSpawnOffsets            []*SpawnOffset
	NPCsToSpawnPercentageChance []float64
	NPCDifficultyLevelRanges    []*DifficultyLevelRange
}

func (*NPCSpawnEntry) Kind() Kind { return KindNPCSpawnEntry }

func (e *NPCSpawnEntry) Literal() string {
	var b literalBuilder
	b.quoted("AnEntryName", e.AnEntryName)
	b.fixed("EntryWeight", e.EntryWeight, 6)
	b.list("NPCsToSpawnStrings", wrapEach(e.NPCsToSpawnStrings, `"`, `"`))
	b.list("NPCsSpawnOffsets", literalEach(e.NPCsSpawnOffsets))
	b.list("NPCsToSpawnPercentageChance", fixedEach(e.NPCsToSpawnPercentageChance, 3))
	b.list("NPCDifficultyLevelRanges", literalEach(e.NPCDifficultyLevelRanges))
	return b.String()
}

func (e *NPCSpawnEntry) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("AnEntryName", e.AnEntryName)
	b.float("EntryWeight", e.EntryWeight)
	b.strList("NPCsToSpawnStrings", e.NPCsToSpawnStrings)
	mapEach(b, "NPCsSpawnOffsets", e.NPCsSpawnOffsets)
	b.floatList("NPCsToSpawnPercentageChance", e.NPCsToSpawnPercentageChance)
	mapEach(b, "NPCDifficultyLevelRanges", e.NPCDifficultyLevelRanges)
	return b.m
}

func NPCSpawnEntryFromMapping(m *document.Map) (*NPCSpawnEntry, error) {
	r := newFieldReader(KindNPCSpawnEntry, m)
	e := &NPCSpawnEntry{
		AnEntryName:                 r.str("AnEntryName"),
		EntryWeight:                 r.float("EntryWeight"),
		NPCsToSpawnStrings:          r.strList("NPCsToSpawnStrings"),
		NPCsSpawnOffsets:            readNestedList(r, "NPCsSpawnOffsets", SpawnOffsetFromMapping),
		NPCsToSpawnPercentageChance: r.floatList("NPCsToSpawnPercentageChance"),
		NPCDifficultyLevelRanges:    readNestedList(r, "NPCDifficultyLevelRanges", DifficultyLevelRangeFromMapping),
	}
	if r.err != nil {
		return nil, r.err
	}
	return e, nil
}

// NPCSpawnLimit caps the share of a creature class in a container.
type NPCSpawnLimit struct {
	NPCClassString                   *string
	MaxPercentageOfDesiredNumToAllow *float64
}

func (*NPCSpawnLimit) Kind() Kind { return KindNPCSpawnLimit }

func (l *NPCSpawnLimit) Literal() string {
	var b literalBuilder
	b.quoted("NPCClassString", l.NPCClassString)
	b.fixed("MaxPercentageOfDesiredNumToAllow", l.MaxPercentageOfDesiredNumToAllow, 6)
	return b.String()
}

func (l *NPCSpawnLimit) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("NPCClassString", l.NPCClassString)
	b.float("MaxPercentageOfDesiredNumToAllow", l.MaxPercentageOfDesiredNumToAllow)
	return b.m
}

func NPCSpawnLimitFromMapping(m *document.Map) (*NPCSpawnLimit, error) {
	r := newFieldReader(KindNPCSpawnLimit, m)
	l := &NPCSpawnLimit{
		NPCClassString:                   r.str("NPCClassString"),
		MaxPercentageOfDesiredNumToAllow: r.float("MaxPercentageOfDesiredNumToAllow"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return l, nil
}

// SpawnEntriesContainerOverride is the value of the Config{Add,Override,
// Subtract}NPCSpawnEntriesContainer options.
type SpawnEntriesContainerOverride struct {
	NPCSpawnEntriesContainerClassString string
	NPCSpawnEntries                     []*NPCSpawnEntry
	NPCSpawnLimits                      []*NPCSpawnLimit
}

func (*SpawnEntriesContainerOverride) Kind() Kind { return KindSpawnEntriesContainerOverride }

func (o *SpawnEntriesContainerOverride) Literal() string {
	var b literalBuilder
	b.quoted("NPCSpawnEntriesContainerClassString", &o.NPCSpawnEntriesContainerClassString)
	b.list("NPCSpawnEntries", literalEach(o.NPCSpawnEntries))
	b.list("NPCSpawnLimits", literalEach(o.NPCSpawnLimits))
	return b.String()
}

func (o *SpawnEntriesContainerOverride) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("NPCSpawnEntriesContainerClassString", &o.NPCSpawnEntriesContainerClassString)
	mapEach(b, "NPCSpawnEntries", o.NPCSpawnEntries)
	mapEach(b, "NPCSpawnLimits", o.NPCSpawnLimits)
	return b.m
}

func SpawnEntriesContainerOverrideFromMapping(m *document.Map) (*SpawnEntriesContainerOverride, error) {
	r := newFieldReader(KindSpawnEntriesContainerOverride, m)
	r.require("NPCSpawnEntriesContainerClassString")
	class := r.str("NPCSpawnEntriesContainerClassString")
	o := &SpawnEntriesContainerOverride{
		NPCSpawnEntries: readNestedList(r, "NPCSpawnEntries", NPCSpawnEntryFromMapping),
		NPCSpawnLimits:  readNestedList(r, "NPCSpawnLimits", NPCSpawnLimitFromMapping),
	}
	if r.err != nil {
		return nil, r.err
	}
	o.NPCSpawnEntriesContainerClassString = *class
	return o, nil
}
