package complexvalue

import "arkman.dev/cli/internal/core/document"

// DinoSpawnWeightMultiplier scales how often a creature spawns.
type DinoSpawnWeightMultiplier struct {
	DinoNameTag                  string
	SpawnWeightMultiplier        *float64
	OverrideSpawnLimitPercentage *bool
	SpawnLimitPercentage         *float64
}

func (*DinoSpawnWeightMultiplier) Kind() Kind { return KindDinoSpawnWeightMultiplier }

func (d *DinoSpawnWeightMultiplier) Literal() string {
	var b literalBuilder
	b.raw("DinoNameTag", d.DinoNameTag)
	b.fixed("SpawnWeightMultiplier", d.SpawnWeightMultiplier, 6)
	b.boolean("OverrideSpawnLimitPercentage", d.OverrideSpawnLimitPercentage)
	b.fixed("SpawnLimitPercentage", d.SpawnLimitPercentage, 3)
	return b.String()
}

func (d *DinoSpawnWeightMultiplier) ToMapping() *document.Map {
	b := newMappingBuilder()
	b.str("DinoNameTag", &d.DinoNameTag)
	b.float("SpawnWeightMultiplier", d.SpawnWeightMultiplier)
	b.boolean("OverrideSpawnLimitPercentage", d.OverrideSpawnLimitPercentage)
	b.float("SpawnLimitPercentage", d.SpawnLimitPercentage)
	return b.m
}

func DinoSpawnWeightMultiplierFromMapping(m *document.Map) (*DinoSpawnWeightMultiplier, error) {
	r := newFieldReader(KindDinoSpawnWeightMultiplier, m)
	r.require("DinoNameTag")
	tag := r.str("DinoNameTag")
	d := &DinoSpawnWeightMultiplier{
		SpawnWeightMultiplier:        r.float("SpawnWeightMultiplier"),
		OverrideSpawnLimitPercentage: r.boolean("OverrideSpawnLimitPercentage"),
		SpawnLimitPercentage:         r.float("SpawnLimitPercentage"),
	}
	if r.err != nil {
		return nil, r.err
	}
	d.DinoNameTag = *tag
	return d, nil
}
