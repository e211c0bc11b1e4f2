// Package core defines the creature engine's data model: category enums,
// value types, and the error kinds shared by every subsystem.
package core

import (
	"encoding/json"
	"fmt"
)

// Size classifies a creature's overall scale.
type Size uint8

const (
	SizeTiny Size = iota
	SizeSmall
	SizeMedium
	SizeLarge
	SizeHuge
	SizeColossal
)

// BodyShape classifies a creature's anatomy.
type BodyShape uint8

const (
	ShapeAvian BodyShape = iota
	ShapeDraconic
	ShapeSerpentine
	ShapeArachnid
	ShapeChitinous
	ShapeAmorphous
	ShapeHumanoid
	ShapeBestial
	ShapeAberrant
)

// Locomotion classifies how a creature moves.
type Locomotion uint8

const (
	MoveWalker Locomotion = iota
	MoveFlyer
	MoveSwimmer
	MoveBurrower
	MovePhaser
	MoveTeleporter
	MoveCrawler
	MoveFloater
	MoveSlitherer
)

// AbilityKind classifies how an ability was acquired.
type AbilityKind uint8

const (
	AbilityInnate AbilityKind = iota
	AbilityEnvironmental
	AbilityEvolved
	AbilitySynthetic
	AbilityDefensive
	AbilityOffensive
	AbilityEmergent
	AbilityTemporary
)

// Intelligence classifies cognitive tier.
type Intelligence uint8

const (
	IntelligenceMindless Intelligence = iota
	IntelligenceAnimal
	IntelligenceCunning
	IntelligenceSapient
)

// Aggression classifies hostility tier.
type Aggression uint8

const (
	AggressionPassive Aggression = iota
	AggressionDefensive
	AggressionTerritorial
	AggressionAggressive
)

// SocialStructure classifies grouping behavior.
type SocialStructure uint8

const (
	SocialSolitary SocialStructure = iota
	SocialPair
	SocialPack
	SocialHive
	SocialSwarm
)

var sizeNames = [...]string{"Tiny", "Small", "Medium", "Large", "Huge", "Colossal"}

var shapeNames = [...]string{
	"Avian", "Draconic", "Serpentine", "Arachnid", "Chitinous",
	"Amorphous", "Humanoid", "Bestial", "Aberrant",
}

var locomotionNames = [...]string{
	"Walker", "Flyer", "Swimmer", "Burrower", "Phaser",
	"Teleporter", "Crawler", "Floater", "Slitherer",
}

var abilityKindNames = [...]string{
	"Innate", "Environmental", "Evolved", "Synthetic",
	"Defensive", "Offensive", "Emergent", "Temporary",
}

var intelligenceNames = [...]string{"Mindless", "Animal", "Cunning", "Sapient"}

var aggressionNames = [...]string{"Passive", "Defensive", "Territorial", "Aggressive"}

var socialNames = [...]string{"Solitary", "Pair", "Pack", "Hive", "Swarm"}

func (s Size) String() string            { return enumName(sizeNames[:], uint8(s)) }
func (s BodyShape) String() string       { return enumName(shapeNames[:], uint8(s)) }
func (l Locomotion) String() string      { return enumName(locomotionNames[:], uint8(l)) }
func (k AbilityKind) String() string     { return enumName(abilityKindNames[:], uint8(k)) }
func (i Intelligence) String() string    { return enumName(intelligenceNames[:], uint8(i)) }
func (a Aggression) String() string      { return enumName(aggressionNames[:], uint8(a)) }
func (s SocialStructure) String() string { return enumName(socialNames[:], uint8(s)) }

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return "Unknown"
}

func parseEnum(kind string, names []string, s string) (uint8, error) {
	for i, name := range names {
		if name == s {
			return uint8(i), nil
		}
	}
	return 0, &SerializationError{Field: kind, Reason: fmt.Sprintf("unrecognized value %q", s)}
}

// ParseSize converts a catalog or snapshot string to a Size.
func ParseSize(s string) (Size, error) {
	v, err := parseEnum("size", sizeNames[:], s)
	return Size(v), err
}

// ParseBodyShape converts a catalog or snapshot string to a BodyShape.
func ParseBodyShape(s string) (BodyShape, error) {
	v, err := parseEnum("shape", shapeNames[:], s)
	return BodyShape(v), err
}

// ParseLocomotion converts a catalog or snapshot string to a Locomotion.
func ParseLocomotion(s string) (Locomotion, error) {
	v, err := parseEnum("locomotion", locomotionNames[:], s)
	return Locomotion(v), err
}

// ParseAbilityKind converts a catalog or snapshot string to an AbilityKind.
func ParseAbilityKind(s string) (AbilityKind, error) {
	v, err := parseEnum("abilityKind", abilityKindNames[:], s)
	return AbilityKind(v), err
}

// ParseIntelligence converts a snapshot string to an Intelligence tier.
func ParseIntelligence(s string) (Intelligence, error) {
	v, err := parseEnum("intelligence", intelligenceNames[:], s)
	return Intelligence(v), err
}

// ParseAggression converts a snapshot string to an Aggression tier.
func ParseAggression(s string) (Aggression, error) {
	v, err := parseEnum("aggression", aggressionNames[:], s)
	return Aggression(v), err
}

// ParseSocialStructure converts a snapshot string to a SocialStructure tier.
func ParseSocialStructure(s string) (SocialStructure, error) {
	v, err := parseEnum("socialStructure", socialNames[:], s)
	return SocialStructure(v), err
}

// The enums cross the serialization boundary as strings; unknown input fails
// with SerializationError rather than substituting a default.

func marshalEnum(s string) ([]byte, error) { return json.Marshal(s) }

func unmarshalEnum(data []byte, parse func(string) (uint8, error), dst *uint8) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &SerializationError{Reason: "expected string for enum value"}
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (s Size) MarshalJSON() ([]byte, error)            { return marshalEnum(s.String()) }
func (s BodyShape) MarshalJSON() ([]byte, error)       { return marshalEnum(s.String()) }
func (l Locomotion) MarshalJSON() ([]byte, error)      { return marshalEnum(l.String()) }
func (k AbilityKind) MarshalJSON() ([]byte, error)     { return marshalEnum(k.String()) }
func (i Intelligence) MarshalJSON() ([]byte, error)    { return marshalEnum(i.String()) }
func (a Aggression) MarshalJSON() ([]byte, error)      { return marshalEnum(a.String()) }
func (s SocialStructure) MarshalJSON() ([]byte, error) { return marshalEnum(s.String()) }

func (s *Size) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("size", sizeNames[:], v) }, (*uint8)(s))
}

func (s *BodyShape) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("shape", shapeNames[:], v) }, (*uint8)(s))
}

func (l *Locomotion) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("locomotion", locomotionNames[:], v) }, (*uint8)(l))
}

func (k *AbilityKind) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("abilityKind", abilityKindNames[:], v) }, (*uint8)(k))
}

func (i *Intelligence) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("intelligence", intelligenceNames[:], v) }, (*uint8)(i))
}

func (a *Aggression) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("aggression", aggressionNames[:], v) }, (*uint8)(a))
}

func (s *SocialStructure) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(v string) (uint8, error) { return parseEnum("socialStructure", socialNames[:], v) }, (*uint8)(s))
}

// UnmarshalYAML implementations let the same string forms appear in catalog files.

func (s *Size) UnmarshalYAML(unmarshal func(any) error) error {
	return unmarshalYAMLEnum(unmarshal, func(v string) (uint8, error) { return parseEnum("size", sizeNames[:], v) }, (*uint8)(s))
}

func (s *BodyShape) UnmarshalYAML(unmarshal func(any) error) error {
	return unmarshalYAMLEnum(unmarshal, func(v string) (uint8, error) { return parseEnum("shape", shapeNames[:], v) }, (*uint8)(s))
}

func (l *Locomotion) UnmarshalYAML(unmarshal func(any) error) error {
	return unmarshalYAMLEnum(unmarshal, func(v string) (uint8, error) { return parseEnum("locomotion", locomotionNames[:], v) }, (*uint8)(l))
}

func (k *AbilityKind) UnmarshalYAML(unmarshal func(any) error) error {
	return unmarshalYAMLEnum(unmarshal, func(v string) (uint8, error) { return parseEnum("abilityKind", abilityKindNames[:], v) }, (*uint8)(k))
}

func unmarshalYAMLEnum(unmarshal func(any) error, parse func(string) (uint8, error), dst *uint8) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// AllSizes lists every Size in declaration order, for random form generation.
func AllSizes() []Size {
	return []Size{SizeTiny, SizeSmall, SizeMedium, SizeLarge, SizeHuge, SizeColossal}
}

// AllShapes lists every BodyShape in declaration order.
func AllShapes() []BodyShape {
	return []BodyShape{
		ShapeAvian, ShapeDraconic, ShapeSerpentine, ShapeArachnid, ShapeChitinous,
		ShapeAmorphous, ShapeHumanoid, ShapeBestial, ShapeAberrant,
	}
}
