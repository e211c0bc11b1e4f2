package creature

import (
	"strings"

	"github.com/pthm-cable/crescent/config"
	"github.com/pthm-cable/crescent/core"
	"github.com/pthm-cable/crescent/rng"
)

// Name fragments keyed by what they evoke. Themes and environments missing
// from the tables fall back to the name itself.
var (
	sizePrefixes = map[core.Size]string{
		core.SizeTiny:     "Lesser",
		core.SizeSmall:    "Minor",
		core.SizeLarge:    "Greater",
		core.SizeHuge:     "Dire",
		core.SizeColossal: "Elder",
	}

	themeNameParts = map[string][]string{
		"Eldritch":   {"Vhal", "Ythr", "Nyx", "Ool"},
		"Venomous":   {"Vip", "Tox", "Fang", "Sly"},
		"Radiant":    {"Sol", "Lum", "Aur", "Hel"},
		"Primordial": {"Grym", "Tor", "Mol", "Urn"},
	}

	environmentNameParts = map[string][]string{
		"Swamp":          {"mire", "bog", "fen"},
		"Desert":         {"dune", "scorch", "arid"},
		"Cavern":         {"deep", "hollow", "gloom"},
		"Abyssal_Depths": {"abyss", "trench", "void"},
	}

	nameSuffixes = []string{"ath", "ix", "or", "un", "esk", "yl"}
)

// SuggestName composes an evocative name from the creature's strongest theme
// and most-adapted environment, with an optional size prefix.
func SuggestName(form *core.PhysicalForm, theme, env string, cfg config.NamingConfig, src *rng.Source) string {
	var parts []string

	if theme != "" {
		if fragments, ok := themeNameParts[theme]; ok {
			parts = append(parts, src.Pick(fragments))
		} else {
			parts = append(parts, theme[:min(4, len(theme))])
		}
	}
	if env != "" && src.Roll(cfg.EnvironmentChance) {
		if fragments, ok := environmentNameParts[env]; ok {
			parts = append(parts, src.Pick(fragments))
		} else {
			parts = append(parts, strings.ToLower(env[:min(4, len(env))]))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, strings.ToLower(form.Shape.String()[:min(4, len(form.Shape.String()))]))
	}
	parts = append(parts, src.Pick(nameSuffixes))

	name := strings.Join(parts, "")
	name = strings.ToUpper(name[:1]) + name[1:]

	if prefix, ok := sizePrefixes[form.Size]; ok && src.Roll(cfg.PrefixChance) {
		name = prefix + " " + name
	}
	return name
}

// DescriptiveName is the plain fallback label: size, a defining feature if
// one exists, and body shape.
func DescriptiveName(form *core.PhysicalForm) string {
	parts := []string{form.Size.String()}
	if len(form.DistinctiveFeatures) > 0 {
		parts = append(parts, strings.ReplaceAll(form.DistinctiveFeatures[0], "_", " "))
	}
	parts = append(parts, form.Shape.String())
	return strings.Join(parts, " ")
}
