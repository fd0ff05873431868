package ritual

import "golang.org/x/text/language"

// BaseLocale is the canonical source locale for instruction pools.
const BaseLocale = "en-US"

var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// instructionCatalog holds the rotating on-screen text per locale and phase
// key. The en-US pool is canonical; other locales fall back to it for any
// missing phase.
var instructionCatalog = map[string]map[string][]string{
	"en-US": {
		"focus": {
			"Hold your intention in a single sentence",
			"Let your breath settle into its own rhythm",
			"Return to the sentence each time you drift",
			"Picture the intention already true",
		},
		"breathwork": {
			"Inhale slowly for four counts",
			"Hold gently for four counts",
			"Exhale fully for four counts",
		},
		"mantra": {
			"Repeat your intention silently",
			"Let the words lose their edges",
			"Keep only the feeling of the phrase",
		},
		"visualization": {
			"See the symbol forming in darkness",
			"Trace its lines with your attention",
			"Let it glow brighter with each breath",
			"Hold the whole shape at once",
		},
		"transfer": {
			"Pour the feeling into the symbol",
			"Press your intention into its lines",
		},
		"seal": {
			"Let the symbol sink below thought",
			"Release the intention completely",
			"Trust that the work is done",
		},
	},
	"pt-BR": {
		"focus": {
			"Sustente sua intenção em uma única frase",
			"Deixe a respiração encontrar o próprio ritmo",
			"Volte à frase sempre que se distrair",
			"Imagine a intenção já realizada",
		},
		"breathwork": {
			"Inspire devagar contando até quatro",
			"Segure suavemente contando até quatro",
			"Expire por completo contando até quatro",
		},
		"mantra": {
			"Repita sua intenção em silêncio",
			"Deixe as palavras perderem os contornos",
			"Guarde apenas o sentimento da frase",
		},
		"visualization": {
			"Veja o símbolo se formando na escuridão",
			"Percorra suas linhas com a atenção",
			"Deixe-o brilhar mais a cada respiração",
			"Sustente a forma inteira de uma vez",
		},
		"transfer": {
			"Despeje o sentimento dentro do símbolo",
			"Imprima sua intenção nas linhas dele",
		},
		"seal": {
			"Deixe o símbolo afundar abaixo do pensamento",
			"Solte a intenção por completo",
			"Confie que o trabalho está feito",
		},
	},
}

// defaultInstructions returns a copy of the base-locale pool for a phase.
func defaultInstructions(phaseKey string) []string {
	return InstructionsFor(BaseLocale, phaseKey)
}

// InstructionsFor returns the instruction pool for a phase key in the best
// matching supported locale. Unknown locales fall back to BaseLocale, and
// unknown phase keys return nil.
func InstructionsFor(locale, phaseKey string) []string {
	pool := instructionCatalog[matchLocale(locale)][phaseKey]
	if pool == nil {
		pool = instructionCatalog[BaseLocale][phaseKey]
	}
	if pool == nil {
		return nil
	}
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

// LocalizeConfig returns a copy of cfg with every phase's instructions
// swapped for the best matching locale.
func LocalizeConfig(cfg Config, locale string) Config {
	phases := make([]Phase, len(cfg.Phases))
	copy(phases, cfg.Phases)
	for i := range phases {
		if localized := InstructionsFor(locale, phases[i].Key); localized != nil {
			phases[i].Instructions = localized
		}
	}
	cfg.Phases = phases
	return cfg
}

// matchLocale resolves a BCP 47 locale string to a supported catalog locale.
func matchLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return BaseLocale
	}
	_, index, _ := localeMatcher.Match(tag)
	return supportedLocales[index].String()
}
