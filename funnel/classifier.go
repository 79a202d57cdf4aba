package funnel

import (
	"strings"

	"autoresponder/models"
)

// Classify detecta o estágio do funil de uma mensagem pelas keywords de cada
// estágio. Confiança = keywords casadas / total de keywords do estágio; ganha
// o estágio de maior confiança, e em empate fica o primeiro visto (ordem da
// lista). Devolve "" quando nenhuma keyword casa.
//
// Keywords são substring case-insensitive: "hi" casa "this". É intencional
// manter simples; estágios bem configurados usam keywords longas o bastante.
func Classify(message string, stages models.StageList) string {
	if len(stages) == 0 {
		stages = DefaultStages()
	}

	lower := strings.ToLower(message)

	detected := ""
	confidence := 0.0

	for _, stage := range stages {
		if len(stage.Keywords) == 0 {
			continue
		}
		matches := 0
		for _, kw := range stage.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		c := float64(matches) / float64(len(stage.Keywords))
		if c > confidence {
			confidence = c
			detected = stage.Stage
		}
	}

	return detected
}
