package funnel

import "autoresponder/models"

// DefaultStages é o funil usado quando o tenant não configurou estágios
// próprios. Nunca é persistido: o GET de settings só injeta na resposta.
func DefaultStages() models.StageList {
	return models.StageList{
		{
			Stage:       "Initial Contact",
			Description: "First contact - gathering basic information",
			Keywords:    []string{"hello", "hi", "hey", "interested", "information", "tell me", "what do you do"},
		},
		{
			Stage:       "Service Inquiry",
			Description: "Asking about specific services and pricing",
			Keywords:    []string{"website", "app", "mobile", "cloud", "development", "services", "pricing", "cost", "price"},
		},
		{
			Stage:       "Budget Discussion",
			Description: "Discussing budget and financial considerations",
			Keywords:    []string{"budget", "afford", "expensive", "cheap", "cost-effective", "investment", "roi", "return"},
		},
		{
			Stage:       "Timeline Inquiry",
			Description: "Asking about project timeline and deadlines",
			Keywords:    []string{"when", "timeline", "deadline", "urgent", "quick", "fast", "time", "schedule"},
		},
		{
			Stage:       "Meeting Request",
			Description: "Requesting a meeting or appointment",
			Keywords:    []string{"meeting", "appointment", "call", "schedule", "demo", "discussion", "talk"},
		},
	}
}
