package enricher

import "fmt"

// Prompts are in Portuguese because the corpus is Brazilian legal text; a
// Portuguese prompt keeps the model from drifting into English summaries.

const technicalPromptTemplate = `Você é um advogado experiente. Resuma a petição a seguir em linguagem técnico-jurídica, em um único parágrafo objetivo, citando a ação, o pedido principal e o fundamento legal quando presentes.

Petição:
%s

Resumo técnico:`

const plainPromptTemplate = `Você é um assistente que explica documentos jurídicos para pessoas leigas. Resuma a petição a seguir em linguagem simples e acessível, em um único parágrafo curto, sem jargão jurídico.

Petição:
%s

Resumo em linguagem simples:`

const refinementPromptTemplate = `Analise a petição a seguir e responda APENAS com um objeto JSON no formato:
{"legal_domain": "<área principal do direito>", "sub_areas": ["<subárea>", ...]}

Petição:
%s`

// refinementResult is the structured classification shape requested from the
// model.
type refinementResult struct {
	LegalDomain string   `json:"legal_domain"`
	SubAreas    []string `json:"sub_areas"`
}

func technicalPrompt(text string) string {
	return fmt.Sprintf(technicalPromptTemplate, text)
}

func plainPrompt(text string) string {
	return fmt.Sprintf(plainPromptTemplate, text)
}

func refinementPrompt(text string) string {
	return fmt.Sprintf(refinementPromptTemplate, text)
}

// truncateForPrompt bounds the document text sent to the model. Truncation is
// by bytes on a rune boundary so a multi-byte character is never split.
func truncateForPrompt(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}
