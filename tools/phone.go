package tools

import (
	"strings"
	"unicode"
)

// DefaultCountryCode é prefixado em números locais de 10 dígitos.
const DefaultCountryCode = "91"

const waSuffix = "@c.us"

// CleanPhoneNumber normaliza um telefone para formato internacional só com
// dígitos, sem '+'.
//
// Heurística:
// - remove tudo que não é dígito
// - 10 dígitos: assume número local e prefixa o DDI padrão
// - já com DDI: mantém
// - curto/longo demais: devolve como está (o transporte loga o erro)
func CleanPhoneNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	num := b.String()
	if len(num) == 10 {
		num = DefaultCountryCode + num
	}
	return num
}

// ToWhatsAppID deriva o identificador do transporte a partir do telefone
// normalizado. Nunca compare IDs crus: normalize primeiro.
func ToWhatsAppID(phone string) string {
	return CleanPhoneNumber(phone) + waSuffix
}

// FromWhatsAppID extrai e normaliza o telefone de um ID do transporte.
func FromWhatsAppID(waID string) string {
	return CleanPhoneNumber(strings.TrimSuffix(waID, waSuffix))
}
