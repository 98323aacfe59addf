package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    bool
		keyword string
		fuzzy   bool
	}{
		{"rua", "Rua Central\n41", true, "rua", false},
		{"upper case accent", "PRAÇA DA LIBERDADE", true, "praça", false},
		{"accent stripped by OCR", "Praca da Batalha", true, "praça", false},
		{"numero", "Número 12", true, "número", false},
		{"glued", "AvenidaDosAliados", true, "avenida", false},
		{"typo", "Avenlda da Boavista", true, "avenida", true},
		{"travessa typo", "Travesa do Carregal", true, "travessa", true},
		{"menu", "Francesinha 12,50€\nBacalhau à Brás", false, "", false},
		{"empty", "", false, "", false},
		{"short word no fuzzy", "Rio Douro", false, "", false},
		{"lake is not largo", "Parque do Lago", false, "", false},
		{"cargo is not largo", "Cargo", false, "", false},
		{"beach is not praça", "Praia da Luz", false, "", false},
		{"numero typo", "Nunero 7", true, "número", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Detect(tt.text)
			assert.Equal(t, tt.want, m.IsAddress)
			assert.Equal(t, tt.keyword, m.Keyword)
			assert.Equal(t, tt.fuzzy, m.Fuzzy)
			assert.Equal(t, tt.want, IsAddress(tt.text))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "praca da liberdade", Fold("Praça da Liberdade"))
	assert.Equal(t, "sao bento", Fold("SÃO BENTO"))
	assert.Equal(t, "numero", Fold("número"))
}
