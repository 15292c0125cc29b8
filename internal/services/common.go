package services

import (
	"strings"

	"github.com/google/uuid"
)

// validID: в postgres колонки uuid, строка не-uuid в WHERE дает ошибку, а не "не найдено"
func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// truncateRunes обрезает строку до n символов (не байт)
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
