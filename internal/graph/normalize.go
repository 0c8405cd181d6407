package graph

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

// Normalize implements the glossary's "normalized name" rule: strip
// whitespace, lowercase, drop a trailing lowercase 's' unless the word
// ends in 'ss', split on whitespace, title-case each token, and rejoin
// with single spaces. Intentionally naive — do not swap in a linguistic
// stemmer, the ingestion test vectors depend on this exact behavior.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		s = s[:len(s)-1]
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = titleCase(f)
	}
	return strings.Join(fields, " ")
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	r := []rune(word)
	r[0] = unicode.ToUpper(r[0])
	for i := 1; i < len(r); i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// GenerateID produces the `<Type>_<TitleCasedUnderscoredName>_<8-hex-md5>`
// identifier convention, given an already-normalized name.
func GenerateID(typ NodeType, normalizedName string) string {
	underscored := strings.ReplaceAll(normalizedName, " ", "_")
	sum := md5.Sum([]byte(normalizedName))
	return string(typ) + "_" + underscored + "_" + hex.EncodeToString(sum[:])[:8]
}
