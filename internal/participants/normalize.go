// Package participants turns questionnaire rows into participants and imports
// them with duplicate detection.
package participants

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"rsvp-workers/internal/models"
)

type field int

const (
	fieldSubmittedAt field = iota
	fieldName
	fieldGender
	fieldAge
	fieldNationalID
	fieldCity
	fieldDistrict
	fieldRetired
	fieldPhone
	fieldEmail
	fieldExtensionProject
	fieldOtherProject
	fieldDataConsent
	fieldDifficulties
)

// Header aliases, matched after trimming, lower-casing and collapsing spaces.
// The Portuguese entries are the questionnaire's own column titles.
var headerAliases = map[field][]string{
	fieldSubmittedAt:      {"submittedat", "submitted_at", "timestamp", "carimbo de data/hora", "carimbo_data_hora"},
	fieldName:             {"name", "nome", "digite seu nome sem abreviar"},
	fieldGender:           {"gender", "genero", "gênero"},
	fieldAge:              {"age", "idade"},
	fieldNationalID:       {"nationalid", "national_id", "cpf"},
	fieldCity:             {"city", "cidade"},
	fieldDistrict:         {"district", "bairro"},
	fieldRetired:          {"retired", "aposentado", "você é aposentado(a)?"},
	fieldPhone:            {"phone", "telefone", "telefone/celular/whatsapp", "whatsapp"},
	fieldEmail:            {"email", "e-mail", "e-mail (se houver)"},
	fieldExtensionProject: {"extensionproject", "extension_project", "projeto_extensao", "você participa de qual projeto de extensão?"},
	fieldOtherProject:     {"otherproject", "other_project", "outro_projeto"},
	fieldDataConsent:      {"dataconsent", "data_consent", "autorizacao_dados"},
	fieldDifficulties:     {"difficulties", "dificuldades"},
}

// Long questionnaire titles are matched by prefix.
var headerPrefixes = []struct {
	prefix string
	field  field
}{
	{"caso você não seja de nenhum projeto", fieldOtherProject},
	{"autorizo o tratamento dos meus dados", fieldDataConsent},
	{"dentre esses temas", fieldDifficulties},
}

var headerIndex = func() map[string]field {
	idx := map[string]field{}
	for f, aliases := range headerAliases {
		for _, a := range aliases {
			idx[canonicalHeader(a)] = f
		}
	}
	return idx
}()

func canonicalHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func lookupField(header string) (field, bool) {
	h := canonicalHeader(header)
	if f, ok := headerIndex[h]; ok {
		return f, true
	}
	for _, p := range headerPrefixes {
		if strings.HasPrefix(h, p.prefix) {
			return p.field, true
		}
	}
	return 0, false
}

var submittedAtLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize maps a loosely keyed row onto a Participant. Unknown keys are
// ignored and missing keys leave the field empty. When two keys map to the
// same field the first non-empty one in key order wins. Phone and national id keep
// digits only; an unparseable date or age is dropped.
func Normalize(row map[string]string) models.Participant {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := map[field]string{}
	for _, k := range keys {
		v := row[k]
		f, ok := lookupField(k)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, seen := values[f]; !seen {
			values[f] = v
		}
	}

	p := models.Participant{
		Name:             values[fieldName],
		Gender:           values[fieldGender],
		NationalID:       DigitsOnly(values[fieldNationalID]),
		City:             values[fieldCity],
		District:         values[fieldDistrict],
		Retired:          values[fieldRetired],
		Phone:            DigitsOnly(values[fieldPhone]),
		Email:            strings.ToLower(values[fieldEmail]),
		ExtensionProject: values[fieldExtensionProject],
		OtherProject:     values[fieldOtherProject],
		DataConsent:      values[fieldDataConsent],
		Difficulties:     values[fieldDifficulties],
	}
	p.SubmittedAt = parseSubmittedAt(values[fieldSubmittedAt])
	p.Age = parseAge(values[fieldAge])
	return p
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseSubmittedAt(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range submittedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseAge reads the first run of digits, so "67 anos" is 67.
func parseAge(s string) *int {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return nil
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return nil
	}
	return &n
}
