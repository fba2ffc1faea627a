package db

import "fmt"

// Gender codes as stored in the users table. GenderUnknown doubles as
// the "any" filter in queue bucket keys.
type Gender int16

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
	GenderOther
	GenderPreferNotSay
)

var genderNames = map[Gender]string{
	GenderUnknown:      "unknown",
	GenderMale:         "male",
	GenderFemale:       "female",
	GenderOther:        "other",
	GenderPreferNotSay: "prefer_not_say",
}

func (g Gender) String() string {
	if name, ok := genderNames[g]; ok {
		return name
	}
	return fmt.Sprintf("gender(%d)", int16(g))
}

func (g Gender) Valid() bool {
	_, ok := genderNames[g]
	return ok
}

// Genders returns every valid gender code, including GenderUnknown.
func Genders() []Gender {
	return []Gender{GenderUnknown, GenderMale, GenderFemale, GenderOther, GenderPreferNotSay}
}

// Language preference. LanguageAny matches any partner language.
type Language string

const (
	LanguageMalayalam Language = "malayalam"
	LanguageEnglish   Language = "english"
	LanguageHindi     Language = "hindi"
	LanguageAny       Language = "any"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageMalayalam, LanguageEnglish, LanguageHindi, LanguageAny:
		return true
	}
	return false
}

// Languages returns every valid language code, including LanguageAny.
func Languages() []Language {
	return []Language{LanguageMalayalam, LanguageEnglish, LanguageHindi, LanguageAny}
}
