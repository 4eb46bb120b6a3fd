// Package i18n holds the booth's user-facing strings in English and French.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter that forces a language.
const LangParam = "lang"

// Message keys. The English text is the key.
const (
	MsgProgress          = "Photo %d of %d"
	MsgCameraUnavailable = "Could not access camera. Please ensure camera permissions are granted and try again."
	MsgCaptureFailed     = "Something went wrong while taking the photos. Please start again."
	MsgComposeFailed     = "The photo strip could not be developed. Please start again."
	MsgDeveloping        = "Developing..."
	MsgSaveTitle         = "Your photo strip"
	MsgSaveInstruction   = "Tap and hold the image, then select \"Save Image\""
	MsgSaveHint          = "Your strip opened in a new tab. Tap and hold it to save it to your photos."
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		MsgProgress:          "Photo %d of %d",
		MsgCameraUnavailable: MsgCameraUnavailable,
		MsgCaptureFailed:     MsgCaptureFailed,
		MsgComposeFailed:     MsgComposeFailed,
		MsgDeveloping:        MsgDeveloping,
		MsgSaveTitle:         MsgSaveTitle,
		MsgSaveInstruction:   MsgSaveInstruction,
		MsgSaveHint:          MsgSaveHint,
	},
	language.French: {
		MsgProgress:          "Photo %d sur %d",
		MsgCameraUnavailable: "Impossible d'accéder à la caméra. Vérifiez que l'accès à la caméra est autorisé puis réessayez.",
		MsgCaptureFailed:     "Un problème est survenu pendant la prise de vue. Veuillez recommencer.",
		MsgComposeFailed:     "La bande photo n'a pas pu être développée. Veuillez recommencer.",
		MsgDeveloping:        "Développement...",
		MsgSaveTitle:         "Votre bande photo",
		MsgSaveInstruction:   "Appuyez longuement sur l'image, puis choisissez « Enregistrer l'image »",
		MsgSaveHint:          "Votre bande s'est ouverte dans un nouvel onglet. Appuyez longuement dessus pour l'enregistrer dans vos photos.",
	},
}

// supported lists the catalogs, default first.
var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

func init() {
	for tag, msgs := range translations {
		for key, text := range msgs {
			if err := message.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
}

// Default is the fallback language.
func Default() language.Tag {
	return supported[0]
}

// Supported returns the languages that have a catalog.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match picks the best supported language for an Accept-Language header.
func Match(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// FromRequest resolves the language from the lang query parameter, then
// the Accept-Language header.
func FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return Match(tag.String())
		}
	}
	return Match(r.Header.Get("Accept-Language"))
}

// Printer returns a printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// T formats key in the given language.
func T(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(key, args...)
}
