// Package i18n holds the translated UI strings and locale negotiation.
package i18n

import (
	"fmt"

	"subtrack/internal/core"
)

// Key identifies a translatable message.
type Key string

const (
	VibeLow    Key = "vibe.low"
	VibeMedium Key = "vibe.medium"
	VibeHigh   Key = "vibe.high"

	DueSoon  Key = "list.due_soon"
	Overdue  Key = "list.overdue"
	DaysLeft Key = "list.days_left"
	DaysAgo  Key = "list.days_ago"
	Equals   Key = "list.equals"

	ValidationError   Key = "validation.error"
	ValidationSuccess Key = "validation.success"
	DeleteSuccess     Key = "delete.success"
	DeleteFailed      Key = "delete.failed"
	CreateFailed      Key = "create.failed"

	LoginNotConfigured Key = "login.not_configured"
	LoginUnauthorized  Key = "login.unauthorized_origin"
	LoginCancelled     Key = "login.cancelled"
	LoginFailed        Key = "login.failed"
	SignInRequired     Key = "login.required"
)

// Keys lists every key each locale must translate.
var Keys = []Key{
	VibeLow, VibeMedium, VibeHigh,
	DueSoon, Overdue, DaysLeft, DaysAgo, Equals,
	ValidationError, ValidationSuccess, DeleteSuccess, DeleteFailed, CreateFailed,
	LoginNotConfigured, LoginUnauthorized, LoginCancelled, LoginFailed, SignInRequired,
}

var catalog = map[core.Locale]map[Key]string{
	core.LocaleEN: {
		VibeLow:            "Wallet is Happy 😎",
		VibeMedium:         "Stay Focused 🤔",
		VibeHigh:           "Money is Flying 💸",
		DueSoon:            "Due Soon",
		Overdue:            "Overdue",
		DaysLeft:           "days left",
		DaysAgo:            "days ago",
		Equals:             "Equals",
		ValidationError:    "Please fill in all fields correctly!",
		ValidationSuccess:  "Subscription Added Successfully!",
		DeleteSuccess:      "Subscription removed.",
		DeleteFailed:       "Could not remove the subscription.",
		CreateFailed:       "Could not save the subscription.",
		LoginNotConfigured: "Sign-in is not configured on this server.",
		LoginUnauthorized:  "This origin is not allowed to sign in.",
		LoginCancelled:     "Login cancelled.",
		LoginFailed:        "Login failed.",
		SignInRequired:     "Please sign in first.",
	},
	core.LocaleTR: {
		VibeLow:            "Cüzdan Keyifli 😎",
		VibeMedium:         "Dikkatli Git 🤔",
		VibeHigh:           "Para Uçuyor 💸",
		DueSoon:            "Yaklaşıyor",
		Overdue:            "Gecikmiş",
		DaysLeft:           "gün kaldı",
		DaysAgo:            "gün geçti",
		Equals:             "Yaklaşık",
		ValidationError:    "Lütfen tüm alanları eksiksiz doldurun!",
		ValidationSuccess:  "Abonelik Eklendi!",
		DeleteSuccess:      "Abonelik silindi.",
		DeleteFailed:       "Abonelik silinemedi.",
		CreateFailed:       "Abonelik kaydedilemedi.",
		LoginNotConfigured: "Giriş bu sunucuda yapılandırılmamış.",
		LoginUnauthorized:  "Bu adresten giriş yapılamaz.",
		LoginCancelled:     "Giriş iptal edildi.",
		LoginFailed:        "Giriş başarısız.",
		SignInRequired:     "Lütfen önce giriş yapın.",
	},
	core.LocaleDE: {
		VibeLow:            "Guter Bereich 😎",
		VibeMedium:         "Aufpassen 🤔",
		VibeHigh:           "Geld fliegt weg 💸",
		DueSoon:            "Fällig",
		Overdue:            "Überfällig",
		DaysLeft:           "Tage übrig",
		DaysAgo:            "Tage her",
		Equals:             "Entspricht",
		ValidationError:    "Bitte alle Felder korrekt ausfüllen!",
		ValidationSuccess:  "Abonnement hinzugefügt!",
		DeleteSuccess:      "Abonnement entfernt.",
		DeleteFailed:       "Abonnement konnte nicht entfernt werden.",
		CreateFailed:       "Abonnement konnte nicht gespeichert werden.",
		LoginNotConfigured: "Die Anmeldung ist auf diesem Server nicht eingerichtet.",
		LoginUnauthorized:  "Anmeldung von dieser Adresse nicht erlaubt.",
		LoginCancelled:     "Anmeldung abgebrochen.",
		LoginFailed:        "Anmeldung fehlgeschlagen.",
		SignInRequired:     "Bitte zuerst anmelden.",
	},
	core.LocaleFR: {
		VibeLow:            "Tout va bien 😎",
		VibeMedium:         "Attention 🤔",
		VibeHigh:           "L'argent vole 💸",
		DueSoon:            "Bientôt dû",
		Overdue:            "En retard",
		DaysLeft:           "jours restants",
		DaysAgo:            "jours passés",
		Equals:             "Équivaut à",
		ValidationError:    "Veuillez remplir tous les champs !",
		ValidationSuccess:  "Abonnement ajouté !",
		DeleteSuccess:      "Abonnement supprimé.",
		DeleteFailed:       "Impossible de supprimer l'abonnement.",
		CreateFailed:       "Impossible d'enregistrer l'abonnement.",
		LoginNotConfigured: "La connexion n'est pas configurée sur ce serveur.",
		LoginUnauthorized:  "Connexion non autorisée depuis cette adresse.",
		LoginCancelled:     "Connexion annulée.",
		LoginFailed:        "Échec de la connexion.",
		SignInRequired:     "Veuillez d'abord vous connecter.",
	},
	core.LocaleES: {
		VibeLow:            "Cartera Feliz 😎",
		VibeMedium:         "Cuidado 🤔",
		VibeHigh:           "Dinero Volando 💸",
		DueSoon:            "Vence pronto",
		Overdue:            "Vencido",
		DaysLeft:           "días quedan",
		DaysAgo:            "días pasados",
		Equals:             "Equivale a",
		ValidationError:    "¡Por favor complete todos los campos!",
		ValidationSuccess:  "¡Suscripción agregada!",
		DeleteSuccess:      "Suscripción eliminada.",
		DeleteFailed:       "No se pudo eliminar la suscripción.",
		CreateFailed:       "No se pudo guardar la suscripción.",
		LoginNotConfigured: "El inicio de sesión no está configurado en este servidor.",
		LoginUnauthorized:  "No se permite iniciar sesión desde este origen.",
		LoginCancelled:     "Inicio de sesión cancelado.",
		LoginFailed:        "Error al iniciar sesión.",
		SignInRequired:     "Inicia sesión primero.",
	},
}

func init() {
	if err := checkCatalog(catalog); err != nil {
		panic(err)
	}
}

func checkCatalog(c map[core.Locale]map[Key]string) error {
	for _, loc := range core.Locales {
		msgs, ok := c[loc]
		if !ok {
			return fmt.Errorf("i18n: locale %q missing", loc)
		}
		for _, k := range Keys {
			if msgs[k] == "" {
				return fmt.Errorf("i18n: locale %q missing key %q", loc, k)
			}
		}
	}
	return nil
}

// T returns the message for key in loc, falling back to the default locale.
func T(loc core.Locale, key Key) string {
	if msgs, ok := catalog[loc]; ok {
		if s, ok := msgs[key]; ok {
			return s
		}
	}
	return catalog[core.DefaultLocale][key]
}

// VibeKey maps a vibe to its message key.
func VibeKey(v core.Vibe) Key {
	switch v {
	case core.VibeHigh:
		return VibeHigh
	case core.VibeMedium:
		return VibeMedium
	default:
		return VibeLow
	}
}
