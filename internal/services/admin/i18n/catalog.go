package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// The French catalog covers the strings handlers emit outside templates:
// flashes, inline form errors and the generic error pages.
func init() {
	fr := language.French

	entries := map[string]string{
		"The email address or password you entered is incorrect": "L'adresse courriel ou le mot de passe que vous avez entré est incorrect",
		"This invite is for another email address":               "Cette invitation est destinée à une autre adresse courriel",
		"The security code you entered is incorrect":             "Le code de sécurité que vous avez entré est incorrect",
		"This link has expired":                                  "Ce lien est expiré",
		"This link is wrong":                                     "Ce lien est invalide",
		"Page not found":                                         "Page non trouvée",
		"You do not have permission to view this page":           "Vous n'avez pas la permission de consulter cette page",
		"Something went wrong, please try again":                 "Une erreur s'est produite, veuillez réessayer",
		"This invitation is no longer valid":                     "Cette invitation n'est plus valide",
		"Sign in":                                                "Se connecter",
		"Sign out":                                               "Se déconnecter",
		"cannot be empty":                                        "ne peut pas être vide",
		"enter a valid email address":                            "entrez une adresse courriel valide",
		"This service name is already in use":                    "Ce nom de service est déjà utilisé",
		"This email address is already in use":                   "Cette adresse courriel est déjà utilisée",
		"Enter a valid email address":                            "Entrez une adresse courriel valide",
		"Select at least one permission":                         "Sélectionnez au moins une permission",
		"This person has already been invited":                   "Cette personne a déjà été invitée",
		"Select a file to upload":                                "Sélectionnez un fichier à téléverser",
		"Logos must be PNG or SVG files":                         "Les logos doivent être des fichiers PNG ou SVG",
		"The file you uploaded failed the security scan":         "Le fichier que vous avez téléversé a échoué l'analyse de sécurité",
	}
	for key, value := range entries {
		if err := message.SetString(fr, key, value); err != nil {
			panic(err)
		}
	}
}
