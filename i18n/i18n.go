// Package i18n translates UI message codes. French is the default language.
package i18n

import (
	"context"
	"strings"
)

const DefaultLang = "fr"

var messages = map[string]map[string]string{
	"fr": {
		"required":         "Requis",
		"must_be_positive": "Doit être positif",
		"out_of_range":     "Hors limites",
		"invalid":          "Invalide",

		"nav.dashboard": "Tableau de bord",
		"nav.menu":      "Carte",
		"nav.products":  "Plats",
		"nav.items":     "Matières premières",
		"nav.inventory": "Stock",
		"nav.orders":    "Commandes",
		"nav.finance":   "Finances",
		"nav.staff":     "Personnel",
		"nav.vendors":   "Fournisseurs",
		"nav.customers": "Clients",
		"nav.feedback":  "Avis",
		"nav.admin":     "Administration",
		"nav.login":     "Connexion",
		"nav.logout":    "Déconnexion",

		"dashboard.today_sales":   "Ventes du jour",
		"dashboard.today_orders":  "Commandes du jour",
		"dashboard.monthly_sales": "Ventes du mois",
		"dashboard.avg_order":     "Panier moyen",
		"dashboard.recent_sales":  "Ventes récentes",

		"field.name":        "Nom",
		"field.category":    "Catégorie",
		"field.price":       "Prix",
		"field.status":      "Statut",
		"field.stock":       "Stock",
		"field.reorder":     "Seuil de réappro.",
		"field.vendor":      "Fournisseur",
		"field.customer":    "Client",
		"field.date":        "Date",
		"field.total":       "Total",
		"field.channel":     "Canal",
		"field.position":    "Poste",
		"field.phone":       "Téléphone",
		"field.email":       "E-mail",
		"field.rating":      "Note",
		"field.comment":     "Commentaire",
		"field.mem_level":   "Niveau",
		"field.password":    "Mot de passe",
		"field.due_date":    "Échéance",
		"field.amount":      "Montant",
		"field.description": "Description",

		"status.low":    "Bas",
		"status.normal": "Normal",
		"status.none":   "Non suivi",

		"action.search": "Rechercher",
		"action.save":   "Enregistrer",
		"action.delete": "Supprimer",
		"action.login":  "Se connecter",
		"action.signup": "Créer un compte",

		"finance.receivables": "Créances",
		"finance.payables":    "Dettes fournisseurs",
		"finance.revenue":     "Chiffre d'affaires",
		"finance.profit":      "Marge brute",

		"empty":          "Aucun élément",
		"invalid_login":  "Identifiants invalides",
		"email_taken":    "Adresse déjà utilisée",
		"password_short": "Mot de passe trop court",
	},
	"en": {
		"required":         "Required",
		"must_be_positive": "Must be positive",
		"out_of_range":     "Out of range",
		"invalid":          "Invalid",

		"nav.dashboard": "Dashboard",
		"nav.menu":      "Menu",
		"nav.products":  "Dishes",
		"nav.items":     "Raw materials",
		"nav.inventory": "Inventory",
		"nav.orders":    "Orders",
		"nav.finance":   "Finance",
		"nav.staff":     "Staff",
		"nav.vendors":   "Vendors",
		"nav.customers": "Customers",
		"nav.feedback":  "Feedback",
		"nav.admin":     "Admin",
		"nav.login":     "Log in",
		"nav.logout":    "Log out",

		"dashboard.today_sales":   "Today's sales",
		"dashboard.today_orders":  "Today's orders",
		"dashboard.monthly_sales": "Monthly sales",
		"dashboard.avg_order":     "Average order",
		"dashboard.recent_sales":  "Recent sales",

		"field.name":        "Name",
		"field.category":    "Category",
		"field.price":       "Price",
		"field.status":      "Status",
		"field.stock":       "Stock",
		"field.reorder":     "Reorder level",
		"field.vendor":      "Vendor",
		"field.customer":    "Customer",
		"field.date":        "Date",
		"field.total":       "Total",
		"field.channel":     "Channel",
		"field.position":    "Position",
		"field.phone":       "Phone",
		"field.email":       "Email",
		"field.rating":      "Rating",
		"field.comment":     "Comment",
		"field.mem_level":   "Level",
		"field.password":    "Password",
		"field.due_date":    "Due date",
		"field.amount":      "Amount",
		"field.description": "Description",

		"status.low":    "Low",
		"status.normal": "Normal",
		"status.none":   "Not tracked",

		"action.search": "Search",
		"action.save":   "Save",
		"action.delete": "Delete",
		"action.login":  "Log in",
		"action.signup": "Sign up",

		"finance.receivables": "Receivables",
		"finance.payables":    "Payables",
		"finance.revenue":     "Revenue",
		"finance.profit":      "Gross profit",

		"empty":          "Nothing here yet",
		"invalid_login":  "Invalid credentials",
		"email_taken":    "Email already in use",
		"password_short": "Password too short",
	},
}

// DetectLanguage picks "en" when the Accept-Language header starts with
// English, "fr" otherwise.
func DetectLanguage(acceptLanguage string) string {
	first := strings.TrimSpace(strings.SplitN(acceptLanguage, ",", 2)[0])
	if strings.HasPrefix(strings.ToLower(first), "en") {
		return "en"
	}
	return DefaultLang
}

// T translates code, falling back to French and then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a dictionary.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the stored language or the default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}
