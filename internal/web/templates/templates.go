// Package templates renders the console pages and HTMX fragments. Every
// view is exposed as a templ.Component so handlers render pages and
// fragments the same way.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/modules"
	"github.com/mcoot/gamehub-console/internal/services/forms"
	"github.com/mcoot/gamehub-console/internal/services/listing"
	"github.com/mcoot/gamehub-console/internal/services/profile"
	"github.com/mcoot/gamehub-console/internal/services/stats"
)

//go:embed *.html
var files embed.FS

var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"delay": func(d time.Duration) string {
		return fmt.Sprintf("%dms", d.Milliseconds())
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}).ParseFS(files, "*.html"))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return views.ExecuteTemplate(w, name, data)
	})
}

// FlashMessage is a one-shot notice carried across a redirect
type FlashMessage struct {
	Type    string
	Message string
}

// PageData is shared by all full pages
type PageData struct {
	Title string
	Flash *FlashMessage
}

// LoginData is the login page
type LoginData struct {
	PageData
	Email string
	Error string
}

// MenuItem is one navbar module trigger
type MenuItem struct {
	Name  string
	Title string
}

// NavbarData is the navigation fragment
type NavbarData struct {
	Greeting string
	IsAdmin  bool
	Menu     []MenuItem
	// OOB marks the navbar for an out-of-band swap inside another fragment
	OOB bool
}

// ShellData is the console page after login
type ShellData struct {
	PageData
	Navbar NavbarData
}

// FormData is a create/edit form with its dropdown options
type FormData struct {
	View    *forms.View
	Options modules.Options
	Delay   time.Duration
}

// ListData is a list body
type ListData struct {
	View *listing.View
	// ClearStatus also empties the form status out of band
	ClearStatus bool
}

// ListModuleData is a whole list module fragment
type ListModuleData struct {
	Module *modules.Definition
	List   *ListData
	Form   *FormData
	Error  string
}

// ProfileData is the profile fragment
type ProfileData struct {
	View  *profile.View
	Delay time.Duration
	// Navbar is set after a save so the greeting follows a rename
	Navbar *NavbarData
}

// StatsData is the dashboard fragment
type StatsData struct {
	View  *stats.View
	Error string
	Empty string
}

// ErrorData is a full error page
type ErrorData struct {
	PageData
	Status  int
	Message string
}

// Login renders the login page
func Login(data LoginData) templ.Component {
	return render("login", data)
}

// Shell renders the console page
func Shell(data ShellData) templ.Component {
	return render("shell", data)
}

// Navbar renders the navigation fragment
func Navbar(data NavbarData) templ.Component {
	return render("navbar", data)
}

// ListModule renders a list module with its form
func ListModule(data ListModuleData) templ.Component {
	return render("list_module", data)
}

// ListBody renders the table, sort and pager of a list module
func ListBody(data ListData) templ.Component {
	return render("list_body", data)
}

// Form renders a create/edit form
func Form(data FormData) templ.Component {
	return render("form", data)
}

// FormStatus renders an out-of-band status message for a module's form
func FormStatus(module string, status forms.Status) templ.Component {
	return render("status_oob", struct {
		Module string
		Status forms.Status
	}{module, status})
}

// Profile renders the profile module
func Profile(data ProfileData) templ.Component {
	return render("profile", data)
}

// ProfileForm renders only the profile form, for reloads and submits
func ProfileForm(data ProfileData) templ.Component {
	return render("profile_form", data)
}

// Stats renders the statistics dashboard
func Stats(data StatsData) templ.Component {
	return render("stats", data)
}

// ModuleError renders an inline module failure
func ModuleError(message string) templ.Component {
	return render("module_error", message)
}

// ErrorPage renders a full error page
func ErrorPage(data ErrorData) templ.Component {
	return render("error_page", data)
}

// Greeting is the navbar greeting for a user
func Greeting(u model.User) string {
	name := u.Username
	if name == "" {
		name = u.Email
	}
	return "Hello " + name + "!"
}
