// Package templates renders the site's HTML pages as templ components.
//
// Components live in the .templ files; run `templ generate` after editing
// them to refresh the *_templ.go files.
package templates

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/vpl/internal/core"
)

// Page carries what every page needs besides its own content.
type Page struct {
	Title string
	Flash string
	Admin bool
}

type field struct {
	name, label, kind string
	required         bool
	options          []string
}

var registrationFields = []field{
	{name: "full_name", label: "Full Name", kind: "text", required: true},
	{name: "age", label: "Age", kind: "number", required: true},
	{name: "phone", label: "Phone (10 digits)", kind: "tel", required: true},
	{name: "ch_reg", label: "Is the CricHeroes number the same?", kind: "select", options: []string{"Yes", "No"}},
	{name: "ch_mobile", label: "CricHeroes Mobile (10 digits)", kind: "tel", required: true},
	{name: "ch_name", label: "CricHeroes Name", kind: "text", required: true},
	{name: "current_team", label: "Current Team", kind: "text", required: true},
	{name: "prev_team", label: "Previous Team", kind: "text"},
	{name: "role", label: "Role", kind: "select", required: true, options: []string{"Batsman", "Bowler", "All-Rounder", "Wicket Keeper"}},
	{name: "style", label: "Batting / Bowling Style", kind: "text", required: true},
	{name: "photo", label: "Photo", kind: "file", required: true},
	{name: "shirt_name", label: "Name on Shirt", kind: "text", required: true},
	{name: "shirt_number", label: "Shirt Number", kind: "number", required: true},
	{name: "shirt_size", label: "Shirt Size", kind: "select", required: true, options: []string{"S", "M", "L", "XL", "XXL"}},
	{name: "sleeves", label: "Sleeves", kind: "select", required: true, options: []string{"Half", "Full"}},
	{name: "comments", label: "Comments", kind: "textarea"},
}

var playerColumns = append(append([]string{}, core.ExportColumns...), "Photo", "Status")

// playerCells returns the exported columns of p as display text.
func playerCells(p core.Player) []string {
	return []string{
		p.PublicID, p.FullName, strconv.Itoa(p.Age), p.Phone,
		p.GuardianPhoneSame, p.GuardianMobile, p.GuardianName,
		p.CurrentTeam, p.PreviousTeam, p.Role, p.Style,
		p.ShirtName, strconv.Itoa(p.ShirtNumber), p.ShirtSize,
		p.SleevePreference, p.Comments,
	}
}

func photoURL(p core.Player) templ.SafeURL {
	return templ.URL("/uploads/" + url.PathEscape(p.PhotoFilename))
}
