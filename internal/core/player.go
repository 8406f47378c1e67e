package core

import (
	"io"
	"strconv"
	"time"
)

// StatusRegistered is the status every new player record starts with.
const StatusRegistered = "Registered"

// Player is one registration record. Records are written once by
// Service.Register and never updated.
type Player struct {
	ID                int64
	PublicID          string
	FullName          string
	Age               int
	Phone             string
	GuardianPhoneSame string
	GuardianMobile    string
	GuardianName      string
	CurrentTeam       string
	PreviousTeam      string
	Role              string
	Style             string
	PhotoFilename     string
	ShirtName         string
	ShirtNumber       int
	ShirtSize         string
	SleevePreference  string
	Comments          string
	Status            string
	CreatedAt         time.Time
}

// RegistrationForm is the public registration form as submitted. The form
// tags are the multipart field names. Text fields tagged required must be
// present and non-empty; the rest are free text.
type RegistrationForm struct {
	FullName          string `form:"full_name" validate:"required"`
	Age               string `form:"age" validate:"required,number"`
	Phone             string `form:"phone" validate:"len=10"`
	GuardianPhoneSame string `form:"ch_reg"`
	GuardianMobile    string `form:"ch_mobile" validate:"len=10"`
	GuardianName      string `form:"ch_name" validate:"required"`
	CurrentTeam       string `form:"current_team" validate:"required"`
	PreviousTeam      string `form:"prev_team"`
	Role              string `form:"role" validate:"required"`
	Style             string `form:"style" validate:"required"`
	ShirtName         string `form:"shirt_name" validate:"required"`
	ShirtNumber       string `form:"shirt_number" validate:"required,number"`
	ShirtSize         string `form:"shirt_size" validate:"required"`
	SleevePreference  string `form:"sleeves" validate:"required"`
	Comments          string `form:"comments"`
}

// Upload is a photo file as received from the client.
type Upload struct {
	// Filename is the client-side file name; only its extension is kept.
	Filename string
	Content  io.Reader
}

// RegistrationResult is returned for a stored registration.
type RegistrationResult struct {
	PublicID      string
	PhotoFilename string
}

// player builds the record for a validated form. age and shirtNumber are the
// already-parsed numeric fields.
func (f RegistrationForm) player(id int64, publicID, photo string, age, shirtNumber int) *Player {
	return &Player{
		ID:                id,
		PublicID:          publicID,
		FullName:          f.FullName,
		Age:               age,
		Phone:             f.Phone,
		GuardianPhoneSame: f.GuardianPhoneSame,
		GuardianMobile:    f.GuardianMobile,
		GuardianName:      f.GuardianName,
		CurrentTeam:       f.CurrentTeam,
		PreviousTeam:      f.PreviousTeam,
		Role:              f.Role,
		Style:             f.Style,
		PhotoFilename:     photo,
		ShirtName:         f.ShirtName,
		ShirtNumber:       shirtNumber,
		ShirtSize:         f.ShirtSize,
		SleevePreference:  f.SleevePreference,
		Comments:          f.Comments,
		Status:            StatusRegistered,
	}
}

// exportRecord renders p as one CSV row in ExportColumns order.
func exportRecord(p Player) []string {
	return []string{
		p.PublicID,
		p.FullName,
		strconv.Itoa(p.Age),
		p.Phone,
		p.GuardianPhoneSame,
		p.GuardianMobile,
		p.GuardianName,
		p.CurrentTeam,
		p.PreviousTeam,
		p.Role,
		p.Style,
		p.ShirtName,
		strconv.Itoa(p.ShirtNumber),
		p.ShirtSize,
		p.SleevePreference,
		p.Comments,
	}
}
