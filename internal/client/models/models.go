// Package models defines the payloads the CLI exchanges with the aquatrack API.
package models

import "time"

// Profile is the signed-in user as returned by /api/users/current.
type Profile struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	AvatarURL    string   `json:"avatarURL"`
	Gender       *string  `json:"gender"`
	Weight       *float64 `json:"weight"`
	TimeActivity *string  `json:"timeActivity"`
	DailyNorma   int      `json:"dailyNorma"`
	Verified     bool     `json:"verified"`
}

type WaterEntry struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	Amount int       `json:"amount"`
}

// DaySummary is the intake of one UTC day.
type DaySummary struct {
	Date       string       `json:"date"`
	Entries    []WaterEntry `json:"entries"`
	Total      int          `json:"total"`
	DailyNorma int          `json:"dailyNorma"`
	Percent    int          `json:"percent"`
	Count      int          `json:"count"`
}

type MonthDay struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// MonthSummary lists only the days that have entries.
type MonthSummary struct {
	Month      string     `json:"month"`
	DailyNorma int        `json:"dailyNorma"`
	Days       []MonthDay `json:"days"`
}

// Tokens is the persisted session of the CLI.
type Tokens struct {
	Access  string
	Refresh string
	Email   string
}
