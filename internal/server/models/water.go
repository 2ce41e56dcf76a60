package models

import "time"

// Water amount bounds, in millilitres, for a single entry.
const (
	MinWaterAmount = 1
	MaxWaterAmount = 5000
)

// WaterEntry is one logged drink.
type WaterEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Date      time.Time `json:"date"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DayTotal aggregates the entries of one UTC day.
type DayTotal struct {
	Date  time.Time `json:"date"`
	Total int       `json:"total"`
	Count int       `json:"count"`
}
