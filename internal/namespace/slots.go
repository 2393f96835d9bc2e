// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"time"

	"github.com/staranto/petcache/internal/cache"
)

const (
	Pets     = "pets"
	Calendar = "calendar"
	User     = "user"
)

// CalendarFilter is the calendar view's persisted filter selection.
type CalendarFilter struct {
	PetIDs     []string `json:"petIds"`
	EventTypes []string `json:"eventTypes"`
	ShowPast   bool     `json:"showPast"`
}

// Preferences are per-user display settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Units    string `json:"units"`
	Language string `json:"language"`
}

var (
	LastSelectedPet = cache.Config[string]{
		Key:        Join(Pets, "lastSelected"),
		Expiration: 30 * 24 * time.Hour,
	}

	CalendarFilters = cache.Config[CalendarFilter]{
		Key: Join(Calendar, "filters"),
	}

	UserPreferences = cache.Config[Preferences]{
		Key:     Join(User, "preferences"),
		Default: Preferences{Theme: "system", Units: "metric", Language: "en"},
	}
)

// Slot describes a well-known key without its value type.
type Slot struct {
	Key        string
	Expiration time.Duration
	Summary    string
}

// Slots lists the well-known keys.
var Slots = []Slot{
	{LastSelectedPet.Key, LastSelectedPet.Expiration, "pet last picked in the switcher"},
	{CalendarFilters.Key, CalendarFilters.Expiration, "calendar view filters"},
	{UserPreferences.Key, UserPreferences.Expiration, "display preferences"},
}

// Lookup finds the well-known slot for key.
func Lookup(key string) (Slot, bool) {
	for _, s := range Slots {
		if s.Key == key {
			return s, true
		}
	}
	return Slot{}, false
}
