package events

import "github.com/mycalender/calendar-backend/internal/database"

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select("id",
		"title",
		"note",
		"date",
		"start_time",
		"end_time",
		"reminder_times",
		"reminder_methods",
	).
	From(database.EventsTable)
