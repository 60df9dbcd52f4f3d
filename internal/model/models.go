package model

// MigrateModels lists the tables created at startup, in dependency order.
var MigrateModels = []any{
	&Account{},
	&Slot{},
	&Reservation{},
}
