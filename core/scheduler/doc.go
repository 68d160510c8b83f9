// Package scheduler triggers periodic synchronizations of the current month.
//
// It wraps robfig/cron: the configured expression is evaluated in the clinic
// time zone and every tick hands the current month and year to a Trigger,
// normally the calendar feature's StartSync, so scheduled runs go through the
// same job registry and run lock as manual ones.
package scheduler
