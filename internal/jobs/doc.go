// Package jobs defines the hydration message exchanged between the record
// lifecycle manager and the dispatcher:
//
//	{"jobType": "ITEM"|"RECIPE"|"IMAGE",
//	 "payload": {"user_id": ..., "item_id"|"recipe_id": ..., "item_name": ...}}
//
// Decode never validates; the dispatcher calls Validate so it can log the
// offending payload before dropping it.
package jobs
