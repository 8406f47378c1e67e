// Package core provides the player registration logic for the VPL site.
//
// It is independent of HTTP and of the storage engine: web handlers call
// [Service], and the record store is any [Store] implementation.
//
// # Registration
//
// [Service.Register] runs in this order:
//
//  1. Validate the form. Phone and guardian mobile must be 10 characters,
//     age and shirt number whole numbers, and a photo with an extension
//     must be attached.
//  2. Take a slot from the [SubmitLimiter].
//  3. Reserve the next sequence number and format it as VPL-NNN.
//  4. Store the photo as <public_id>.<ext> via [PhotoStore].
//  5. Insert the record. On failure the photo is removed again.
//
// A reserved number is never reused, so failed registrations leave gaps.
//
// # Errors
//
// Errors are marked with a class ([ErrValidation], [ErrPersistence],
// [ErrPayloadTooLarge], [ErrAuthentication]) using cockroachdb/errors.
// [MapError] turns any of them into the message and code shown to users.
//
// # Export
//
// [Service.ExportCSV] writes [ExportColumns] followed by one row per player.
package core
