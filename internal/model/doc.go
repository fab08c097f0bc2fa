// Package model defines the timeline data types shared by every layer.
//
// Properties and events live in flat, id-keyed collections. An event points
// at its property through PropertyID only; nothing embeds another entity.
// This keeps snapshots cheap to deep-copy and trivially serializable.
//
// Monetary amounts use decimal.Decimal. Dates are time.Time values and are
// encoded as RFC 3339 strings in JSON, so decoding a stored record yields
// real time values rather than strings.
//
// JSON tags use snake_case to match the durable session schema.
package model
