// Package model defines the values the resolution engine consumes and
// produces: the per-destination options record (title, tags, description,
// rating plus destination-specific fields), the destination capability
// descriptor, and the resolved result handed to the posting component.
// Values are treated as immutable snapshots; Clone returns deep copies so a
// record can be shared across concurrently resolving destinations.
package model
