//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// ForwardMode is how a matched message is relayed. Both modes currently send a
// copy; the tag is kept for a native forward mode.
// ENUM(FORWARD,COPY)
type ForwardMode string
