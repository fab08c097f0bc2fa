package entity

import "github.com/roach88/timeline/internal/model"

var propertyPalette = []string{
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#14B8A6",
	"#F97316",
}

var eventColors = map[model.EventType]string{
	model.EventPurchase:            "#3B82F6",
	model.EventSale:                "#EF4444",
	model.EventMoveIn:              "#10B981",
	model.EventMoveOut:             "#F59E0B",
	model.EventRentStart:           "#8B5CF6",
	model.EventRentEnd:             "#EC4899",
	model.EventImprovement:         "#14B8A6",
	model.EventRefinance:           "#6366F1",
	model.EventStatusChange:        "#A855F7",
	model.EventLivingInRentalStart: "#0EA5E9",
	model.EventLivingInRentalEnd:   "#F97316",
	model.EventCustom:              "#6B7280",
}

// propertyColor picks a palette entry for the n-th property.
func propertyColor(n int) string {
	return propertyPalette[n%len(propertyPalette)]
}

func eventColor(t model.EventType) string {
	if c, ok := eventColors[t]; ok {
		return c
	}
	return eventColors[model.EventCustom]
}
