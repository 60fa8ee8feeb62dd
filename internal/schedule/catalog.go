package schedule

// DefaultDurationMinutes applies when a class type is not in the catalog.
const DefaultDurationMinutes = 60

// classDurations is the static class-type catalog. Immutable process-wide.
var classDurations = map[string]int{
	"Yoga":              60,
	"Pilates":           45,
	"HIIT Training":     30,
	"Personal Training": 60,
	"Group Fitness":     45,
}

// ClassDuration returns the duration in minutes for a class type, defaulting
// to DefaultDurationMinutes for unknown types.
func ClassDuration(classType string) int {
	if d, ok := classDurations[classType]; ok {
		return d
	}
	return DefaultDurationMinutes
}

// KnownClassTypes lists the catalog entries, for user-facing menus.
func KnownClassTypes() []string {
	return []string{"Yoga", "Pilates", "HIIT Training", "Personal Training", "Group Fitness"}
}
