package portal

// Points per level step for each activity type. Level N of an activity is
// worth N times its step (Internship: I=10 ... V=50).
var activityPointSteps = map[string]int{
	"Internship":      10,
	"NSS":             5,
	"NCC":             7,
	"Technical Event": 8,
	"Sports":          6,
}

var levelOrdinals = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5}

// DefaultLevel is assumed when an activity is submitted without a level.
const DefaultLevel = "I"

// MaxPoints returns the most points a tutor may award for an activity at
// level, or 0 for unknown types or levels.
func MaxPoints(activityType, level string) int {
	return activityPointSteps[activityType] * levelOrdinals[level]
}
