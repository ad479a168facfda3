package cache

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey generates a key for a raw HTTP response.
	HTTPKey(namespace, key string) string

	// ProgramsKey generates the key for the program list.
	ProgramsKey() string

	// CoursesKey generates the key for a course catalog ("" = all programs).
	CoursesKey(program string) string

	// GraphKey generates the key for a curriculum graph ("" = all programs).
	GraphKey(program string) string

	// HistoryKey generates the key for a user's approved-course history.
	HistoryKey(userID, program string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ProgramsKey returns the fixed program list key.
func (DefaultKeyer) ProgramsKey() string {
	return "catalog:programs"
}

// CoursesKey hashes the program filter.
func (DefaultKeyer) CoursesKey(program string) string {
	return hashKey("catalog:courses", program)
}

// GraphKey hashes the program filter.
func (DefaultKeyer) GraphKey(program string) string {
	return hashKey("graph", program)
}

// HistoryKey hashes the user and program.
func (DefaultKeyer) HistoryKey(userID, program string) string {
	return hashKey("history", userID, program)
}
