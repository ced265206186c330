package domain

// Team is a championship entrant.
type Team struct {
	ID          string // PRIMARY KEY (uuid)
	Name        string // unique slug
	DisplayName string
	IsActive    bool
	CreatedAt   int64 // ms
}

// Driver races for exactly one team at a time.
type Driver struct {
	ID           string // PRIMARY KEY (uuid)
	Name         string // unique slug
	DisplayName  string
	Abbreviation string // three-letter code, unique
	Number       int
	TeamID       string
	IsActive     bool
	CreatedAt    int64 // ms
}
