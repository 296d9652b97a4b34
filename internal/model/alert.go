package model

// Alert is raised when the best price for a route meets its target.
type Alert struct {
	Price       float64
	Currency    string
	Destination string
	Date        string
}
