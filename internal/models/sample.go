package models

// Sample is one usage reading in the rolling chart buffer.
type Sample struct {
	Label string  `json:"time"`    // MM:SS of the reading instant
	Value float64 `json:"wattage"` // whole watts
}

// UsageStats summarizes a window of samples.
type UsageStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}
