package models

import "time"

// DefaultDevices returns a fresh copy of the seeded device list.
func DefaultDevices() []Device {
	return []Device{
		{ID: "1", Name: "Geyser", Type: DeviceGeyser, PowerWatts: 3000, IsOn: false},
		{ID: "2", Name: "Living Room TV", Type: DeviceAppliance, PowerWatts: 250, IsOn: true},
		{ID: "3", Name: "Kitchen Lights", Type: DeviceLight, PowerWatts: 50, IsOn: true},
		{ID: "4", Name: "Fridge", Type: DeviceAppliance, PowerWatts: 200, IsOn: true},
		{ID: "5", Name: "Backup Battery", Type: DeviceBattery, PowerWatts: -1500, IsOn: false},
	}
}

// DefaultRules returns a fresh copy of the seeded automation rules.
func DefaultRules() []AutomationRule {
	return []AutomationRule{
		{ID: "1", Name: "Geyser Saver", Description: "Turn off Geyser 30 mins before load shedding", IsEnabled: true},
		{ID: "2", Name: "Battery Guard", Description: "Enable battery backup when load shedding starts", IsEnabled: true},
		{ID: "3", Name: "Welcome Home", Description: "Turn on lights at sunset if you are home", IsEnabled: false},
	}
}

// DefaultSchedule builds the two Stage 4 slots relative to now.
func DefaultSchedule(now time.Time) []ScheduleSlot {
	return []ScheduleSlot{
		{Stage: Stage4, StartTime: now.Add(2 * time.Hour), EndTime: now.Add(4*time.Hour + 30*time.Minute)},
		{Stage: Stage4, StartTime: now.Add(10 * time.Hour), EndTime: now.Add(12*time.Hour + 30*time.Minute)},
	}
}

// PremiumFeatures lists the locked upsell cards.
func PremiumFeatures() []PremiumFeature {
	return []PremiumFeature{
		{
			Title:       "Battery Life Optimization",
			Description: "Calculates battery runtime based on current usage and planned activities to ensure you never run out of backup power unexpectedly.",
			Locked:      true,
		},
		{
			Title:       "Solar Integration",
			Description: "Monitors solar panels, battery charging, and grid tie-in to maximize solar usage and minimize grid dependency.",
			Locked:      true,
		},
		{
			Title:       "Neighborhood Power Sharing",
			Description: "Connect with neighbors to share power status and coordinate usage for community resilience during extended outages.",
			Locked:      true,
		},
	}
}
