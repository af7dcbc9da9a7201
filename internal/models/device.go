package models

// DeviceType classifies a connected device.
type DeviceType string

const (
	DeviceGeyser    DeviceType = "Geyser"
	DevicePlug      DeviceType = "Smart Plug"
	DeviceLight     DeviceType = "Light Switch"
	DeviceAppliance DeviceType = "Appliance"
	DeviceBattery   DeviceType = "Backup Battery"
)

// Device is a toggleable smart device. Negative PowerWatts marks a power source (battery).
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       DeviceType `json:"type"`
	PowerWatts int        `json:"power_watts"`
	IsOn       bool       `json:"is_on"`
}
