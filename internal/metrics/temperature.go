package metrics

import "strings"

// cpuSensorPriority lists CPU chip names in preference order. The first chip
// with a positive reading wins.
var cpuSensorPriority = []string{"coretemp", "k10temp", "cpu_thermal", "cpu-thermal"}

// pickTemperature chooses the CPU temperature from raw sensor readings.
// Falls back to the first positive reading of any sensor; returns nil when
// nothing reports above zero.
func pickTemperature(readings []TemperatureReading) *float64 {
	for _, chip := range cpuSensorPriority {
		for _, r := range readings {
			if r.Celsius > 0 && sensorMatches(r.Key, chip) {
				v := r.Celsius
				return &v
			}
		}
	}

	for _, r := range readings {
		if r.Celsius > 0 {
			v := r.Celsius
			return &v
		}
	}
	return nil
}

// sensorMatches reports whether a gopsutil sensor key ("coretemp_package_id_0",
// "k10temp_tctl", "cpu_thermal") belongs to chip.
func sensorMatches(key, chip string) bool {
	key = strings.ToLower(key)
	return key == chip || strings.HasPrefix(key, chip+"_")
}
